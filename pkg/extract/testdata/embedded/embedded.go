package embedded

import (
	"time"

	"github.com/rebrowser/syncgen/pkg/runtime"
)

type Options struct{ Depth int }

type NodeImpl struct {
	ID string
}

type LeafImpl struct {
	*NodeImpl
	Created  time.Time
	Settings Options
	Ready    *runtime.Future[bool]
	Children []*NodeImpl
	Tags     map[string][]string
	note     string
}

// Rename is exported but sets an unexported field.
func (l *LeafImpl) Rename(note string, options *Options) *LeafImpl {
	l.note = note
	return l
}

//syncgen:property
func (l *LeafImpl) Note() (string, error) { return l.note, nil }

type ValueLeafImpl struct {
	NodeImpl
}
