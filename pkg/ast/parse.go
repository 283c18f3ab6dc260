package ast

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rebrowser/syncgen/pkg/errors"
)

// Parse reads metadata JSON from a reader and returns a validated File.
func Parse(r io.Reader) (*File, error) {
	var file File
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "failed to parse metadata")
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// ParseBytes parses metadata JSON from a byte slice.
func ParseBytes(data []byte) (*File, error) {
	return Parse(bytes.NewReader(data))
}

// Validate checks document-level invariants: the schema version, unique class
// names, single known member kinds and well-formed type references.
func (f *File) Validate() error {
	if f.Version != SchemaVersion {
		return errors.Mark(errors.Newf("metadata version %d, want %d", f.Version, SchemaVersion), errors.ErrInvalidMetadata)
	}
	if f.Package == "" {
		return errors.Mark(errors.New("metadata has no package name"), errors.ErrInvalidMetadata)
	}
	seen := make(map[string]bool, len(f.Classes))
	for _, c := range f.Classes {
		if c.Name == "" {
			return errors.Mark(errors.New("class without a name"), errors.ErrInvalidMetadata)
		}
		if seen[c.Name] {
			return errors.Mark(errors.Newf("class %s declared twice", c.Name), errors.ErrInvalidMetadata)
		}
		seen[c.Name] = true
		for _, m := range c.Members {
			if err := m.validate(); err != nil {
				return errors.Mark(errors.Wrapf(err, "%s.%s", c.Name, m.Name), errors.ErrInvalidMetadata)
			}
		}
	}
	return nil
}

func (m *Member) validate() error {
	if m.Name == "" {
		return errors.New("member without a name")
	}
	switch m.Kind {
	case KindProperty:
		return m.Type.Validate()
	case KindMethod:
		for _, p := range m.Params {
			if p.Name == "" {
				return errors.New("parameter without a name")
			}
			if err := p.Type.Validate(); err != nil {
				return errors.Wrapf(err, "parameter %s", p.Name)
			}
		}
		if m.Returns != nil {
			return m.Returns.Validate()
		}
		return nil
	}
	return errors.Newf("unknown member kind %q", m.Kind)
}
