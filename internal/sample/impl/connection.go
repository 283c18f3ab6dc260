// Package impl is a small asynchronous browser driver. Its objects live on
// a runtime event loop and talk to an in-process fake target; the blocking
// façade in ../facade is generated from it.
package impl

//go:generate sh -c "go run ../../../cmd/syncmeta --operator Nth=__getitem__ . > testdata/metadata.json"
//go:generate sh -c "SYNCGEN_DOCS=testdata/docs.yaml go run ../../../cmd/syncgen < testdata/metadata.json > ../facade/facade.go"

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
	"github.com/rebrowser/syncgen/pkg/runtime"
)

// eventSink receives the events addressed to one object. Loop goroutine
// only.
type eventSink interface {
	onEvent(method string, params map[string]any)
}

// Connection carries messages between the driver objects and the target.
// Everything but the constructor runs on the loop goroutine.
type Connection struct {
	loop    *runtime.Loop
	target  *Target
	pending map[string]*runtime.Future[map[string]any] // by message id
	objects map[string]eventSink                        // by guid
	log     *zap.SugaredLogger
}

// NewConnection connects to target; replies and events are posted to l.
func NewConnection(l *runtime.Loop, target *Target) *Connection {
	c := &Connection{
		loop:    l,
		target:  target,
		pending: make(map[string]*runtime.Future[map[string]any]),
		objects: make(map[string]eventSink),
		log:     logger.Named("connection"),
	}
	target.attach(c.receive)
	return c
}

// send issues a request and returns the future of its result.
func (c *Connection) send(guid, method string, params map[string]any) *runtime.Future[map[string]any] {
	f := runtime.NewFuture[map[string]any](c.loop)
	id := uuid.NewString()
	data, err := json.Marshal(message{ID: id, GUID: guid, Method: method, Params: params})
	if err != nil {
		f.Reject(errors.Wrapf(err, "encoding %s", method))
		return f
	}
	c.pending[id] = f
	c.log.Debugw("send", logger.FieldCallID, id, logger.FieldMember, method)
	c.target.deliver(data)
	return f
}

// receive is called by the target on its own goroutines.
func (c *Connection) receive(data []byte) {
	if err := c.loop.Post(func() { c.dispatch(data) }); err != nil {
		c.log.Debugw("dropping message after close", logger.FieldError, err)
	}
}

func (c *Connection) dispatch(data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Warnw("malformed message", logger.FieldError, err)
		return
	}
	if msg.ID == "" {
		if sink, ok := c.objects[msg.GUID]; ok {
			sink.onEvent(msg.Method, msg.Params)
		}
		return
	}
	f, ok := c.pending[msg.ID]
	if !ok {
		c.log.Warnw("reply to unknown message", logger.FieldCallID, msg.ID)
		return
	}
	delete(c.pending, msg.ID)
	if msg.Error != "" {
		f.Reject(errors.WithStack(&TargetError{Message: msg.Error}))
		return
	}
	f.Resolve(msg.Result)
}

// channelOwner is the part every remote object shares.
type channelOwner struct {
	guid string
	conn *Connection
}

func (o *channelOwner) send(method string, params map[string]any) *runtime.Future[map[string]any] {
	return o.conn.send(o.guid, method, params)
}

func (o *channelOwner) loop() *runtime.Loop { return o.conn.loop }

func str(v any) string {
	s, _ := v.(string)
	return s
}

// num reads a JSON number.
func num(v any) int {
	f, _ := v.(float64)
	return int(f)
}
