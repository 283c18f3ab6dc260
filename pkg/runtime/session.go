package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
)

// TB is the part of testing.TB the façades use: marking assertion helpers so
// failures point at the caller.
type TB interface {
	Helper()
}

type noopTB struct{}

func (noopTB) Helper() {}

// Binder installs façade bindings into a registry. Generated packages export
// one named Register.
type Binder func(*Registry) error

// Session ties one registry and one bridge together for the lifetime of a
// driver connection. Façades built in a session only ever wrap through its
// registry and block through its bridge, so independent sessions can live in
// one process.
type Session struct {
	ctx      context.Context
	bridge   *Bridge
	registry *Registry
	tb       TB
	log      *zap.SugaredLogger
}

// Option configures a Session.
type Option func(*Session)

// WithContext sets the context blocking façade calls wait under. Cancelling
// it abandons every wait in the session.
func WithContext(ctx context.Context) Option {
	return func(s *Session) { s.ctx = ctx }
}

// WithTB routes assertion helper marking to tb.
func WithTB(tb TB) Option {
	return func(s *Session) { s.tb = tb }
}

// WithBridge makes the session share an existing bridge.
func WithBridge(b *Bridge) Option {
	return func(s *Session) { s.bridge = b }
}

// NewSession creates a session, applies every binder and seals the registry.
func NewSession(binders []Binder, opts ...Option) (*Session, error) {
	s := &Session{
		ctx:      context.Background(),
		registry: NewRegistry(),
		tb:       noopTB{},
		log:      logger.Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bridge == nil {
		s.bridge = NewBridge()
	}
	for _, bind := range binders {
		if err := bind(s.registry); err != nil {
			return nil, errors.Wrap(err, "binding façades")
		}
	}
	s.registry.Seal()
	s.log.Debugw("session ready", logger.FieldCount, s.registry.Len())
	return s, nil
}

// Context returns the context blocking calls wait under.
func (s *Session) Context() context.Context { return s.ctx }

// Bridge returns the session's bridge.
func (s *Session) Bridge() *Bridge { return s.bridge }

// Registry returns the session's registry.
func (s *Session) Registry() *Registry { return s.registry }

// Loop returns the event loop the implementation runs on.
func (s *Session) Loop() *Loop { return s.bridge.Loop() }

// Wrap re-wraps an implementation value through the session registry.
func (s *Session) Wrap(v any) any { return s.registry.Wrap(s, v) }

// Close shuts the bridge down.
func (s *Session) Close() error {
	return s.bridge.Close()
}
