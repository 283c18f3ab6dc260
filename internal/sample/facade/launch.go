package facade

import (
	"time"

	"github.com/rebrowser/syncgen/internal/sample/impl"
	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/runtime"
)

// Launch starts a fake target answering after latency and returns a
// blocking browser in a new session. Closing the session stops the event
// loop; closing the browser only disconnects it.
func Launch(latency time.Duration, opts ...runtime.Option) (*Browser, error) {
	s, err := runtime.NewSession([]runtime.Binder{Register}, opts...)
	if err != nil {
		return nil, err
	}
	b, err := runtime.Call(s.Context(), s.Bridge(), impl.Launch(latency))
	if err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "launching browser")
	}
	browser, ok := s.Wrap(b).(*Browser)
	if !ok {
		_ = s.Close()
		return nil, errors.AssertionFailedf("browser façade not registered")
	}
	return browser, nil
}
