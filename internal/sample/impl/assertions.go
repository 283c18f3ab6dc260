package impl

import (
	"time"

	"github.com/rebrowser/syncgen/pkg/runtime"
)

// PageAssertionsImpl polls a page until an expectation holds.
type PageAssertionsImpl struct {
	page     *PageImpl
	interval time.Duration
}

// ToHaveTitle waits until the page title is title.
//
//syncgen:default timeout=5000
func (a *PageAssertionsImpl) ToHaveTitle(title string, timeout *float64) runtime.Coroutine[runtime.Void] {
	return func(l *runtime.Loop) *runtime.Future[runtime.Void] {
		return a.poll(l, "page title", title, timeout, func() *runtime.Future[string] {
			return a.page.Title()(l)
		})
	}
}

// ToHaveURL waits until the page is at url.
//
//syncgen:default timeout=5000
func (a *PageAssertionsImpl) ToHaveURL(url string, timeout *float64) runtime.Coroutine[runtime.Void] {
	return func(l *runtime.Loop) *runtime.Future[runtime.Void] {
		return a.poll(l, "page URL", url, timeout, func() *runtime.Future[string] {
			return runtime.Resolved(l, a.page.URL())
		})
	}
}

// poll runs probe until it yields want or the timeout passes. Loop
// goroutine only.
func (a *PageAssertionsImpl) poll(l *runtime.Loop, what, want string, timeout *float64, probe func() *runtime.Future[string]) *runtime.Future[runtime.Void] {
	limit := 5000.0
	if timeout != nil {
		limit = *timeout
	}
	deadline := time.Now().Add(time.Duration(limit * float64(time.Millisecond)))
	out := runtime.NewFuture[runtime.Void](l)

	var attempt func()
	attempt = func() {
		probe().Then(func(got string, err error) {
			switch {
			case err != nil:
				out.Reject(err)
			case got == want:
				out.Resolve(runtime.Void{})
			case time.Now().After(deadline):
				out.Reject(&AssertionError{What: what, Want: want, Got: got})
			default:
				time.AfterFunc(a.interval, func() { _ = l.Post(attempt) })
			}
		})
	}
	attempt()
	return out
}
