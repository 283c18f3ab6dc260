package impl

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rebrowser/syncgen/pkg/runtime"
)

// PageImpl is one browser tab.
type PageImpl struct {
	channelOwner
	Browser *BrowserImpl

	closed    atomic.Bool
	mu        sync.Mutex
	url       string
	listeners map[string][]func(any) // one-shot, loop-owned
}

//syncgen:property
func (p *PageImpl) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

//syncgen:property
func (p *PageImpl) IsClosed() bool {
	return p.closed.Load()
}

// Goto navigates to url and resolves with the main response.
//
//syncgen:default timeout=30000
func (p *PageImpl) Goto(url string, timeout *float64, referer *string) runtime.Coroutine[*ResponseImpl] {
	return func(l *runtime.Loop) *runtime.Future[*ResponseImpl] {
		params := map[string]any{"url": url}
		if referer != nil {
			params["referer"] = *referer
		}
		reply := withTimeout(l, p.send("goto", params), timeout, "goto "+url)
		return runtime.Map(reply, func(r map[string]any) (*ResponseImpl, error) {
			p.mu.Lock()
			p.url = str(r["url"])
			p.mu.Unlock()
			return newResponse(p, r), nil
		})
	}
}

// Title resolves with the document title.
func (p *PageImpl) Title() runtime.Coroutine[string] {
	return func(l *runtime.Loop) *runtime.Future[string] {
		return runtime.Map(p.send("title", nil), func(r map[string]any) (string, error) {
			return str(r["value"]), nil
		})
	}
}

// Evaluate runs expression in the page with arg.
func (p *PageImpl) Evaluate(expression string, arg any) runtime.Coroutine[any] {
	return func(l *runtime.Loop) *runtime.Future[any] {
		return runtime.Map(p.send("evaluate", map[string]any{"expression": expression, "arg": arg}), func(r map[string]any) (any, error) {
			return r["value"], nil
		})
	}
}

// Locator returns a lazy element query.
func (p *PageImpl) Locator(selector string) *LocatorImpl {
	return &LocatorImpl{Page: p, Selector: selector}
}

// ExpectPopup starts listening for the next popup. It may be called from
// any goroutine; the returned future settles on the loop.
func (p *PageImpl) ExpectPopup() *runtime.Future[*PageImpl] {
	f := runtime.NewFuture[*PageImpl](p.loop())
	err := p.loop().Post(func() {
		p.once("popup", func(v any) {
			popup, _ := v.(*PageImpl)
			f.Resolve(popup)
		})
	})
	if err != nil {
		return nil
	}
	return f
}

// WaitForEvent resolves with a future of the next payload of event.
func (p *PageImpl) WaitForEvent(event string) runtime.Coroutine[*runtime.Future[any]] {
	return func(l *runtime.Loop) *runtime.Future[*runtime.Future[any]] {
		f := runtime.NewFuture[any](l)
		p.once(event, func(v any) { f.Resolve(v) })
		return runtime.Resolved(l, f)
	}
}

// Assertions returns the expectations over this page.
func (p *PageImpl) Assertions() *PageAssertionsImpl {
	return &PageAssertionsImpl{page: p, interval: 10 * time.Millisecond}
}

// RemoveListener drops every pending listener for event.
func (p *PageImpl) RemoveListener(event string) {
	_ = p.loop().Post(func() { delete(p.listeners, event) })
}

// Close closes the page.
func (p *PageImpl) Close() runtime.Coroutine[runtime.Void] {
	return func(l *runtime.Loop) *runtime.Future[runtime.Void] {
		return runtime.Map(p.send("close", nil), func(map[string]any) (runtime.Void, error) {
			p.closed.Store(true)
			return runtime.Void{}, nil
		})
	}
}

// Dispose is Close.
func (p *PageImpl) Dispose() runtime.Coroutine[runtime.Void] {
	return p.Close()
}

func (p *PageImpl) once(event string, fn func(any)) {
	p.listeners[event] = append(p.listeners[event], fn)
}

func (p *PageImpl) onEvent(method string, params map[string]any) {
	var payload any = params
	if method == "popup" {
		payload = p.Browser.adopt(str(params["guid"]))
	}
	listeners := p.listeners[method]
	delete(p.listeners, method)
	for _, fn := range listeners {
		fn(payload)
	}
}

// withTimeout rejects with a TimeoutError unless f settles within timeout
// milliseconds. A nil or non-positive timeout waits forever.
func withTimeout[T any](l *runtime.Loop, f *runtime.Future[T], timeout *float64, op string) *runtime.Future[T] {
	if timeout == nil || *timeout <= 0 {
		return f
	}
	d := time.Duration(*timeout * float64(time.Millisecond))
	out := runtime.NewFuture[T](l)
	timer := time.AfterFunc(d, func() {
		_ = l.Post(func() { out.Reject(&TimeoutError{Op: op, Timeout: d}) })
	})
	f.Then(func(v T, err error) {
		timer.Stop()
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(v)
	})
	return out
}
