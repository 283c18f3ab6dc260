package impl

import (
	"sync"
	"time"

	"github.com/rebrowser/syncgen/pkg/runtime"
)

// BrowserImpl is a browser connected to a target.
type BrowserImpl struct {
	channelOwner
	Version string

	mu        sync.Mutex
	pages     []*PageImpl
	connected bool
}

// Launch starts a target answering after latency and connects a browser to
// it.
func Launch(latency time.Duration) runtime.Coroutine[*BrowserImpl] {
	return func(l *runtime.Loop) *runtime.Future[*BrowserImpl] {
		conn := NewConnection(l, NewTarget(latency))
		return runtime.Map(conn.send("", "launch", nil), func(r map[string]any) (*BrowserImpl, error) {
			return &BrowserImpl{
				channelOwner: channelOwner{guid: str(r["guid"]), conn: conn},
				Version:      str(r["version"]),
				connected:    true,
			}, nil
		})
	}
}

// NewPage opens a blank page.
func (b *BrowserImpl) NewPage() runtime.Coroutine[*PageImpl] {
	return func(l *runtime.Loop) *runtime.Future[*PageImpl] {
		return runtime.Map(b.send("newPage", nil), func(r map[string]any) (*PageImpl, error) {
			return b.adopt(str(r["guid"])), nil
		})
	}
}

// Pages returns the open pages in creation order.
func (b *BrowserImpl) Pages() []*PageImpl {
	b.mu.Lock()
	defer b.mu.Unlock()
	var open []*PageImpl
	for _, p := range b.pages {
		if !p.IsClosed() {
			open = append(open, p)
		}
	}
	return open
}

//syncgen:property
func (b *BrowserImpl) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Close closes every page and disconnects.
func (b *BrowserImpl) Close() runtime.Coroutine[runtime.Void] {
	return func(l *runtime.Loop) *runtime.Future[runtime.Void] {
		return runtime.Map(b.send("close", nil), func(map[string]any) (runtime.Void, error) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.connected = false
			for _, p := range b.pages {
				p.closed.Store(true)
			}
			return runtime.Void{}, nil
		})
	}
}

// Dispose is Close; it lets a façade scope the browser with Use.
func (b *BrowserImpl) Dispose() runtime.Coroutine[runtime.Void] {
	return b.Close()
}

// adopt creates the page object for a target page. Loop goroutine only.
func (b *BrowserImpl) adopt(guid string) *PageImpl {
	p := &PageImpl{
		channelOwner: channelOwner{guid: guid, conn: b.conn},
		Browser:      b,
		url:          "about:blank",
		listeners:    make(map[string][]func(any)),
	}
	b.conn.objects[guid] = p
	b.mu.Lock()
	b.pages = append(b.pages, p)
	b.mu.Unlock()
	return p
}
