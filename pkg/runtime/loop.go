// Package runtime provides the run-time half of syncgen: the event loop the
// asynchronous implementation runs on, the bridge that lets a blocking caller
// drive it, and the registry that re-wraps implementation values in their
// generated façades.
package runtime

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
	"go.uber.org/zap"

	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
)

// ErrLoopClosed is returned when work is posted to a loop that has shut down.
var ErrLoopClosed = errors.New("event loop closed")

// Loop is a single-goroutine event loop. Every callback posted to it runs on
// its goroutine, one at a time; futures are settled and their callbacks run
// only there. The goroutine is started on first use.
type Loop struct {
	queue    chan func()
	local    []func()      // posted from the loop goroutine itself
	stopping chan struct{} // wakes Posts blocked on a full queue
	quit     chan struct{} // closed once no Post can enqueue any more
	done     chan struct{}

	mu        sync.RWMutex // guards closed against concurrent Post
	closed    bool
	startOnce sync.Once
	stopOnce  sync.Once
	gid       atomic.Int64

	orphanMu sync.Mutex // serialises work done after the goroutine exited

	log *zap.SugaredLogger
}

// NewLoop creates a loop. Its goroutine starts with the first Post.
func NewLoop() *Loop {
	return &Loop{
		queue:    make(chan func(), 64),
		stopping: make(chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      logger.Named("loop"),
	}
}

func (l *Loop) start() {
	started := make(chan struct{})
	go l.run(started)
	<-started
}

// run processes callbacks sequentially on the loop goroutine.
func (l *Loop) run(started chan<- struct{}) {
	l.gid.Store(goid.Get())
	close(started)
	l.log.Debugw("event loop started", logger.FieldState, "running")
	defer close(l.done)

	for {
		select {
		case fn := <-l.queue:
			l.execute(fn)
		case <-l.quit:
			// Drain what was accepted before Close.
			for {
				select {
				case fn := <-l.queue:
					l.execute(fn)
				default:
					l.log.Debugw("event loop stopped", logger.FieldState, "closed")
					return
				}
			}
		}
	}
}

// execute runs one callback plus anything it posted back to the loop,
// recovering from panics.
func (l *Loop) execute(fn func()) {
	l.safely(fn)
	for len(l.local) > 0 {
		next := l.local[0]
		l.local = l.local[1:]
		l.safely(next)
	}
}

func (l *Loop) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Warnw("callback panicked", logger.FieldError, fmt.Sprint(r))
		}
	}()
	fn()
}

// Post schedules fn on the loop goroutine. It is safe to call from any
// goroutine, including the loop itself. A Post blocked on a full queue
// returns ErrLoopClosed as soon as Close is called.
func (l *Loop) Post(fn func()) error {
	if l.InLoop() {
		l.local = append(l.local, fn)
		return nil
	}

	l.startOnce.Do(l.start)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLoopClosed
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.stopping:
		return ErrLoopClosed
	}
}

// InLoop reports whether the caller is running on the loop goroutine.
func (l *Loop) InLoop() bool {
	id := l.gid.Load()
	return id != 0 && id == goid.Get()
}

// mustOwn panics unless called on the loop goroutine.
func (l *Loop) mustOwn(op string) {
	if !l.InLoop() {
		panic(errors.AssertionFailedf("%s called off the event loop goroutine", op))
	}
}

// Close stops accepting work, runs what was already queued and waits for the
// goroutine to exit. Closing from inside a callback does not wait.
func (l *Loop) Close() error {
	// Release blocked Posts first so the write lock below cannot wait on a
	// sender that needs the loop to make room.
	l.stopOnce.Do(func() { close(l.stopping) })

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	started := true
	l.startOnce.Do(func() { started = false })
	close(l.quit)
	if !started {
		close(l.done)
		return nil
	}
	if l.InLoop() {
		return nil
	}
	<-l.done
	return nil
}

// afterStop runs fn once the loop goroutine has exited, serialised with other
// afterStop calls. It reports false, without running fn, if Close has not
// been called.
func (l *Loop) afterStop(fn func()) bool {
	if l.InLoop() {
		return false
	}
	select {
	case <-l.stopping:
	default:
		return false
	}
	<-l.done
	l.orphanMu.Lock()
	defer l.orphanMu.Unlock()
	fn()
	return true
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}
