package hijackstream

import (
	"context"
	"sync"
)

// Loop runs posted tasks one at a time on the goroutine that called Run.
// Streams and Controllers are only touched from inside tasks.
type Loop struct {
	tasks chan func()
	stop  chan struct{}
	once  sync.Once
}

// NewLoop returns a Loop whose queue holds size pending tasks.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		tasks: make(chan func(), size),
		stop:  make(chan struct{}),
	}
}

// Post queues fn. It blocks while the queue is full and returns false once
// the loop was stopped. Safe for concurrent use.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stop:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Stop makes Run return after the current task. Tasks still queued are
// dropped.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Done is closed once the loop was stopped.
func (l *Loop) Done() <-chan struct{} { return l.stop }

// Run executes tasks until Stop is called or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-l.stop:
			return nil
		default:
		}
		select {
		case <-l.stop:
			return nil
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}
