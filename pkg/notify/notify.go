// Package notify provides a typed publish/subscribe primitive with
// per-listener fault isolation: a listener that panics is logged and
// skipped, it never prevents other listeners from observing the event or
// breaks the action that published it.
package notify

import (
	"log/slog"
	"sync"
)

// Publisher fans an event out to registered listeners. The zero value is
// not usable; create one with NewPublisher.
type Publisher[E any] struct {
	mu     sync.Mutex
	next   int
	subs   map[int]func(E)
	logger *slog.Logger
}

// NewPublisher creates a Publisher. A nil logger falls back to
// slog.Default().
func NewPublisher[E any](logger *slog.Logger) *Publisher[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher[E]{
		subs:   make(map[int]func(E)),
		logger: logger,
	}
}

// Subscribe registers fn and returns its unsubscribe function. The
// unsubscribe function is idempotent.
func (p *Publisher[E]) Subscribe(fn func(E)) func() {
	p.mu.Lock()
	p.next++
	id := p.next
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Publish delivers e to every listener registered at the time of the call.
// Listeners run on the publishing goroutine, in unspecified order. A
// panicking listener is recovered and logged; remaining listeners still
// run.
func (p *Publisher[E]) Publish(e E) {
	p.mu.Lock()
	fns := make([]func(E), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		p.dispatch(fn, e)
	}
}

// Len returns the number of registered listeners.
func (p *Publisher[E]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *Publisher[E]) dispatch(fn func(E), e E) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("notify: listener panicked", "panic", r)
		}
	}()
	fn(e)
}
