package sink

import (
	"context"
	"sync"

	"github.com/hazyhaar/vlypick/picker/message"
)

// Awaiter hands selections to callers blocked in Next. Selections posted
// while nobody waits are dropped; there is no history.
type Awaiter struct {
	mu      sync.Mutex
	waiters []chan message.Selection
	closed  bool
}

// NewAwaiter creates an Awaiter.
func NewAwaiter() *Awaiter { return &Awaiter{} }

// Next blocks until the next selection is posted, ctx ends or the awaiter
// is closed.
func (a *Awaiter) Next(ctx context.Context) (message.Selection, error) {
	ch := make(chan message.Selection, 1)
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return message.Selection{}, ErrClosed
	}
	a.waiters = append(a.waiters, ch)
	a.mu.Unlock()

	select {
	case sel, ok := <-ch:
		if !ok {
			return message.Selection{}, ErrClosed
		}
		return sel, nil
	case <-ctx.Done():
		a.remove(ch)
		return message.Selection{}, ctx.Err()
	}
}

// Waiting returns the number of blocked callers.
func (a *Awaiter) Waiting() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.waiters)
}

func (a *Awaiter) remove(ch chan message.Selection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, w := range a.waiters {
		if w == ch {
			a.waiters = append(a.waiters[:i], a.waiters[i+1:]...)
			return
		}
	}
}

func (a *Awaiter) Post(_ context.Context, sel message.Selection) error {
	a.mu.Lock()
	waiters := a.waiters
	a.waiters = nil
	a.mu.Unlock()
	for _, w := range waiters {
		w <- sel
	}
	return nil
}

func (a *Awaiter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	for _, w := range a.waiters {
		close(w)
	}
	a.waiters = nil
	return nil
}
