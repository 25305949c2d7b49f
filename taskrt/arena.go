package taskrt

import "sync"

// arena is Arena's only implementation. It keeps a list of subscriber
// callbacks, notified on every entry and exit, in the order they were
// registered for entry and the reverse order for exit.
type arena struct {
	mu   sync.Mutex
	subs []func(enter bool)
}

func newArena() *arena {
	return &arena{}
}

// subscribe registers fn to be called with true on every Execute entry and
// false on every matching exit, and returns a function that unregisters it.
func (a *arena) subscribe(fn func(enter bool)) func() {
	a.mu.Lock()
	idx := len(a.subs)
	a.subs = append(a.subs, fn)
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		a.subs[idx] = nil
		a.mu.Unlock()
	}
}

func (a *arena) Execute(f func()) {
	a.mu.Lock()
	subs := make([]func(bool), len(a.subs))
	copy(subs, a.subs)
	a.mu.Unlock()

	for _, sub := range subs {
		if sub != nil {
			sub(true)
		}
	}
	defer func() {
		for i := len(subs) - 1; i >= 0; i-- {
			if subs[i] != nil {
				subs[i](false)
			}
		}
	}()

	f()
}
