package taskrt

import (
	"go.dedis.ch/taskmutex/internal/gid"
	"go.dedis.ch/taskmutex/internal/spinlock"
)

// arenaObserver tracks which goroutines are currently inside the arena it is
// bound to. Its critical sections run from inside Arena.Execute's entry/exit
// notifications, so Mo is a spinlock rather than a blocking mutex.
type arenaObserver struct {
	mo          spinlock.Mutex
	ids         map[int64]struct{}
	unsubscribe func()
}

func newObserver(a *arena) *arenaObserver {
	o := &arenaObserver{ids: make(map[int64]struct{})}

	o.unsubscribe = a.subscribe(func(enter bool) {
		id := gid.Current()

		o.mo.Lock()
		if enter {
			o.ids[id] = struct{}{}
		} else {
			delete(o.ids, id)
		}
		o.mo.Unlock()
	})

	return o
}

// ContainsSelf reports whether the calling goroutine is currently inside the
// bound arena.
func (o *arenaObserver) ContainsSelf() bool {
	id := gid.Current()

	o.mo.Lock()
	_, ok := o.ids[id]
	o.mo.Unlock()

	return ok
}

// Close stops observing the bound arena. It does not clear the current
// membership set: a goroutine already inside the arena when Close is called
// is still removed when it leaves, but entries after Close are not recorded.
func (o *arenaObserver) Close() error {
	o.unsubscribe()
	return nil
}
