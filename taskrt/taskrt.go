// Package taskrt is the fork/join task runtime TaskMutex donates into.
//
// It is deliberately minimal: an Arena is an isolated execution context whose
// entries and exits can be observed, a TaskGroup is a queue of work any
// goroutine present in the arena can help drain, and an Observer answers
// whether the calling goroutine is currently inside a given arena. There is
// no separate worker pool — whichever goroutine calls Arena.Execute runs the
// queued work itself, on its own stack, exactly like the threads TaskMutex
// was designed to donate.
package taskrt

import "io"

// Arena is an isolated execution context. Execute runs f with the calling
// goroutine logically joined to the arena for the duration of the call, so
// that Observers bound to the arena see it as "inside" while f runs.
type Arena interface {
	Execute(f func())
}

// TaskGroup collects work spawned by one goroutine (the owner) to be drained
// by any number of others (donors) as well as the owner itself.
type TaskGroup interface {
	// Spawn enqueues f. It does not block and does not run f itself.
	Spawn(f func() error)

	// WaitAll drains the group, running queued tasks on the calling
	// goroutine alongside any other drainer, until none remain and every
	// already-started task has finished. It is the owner-side call: it
	// returns the first error or re-raises the first panic any spawned
	// task produced. Call it at most once per group.
	WaitAll() error

	// Drain is WaitAll's donor-side counterpart. It drains exactly like
	// WaitAll but swallows any task failure — a donor must never observe
	// or propagate the owner's error, only help produce it.
	Drain()
}

// Observer answers whether the calling goroutine is currently inside the
// arena it was bound to at construction. It stops observing when closed.
type Observer interface {
	io.Closer
	// ContainsSelf reports whether the calling goroutine is currently
	// inside the bound arena.
	ContainsSelf() bool
}

// New constructs a freshly wired Arena, TaskGroup and Observer: the Observer
// is already bound to the Arena, and the TaskGroup is ready for Spawn.
func New() (Arena, TaskGroup, Observer) {
	a := newArena()
	g := newTaskGroup()
	o := newObserver(a)
	return a, g, o
}
