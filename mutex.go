package taskmutex

import (
	"sync"

	"go.dedis.ch/taskmutex/internal/rwmutex"
)

// TaskMutex is a reader/writer mutex where a goroutine that can't immediately
// acquire the lock donates its wait to whatever work the current writer has
// spawned into its ExecutionState, instead of blocking idly.
//
// The zero value for a TaskMutex is an unlocked mutex, ready for use.
//
// A TaskMutex must not be copied after first use, and must not be used via
// more than one ScopedLock concurrently without going through Acquire,
// TryAcquire or AcquireOr on each.
type TaskMutex struct {
	// lock is the reader/writer lock protecting the caller's guarded
	// resource: the internal reader/writer lock L of SPEC_FULL.md.
	lock rwmutex.RWMutex

	// msx guards state, and only state: an exclusive mutex independent of
	// lock, so that a contending goroutine can inspect state even while
	// lock is held for writing.
	msx sync.Mutex

	// state is non-nil only while a writer is inside Execute.
	state *executionState
}

// New returns a ready-to-use TaskMutex. It is equivalent to the zero value;
// New exists for symmetry with taskrt.New and for call sites that prefer an
// explicit constructor.
func New() *TaskMutex {
	return &TaskMutex{}
}
