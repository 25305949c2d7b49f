package taskmutex

import (
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"golang.org/x/xerrors"

	"go.dedis.ch/taskmutex/internal/tracing"
	"go.dedis.ch/taskmutex/taskrt"
)

// ScopedLock is a handle to a lock held on a TaskMutex. The zero value is
// idle and ready for Acquire, TryAcquire or AcquireOr.
//
// A ScopedLock must not be copied after it has acquired a lock; release it
// with Release before it goes out of scope, typically via defer.
type ScopedLock struct {
	mutex     *TaskMutex
	writer    bool
	recursive bool

	// executing guards against Execute being called re-entrantly on the
	// same ScopedLock value while a previous Execute call is still running.
	executing bool
}

// NewScopedLock returns a ScopedLock already holding mutex in the requested
// mode, blocking as Acquire does.
func NewScopedLock(mutex *TaskMutex, write, acceptWork bool) *ScopedLock {
	lock := &ScopedLock{}
	lock.Acquire(mutex, write, acceptWork)
	return lock
}

// IsWriter reports whether the lock is currently held for writing.
func (l *ScopedLock) IsWriter() bool {
	return l.mutex != nil && l.writer
}

// Recursive reports whether the lock was granted by donor recursion rather
// than the internal reader/writer lock.
func (l *ScopedLock) Recursive() bool {
	return l.recursive
}

// Acquire blocks until mutex is held in the requested mode. While blocked,
// if acceptWork is true and mutex currently has a published ExecutionState,
// the calling goroutine donates its wait to that state's task group instead
// of merely backing off.
func (l *ScopedLock) Acquire(mutex *TaskMutex, write, acceptWork bool) {
	var b backoff

	for !l.AcquireOr(mutex, write, func(bool) bool { return acceptWork }) {
		b.pause()
	}
}

// TryAcquire attempts to lock mutex once, without donating, and reports
// whether it succeeded. Donor recursion is still granted: a goroutine
// currently executing donated work for mutex's writer gets a recursive lock
// even from TryAcquire.
func (l *ScopedLock) TryAcquire(mutex *TaskMutex, write bool) bool {
	return l.AcquireOr(mutex, write, func(bool) bool { return false })
}

// AcquireOr is the primitive Acquire and TryAcquire are built from.
//
// It tries the internal lock once; failing that, it checks whether the
// caller is already a donor of the mutex's current writer and grants a
// recursive lock if so; failing that, it calls workNotifier with whether a
// writer is currently publishing work, and if workNotifier returns true and
// work is available, the caller donates its time by draining that writer's
// task group before returning false. workNotifier returning false, or no
// work being available, also returns false — the caller should back off and
// retry on its own.
//
// A recursive grant is always a shared-mode (reader) lock, whatever write
// asks for: a donor requesting write access is given recursive read access.
func (l *ScopedLock) AcquireOr(mutex *TaskMutex, write bool, workNotifier func(workAvailable bool) bool) bool {
	if l.mutex != nil {
		panicAlreadyHeld()
	}

	// Step 1: try the internal lock directly.
	if mutex.lock.TryAcquire(write) {
		l.mutex = mutex
		l.writer = write
		l.recursive = false
		return true
	}

	// Step 2: under Msx, check for donor recursion.
	mutex.msx.Lock()
	state := mutex.state
	if state != nil && state.observer.ContainsSelf() {
		mutex.msx.Unlock()

		l.mutex = mutex
		l.writer = false
		l.recursive = true
		promRecursiveGrants.Inc()
		return true
	}

	// Step 3: ask the caller whether it wants to donate, given whether
	// there is currently work to donate to.
	workAvailable := state != nil
	if !workNotifier(workAvailable) || !workAvailable {
		mutex.msx.Unlock()
		return false
	}

	// Step 4: copy the shared reference to state while still under Msx,
	// so it stays alive for as long as we're draining even if the writer
	// clears mutex.state in the meantime, then release Msx and donate.
	mutex.msx.Unlock()

	taskrt.DonationsJoined.Inc()
	state.arena.Execute(func() {
		state.group.Drain()
	})

	return false
}

// UpgradeToWriter upgrades a previously-acquired, non-recursive read lock to
// a write lock. It returns true if the upgrade happened without ever
// dropping read access, and false if the lock had to be released and
// reacquired — in which case the caller must re-check any invariant it
// relied on while it held only a read lock. Either way, the ScopedLock holds
// a write lock once UpgradeToWriter returns.
//
// UpgradeToWriter panics if the lock is idle, held for writing already, or
// was granted by donor recursion.
func (l *ScopedLock) UpgradeToWriter() bool {
	if l.mutex == nil || l.writer {
		panicUpgradeNotReader()
	}
	if l.recursive {
		panicUpgradeRecursive()
	}

	ok := l.mutex.lock.UpgradeToWriter()
	l.writer = true
	if !ok {
		promUpgradeRaces.Inc()
	}
	return ok
}

// Spawner lets a closure passed to Execute queue additional tasks into the
// same ExecutionState's task group, so they get drained alongside f by
// whichever goroutines are currently donating.
type Spawner interface {
	// Spawn enqueues task. It returns immediately; task runs later,
	// possibly on a different goroutine, before Execute returns.
	Spawn(task func() error)
}

// Execute publishes a fresh ExecutionState, spawns f into it, and blocks the
// calling goroutine until f and everything f spawns via its Spawner have
// drained — donating goroutines that call Acquire or AcquireOr concurrently
// help drain that same work instead of waiting idly.
//
// Execute panics if the lock is not held for writing, or is a recursive
// lock (donor recursion only ever grants a reader lock, so this can only
// happen from a programming error elsewhere in this package). It returns
// whatever error f returned, or re-raises f's panic, after the lock's
// invariants (E cleared, task group empty) have already been restored.
func (l *ScopedLock) Execute(f func(s Spawner) error) error {
	if l.mutex == nil || !l.writer {
		panicExecuteWithoutWriter()
	}
	if l.recursive {
		panicExecuteRecursive()
	}
	if l.executing {
		panicExecuteReentrant()
	}

	mutex := l.mutex

	mutex.msx.Lock()
	if mutex.state != nil {
		mutex.msx.Unlock()
		panic(xerrors.New("taskmutex: Execute called while an ExecutionState is already published"))
	}
	state := newExecutionState()
	mutex.state = state
	mutex.msx.Unlock()

	l.executing = true
	defer func() { l.executing = false }()

	// Clearing E and closing the observer must happen even if f panics or
	// WaitAll re-raises a spawned task's panic — donors draining on a
	// stale reference to state still see it finish, and the lock itself
	// must remain releasable by the caller's own deferred Release.
	defer func() {
		mutex.msx.Lock()
		mutex.state = nil
		mutex.msx.Unlock()

		state.close()
	}()

	var span opentracing.Span
	if tracer, terr := tracing.Tracer("taskmutex"); terr == nil {
		span = tracer.StartSpan("taskmutex.Execute")
		defer span.Finish()
	} else {
		Logger.Debug().Err(terr).Msg("tracer unavailable, Execute will not be traced")
	}

	started := time.Now()
	defer func() { promExecuteDuration.Observe(time.Since(started).Seconds()) }()

	var err error
	state.arena.Execute(func() {
		state.group.Spawn(func() error { return f(state.group) })
		err = state.group.WaitAll()
	})

	if err != nil && span != nil {
		span.SetTag("error", true)
		span.LogKV("event", "error", "message", err.Error())
	}

	return err
}

// Release releases the lock. If it was granted by donor recursion, the
// internal lock is untouched — recursion grants a logical lock backed by the
// writer's own exclusive hold, not a second acquisition of it. Release
// panics if the ScopedLock is idle.
func (l *ScopedLock) Release() {
	if l.mutex == nil {
		panicReleaseIdle()
	}

	if !l.recursive {
		l.mutex.lock.Release(l.writer)
	}

	l.mutex = nil
	l.writer = false
	l.recursive = false
}
