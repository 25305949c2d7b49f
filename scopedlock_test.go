package taskmutex

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireOr_DoubleAcquirePanics(t *testing.T) {
	var mutex TaskMutex
	var lock ScopedLock
	lock.Acquire(&mutex, true, true)
	defer lock.Release()

	require.Panics(t, func() {
		lock.Acquire(&mutex, true, true)
	})
}

func TestTryAcquire_NoDonationWhenIdle(t *testing.T) {
	var mutex TaskMutex

	var holder ScopedLock
	holder.Acquire(&mutex, true, true)

	var other ScopedLock
	require.False(t, other.TryAcquire(&mutex, true))
	require.False(t, other.TryAcquire(&mutex, false))

	holder.Release()

	require.True(t, other.TryAcquire(&mutex, true))
	other.Release()
}

// TestExecute_DonorRecursion is spec.md S4: a donor draining the writer's
// task group recursively locks the same mutex from inside a task it pulled
// off that group, and must get a recursive, shared-mode grant instead of
// deadlocking; the outer Execute must still complete normally.
//
// To exercise a real donor rather than the writer's own goroutine, a second
// ScopedLock starts trying to acquire before Execute even begins, so it is
// already blocked inside the arena, helping drain, by the time the writer's
// closure spawns the recursive subtask.
func TestExecute_DonorRecursion(t *testing.T) {
	var mutex TaskMutex
	var writerLock ScopedLock
	writerLock.Acquire(&mutex, true, true)

	var donorWg sync.WaitGroup
	donorWg.Add(1)
	go func() {
		defer donorWg.Done()
		var donorLock ScopedLock
		donorLock.Acquire(&mutex, false, true)
		donorLock.Release()
	}()

	var recursiveOK, recursiveGranted bool
	err := writerLock.Execute(func(s Spawner) error {
		s.Spawn(func() error {
			var inner ScopedLock
			recursiveOK = inner.TryAcquire(&mutex, false)
			recursiveGranted = recursiveOK && inner.Recursive()
			if recursiveOK {
				inner.Release()
			}
			return nil
		})
		// Hold the writer's own goroutine here so it cannot race the
		// donor for the subtask above; only the donor, already
		// blocked inside the arena from the Acquire call above, is
		// free to pick it up.
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	writerLock.Release()
	donorWg.Wait()

	require.NoError(t, err)
	require.True(t, recursiveOK)
	require.True(t, recursiveGranted)
}

// TestExecute_ErrorIsolatedToWriter is spec.md S6: an error raised inside
// Execute reaches only the writer; the mutex behaves like a fresh
// reader/writer lock afterward.
func TestExecute_ErrorIsolatedToWriter(t *testing.T) {
	var mutex TaskMutex
	var lock ScopedLock
	lock.Acquire(&mutex, true, true)

	wantErr := errors.New("initialization failed")
	err := lock.Execute(func(Spawner) error {
		return wantErr
	})
	lock.Release()

	require.Equal(t, wantErr, err)

	var fresh ScopedLock
	require.True(t, fresh.TryAcquire(&mutex, true))
	fresh.Release()
}

func TestExecute_WithoutWriterPanics(t *testing.T) {
	var mutex TaskMutex
	var lock ScopedLock
	lock.Acquire(&mutex, false, true)
	defer lock.Release()

	require.Panics(t, func() {
		_ = lock.Execute(func(Spawner) error { return nil })
	})
}

func TestUpgradeToWriter_WithoutReaderPanics(t *testing.T) {
	var mutex TaskMutex
	var lock ScopedLock
	lock.Acquire(&mutex, true, true)
	defer lock.Release()

	require.Panics(t, func() {
		lock.UpgradeToWriter()
	})
}

func TestRelease_IdlePanics(t *testing.T) {
	var lock ScopedLock
	require.Panics(t, lock.Release)
}

// TestExecute_PanicStillClearsState is the panic analogue of S6: a panicking
// closure must still leave the mutex's ExecutionState cleared.
func TestExecute_PanicStillClearsState(t *testing.T) {
	var mutex TaskMutex
	var lock ScopedLock
	lock.Acquire(&mutex, true, true)

	require.Panics(t, func() {
		_ = lock.Execute(func(Spawner) error { panic("boom") })
	})
	lock.Release()

	var fresh ScopedLock
	require.True(t, fresh.TryAcquire(&mutex, true))
	fresh.Release()
}
