// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// Adapted to add TryLock/TryRLock/UpgradeToWriter, the exact surface
// TaskMutex's internal reader/writer lock needs (try_acquire, release,
// upgrade_to_writer).

// Package rwmutex provides RWMutex, a reader/writer mutex that supports
// non-blocking try-acquire in either mode and in-place upgrade from a read
// lock to a write lock.
package rwmutex

import "sync"

// RWMutex is a reader/writer mutual exclusion lock that can be upgraded from
// a read lock to a write lock.
//
// The lock is held by an arbitrary number of readers or a single writer. The
// zero value for an RWMutex is an unlocked mutex.
//
// An RWMutex must not be copied after first use.
//
// Unlike sync.RWMutex, a single reader is permitted to call UpgradeToWriter
// to convert its read lock into a write lock. If it is the only active
// reader when it calls UpgradeToWriter, the conversion happens in place and
// the read lock is never actually released — UpgradeToWriter returns true.
// If another reader races it to UpgradeToWriter first, the loser instead
// releases its read lock and blocks on the normal Lock path — UpgradeToWriter
// returns false, and the caller has momentarily held neither lock.
type RWMutex struct {
	mu        sync.Mutex
	cond      sync.Cond
	condOnce  sync.Once
	readers   int
	writer    bool
	upgrading bool
}

func (rw *RWMutex) rendezvous() *sync.Cond {
	rw.condOnce.Do(func() { rw.cond.L = &rw.mu })
	return &rw.cond
}

// RLock locks rw for reading.
func (rw *RWMutex) RLock() {
	cond := rw.rendezvous()
	rw.mu.Lock()
	for rw.writer || rw.upgrading {
		cond.Wait()
	}
	rw.readers++
	rw.mu.Unlock()
}

// TryRLock tries to lock rw for reading and reports whether it succeeded.
func (rw *RWMutex) TryRLock() bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.writer || rw.upgrading {
		return false
	}
	rw.readers++
	return true
}

// RUnlock undoes a single RLock call. It is a run-time error if rw is not
// locked for reading on entry to RUnlock.
func (rw *RWMutex) RUnlock() {
	cond := rw.rendezvous()
	rw.mu.Lock()
	if rw.readers == 0 {
		rw.mu.Unlock()
		panic("taskmutex: RUnlock of unlocked RWMutex")
	}
	rw.readers--
	rw.mu.Unlock()
	cond.Broadcast()
}

// Lock locks rw for writing. If the lock is already held for reading or
// writing, or an upgrade is in progress, Lock blocks until the lock is
// available.
func (rw *RWMutex) Lock() {
	cond := rw.rendezvous()
	rw.mu.Lock()
	for rw.writer || rw.readers > 0 || rw.upgrading {
		cond.Wait()
	}
	rw.writer = true
	rw.mu.Unlock()
}

// TryLock tries to lock rw for writing and reports whether it succeeded.
func (rw *RWMutex) TryLock() bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.writer || rw.readers > 0 || rw.upgrading {
		return false
	}
	rw.writer = true
	return true
}

// TryAcquire tries to lock rw in the requested mode and reports whether it
// succeeded. It is equivalent to calling TryLock or TryRLock based on write.
func (rw *RWMutex) TryAcquire(write bool) bool {
	if write {
		return rw.TryLock()
	}
	return rw.TryRLock()
}

// Unlock unlocks rw for writing. It is a run-time error if rw is not locked
// for writing on entry to Unlock.
func (rw *RWMutex) Unlock() {
	cond := rw.rendezvous()
	rw.mu.Lock()
	if !rw.writer {
		rw.mu.Unlock()
		panic("taskmutex: Unlock of unlocked RWMutex")
	}
	rw.writer = false
	rw.mu.Unlock()
	cond.Broadcast()
}

// Release releases rw, whichever mode it is currently held in. It is a
// convenience used by code that doesn't statically know the mode, mirroring
// a TBB scoped_lock's release().
func (rw *RWMutex) Release(write bool) {
	if write {
		rw.Unlock()
	} else {
		rw.RUnlock()
	}
}

// UpgradeToWriter upgrades the calling goroutine's previously-acquired read
// lock to a write lock. Returns true if the upgrade was achieved without
// ever releasing read access — which can happen only if no other reader is
// also attempting to upgrade — and false otherwise. In both cases, rw is
// held for writing once UpgradeToWriter returns.
//
// It is a run-time error to call UpgradeToWriter without already holding rw
// for reading.
func (rw *RWMutex) UpgradeToWriter() bool {
	cond := rw.rendezvous()
	rw.mu.Lock()

	if rw.readers == 0 {
		rw.mu.Unlock()
		panic("taskmutex: UpgradeToWriter without a read lock")
	}

	if rw.upgrading {
		// Another reader got here first this round. Give up our own read
		// lock and fall back to the ordinary blocking write acquisition.
		rw.readers--
		rw.mu.Unlock()
		cond.Broadcast()
		rw.Lock()
		return false
	}

	rw.upgrading = true
	for rw.readers > 1 {
		cond.Wait()
	}
	// We are now the sole reader; no new readers or upgraders can have
	// joined, since both RLock and UpgradeToWriter block while upgrading.
	rw.readers = 0
	rw.writer = true
	rw.upgrading = false
	rw.mu.Unlock()
	return true
}

// RLocker returns a Locker interface that implements the Lock and Unlock
// methods by calling rw.RLock and rw.RUnlock.
func (rw *RWMutex) RLocker() sync.Locker {
	return (*rlocker)(rw)
}

type rlocker RWMutex

func (r *rlocker) Lock()   { (*RWMutex)(r).RLock() }
func (r *rlocker) Unlock() { (*RWMutex)(r).RUnlock() }
