// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwmutex

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRWMutex_TryAcquire(t *testing.T) {
	var m RWMutex

	m.Lock()
	require.False(t, m.TryLock())
	require.False(t, m.TryRLock())
	m.Unlock()

	require.True(t, m.TryLock())
	m.Unlock()

	require.True(t, m.TryRLock())
	require.True(t, m.TryRLock())
	require.False(t, m.TryLock())
	m.RUnlock()
	m.RUnlock()
}

func TestRWMutex_ParallelReaders(t *testing.T) {
	var m RWMutex
	const n = 8

	clocked := make(chan bool)
	cunlock := make(chan bool)
	cdone := make(chan bool)

	for i := 0; i < n; i++ {
		go func() {
			m.RLock()
			clocked <- true
			<-cunlock
			m.RUnlock()
			cdone <- true
		}()
	}
	for i := 0; i < n; i++ {
		<-clocked
	}
	for i := 0; i < n; i++ {
		cunlock <- true
	}
	for i := 0; i < n; i++ {
		<-cdone
	}
}

func reader(rw *RWMutex, iterations int, activity *int32, cdone chan bool) {
	for i := 0; i < iterations; i++ {
		rw.RLock()
		n := atomic.AddInt32(activity, 1)
		if n < 1 || n >= 10000 {
			rw.RUnlock()
			panic(fmt.Sprintf("rlock(%d)", n))
		}
		atomic.AddInt32(activity, -1)
		rw.RUnlock()
	}
	cdone <- true
}

func writer(rw *RWMutex, iterations int, activity *int32, cdone chan bool) {
	for i := 0; i < iterations; i++ {
		rw.Lock()
		n := atomic.AddInt32(activity, 10000)
		if n != 10000 {
			rw.Unlock()
			panic(fmt.Sprintf("wlock(%d)", n))
		}
		atomic.AddInt32(activity, -10000)
		rw.Unlock()
	}
	cdone <- true
}

func TestRWMutex_Hammer(t *testing.T) {
	var activity int32
	var rw RWMutex
	const readers, iterations = 10, 1000

	cdone := make(chan bool)
	go writer(&rw, iterations, &activity, cdone)
	for i := 0; i < readers; i++ {
		go reader(&rw, iterations, &activity, cdone)
	}
	go writer(&rw, iterations, &activity, cdone)

	for i := 0; i < 2+readers; i++ {
		<-cdone
	}
}

// TestRWMutex_UpgradeRace exercises spec.md's S5: two goroutines each take a
// read lock and both call UpgradeToWriter. Exactly one must get the in-place
// upgrade, the other must fall back to a full reacquire, and both must end
// up holding the write lock at some point, applying their update.
func TestRWMutex_UpgradeRace(t *testing.T) {
	var rw RWMutex
	var data int
	var trueCount, falseCount int32

	rw.RLock()
	rw.RLock()

	var wg sync.WaitGroup
	wg.Add(2)

	upgrade := func(delta int) {
		defer wg.Done()

		ok := rw.UpgradeToWriter()
		if ok {
			atomic.AddInt32(&trueCount, 1)
		} else {
			atomic.AddInt32(&falseCount, 1)
		}
		data += delta
		rw.Unlock()
	}

	go upgrade(1)
	go upgrade(10)

	wg.Wait()

	require.Equal(t, int32(1), trueCount)
	require.Equal(t, int32(1), falseCount)
	require.Equal(t, 11, data)

	require.True(t, rw.TryLock())
	rw.Unlock()
}

func TestRWMutex_RUnlockOfUnlockedPanics(t *testing.T) {
	var rw RWMutex
	require.Panics(t, rw.RUnlock)
}

func TestRWMutex_UnlockOfUnlockedPanics(t *testing.T) {
	var rw RWMutex
	require.Panics(t, rw.Unlock)
}

func TestRWMutex_UpgradeWithoutReadLockPanics(t *testing.T) {
	var rw RWMutex
	require.Panics(t, func() { rw.UpgradeToWriter() })
}

func TestRWMutex_RLocker(t *testing.T) {
	var rw RWMutex
	locker := rw.RLocker()

	done := make(chan struct{})
	go func() {
		locker.Lock()
		time.Sleep(time.Millisecond)
		locker.Unlock()
		close(done)
	}()
	<-done

	require.True(t, rw.TryLock())
	rw.Unlock()
}
