package gid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrent_StableWithinGoroutine(t *testing.T) {
	first := Current()
	second := Current()
	require.Equal(t, first, second)
	require.NotZero(t, first)
}

func TestCurrent_DistinctAcrossGoroutines(t *testing.T) {
	const n = 32

	ids := make([]int64, n)
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ids[i] = Current()
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, id := range ids {
		require.False(t, seen[id], "goroutine id %d reused", id)
		seen[id] = true
	}
}

func TestParseGoroutineID(t *testing.T) {
	require.Equal(t, int64(42), parseGoroutineID([]byte("goroutine 42 [running]:\n")))
	require.Equal(t, int64(0), parseGoroutineID([]byte("not a stack dump")))
	require.Equal(t, int64(0), parseGoroutineID([]byte("goroutine")))
}
