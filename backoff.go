package taskmutex

import (
	"math/rand"
	"runtime"
	"time"
)

// backoff implements the bounded exponential backoff spec.md §4.1 requires
// of Acquire's retry loop when no donation was available. It starts by
// yielding the goroutine a few times, cheaper than sleeping for a lock that
// is likely to free up almost immediately, then escalates to short,
// jittered sleeps. The base sleep starts at backoffMin and doubles up to
// backoffMax; each actual sleep lies between half and one and a half times
// the base.
type backoff struct {
	spins int
	sleep time.Duration
}

const (
	backoffSpins = 4
	backoffMin   = 50 * time.Microsecond
	backoffMax   = 4 * time.Millisecond
)

func (b *backoff) pause() {
	if b.spins < backoffSpins {
		b.spins++
		runtime.Gosched()
		return
	}

	if b.sleep == 0 {
		b.sleep = backoffMin
	}

	jittered := b.sleep/2 + time.Duration(rand.Int63n(int64(b.sleep)))
	time.Sleep(jittered)

	b.sleep *= 2
	if b.sleep > backoffMax {
		b.sleep = backoffMax
	}
}
