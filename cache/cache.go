// Package cache provides Cache, a compute-once-per-key cache built directly
// on top of taskmutex's optimistic-read-then-upgrade usage pattern: looking
// up a key that is already computed never blocks behind a writer, and a
// goroutine that loses the race to compute a missing key donates its wait to
// the goroutine that's already computing it.
package cache

import (
	"github.com/rs/xid"
	"golang.org/x/xerrors"

	"go.dedis.ch/taskmutex"
	"go.dedis.ch/taskmutex/internal/debugsync"
)

// ComputeFunc produces the value for a cache miss. It is handed a Spawner so
// an expensive computation can fan out subtasks that donating goroutines
// will help drain, exactly like a ScopedLock.Execute closure would.
//
// A ComputeFunc may itself call Get on the same Cache, including on the same
// key it is currently computing, from a goroutine donating to its own
// Execute — that call is granted a recursive lock instead of deadlocking.
type ComputeFunc func(s taskmutex.Spawner) ([]byte, error)

type entry struct {
	id          string
	mutex       taskmutex.TaskMutex
	initialised bool
	value       []byte
	err         error
}

// Cache is a compute-once-per-key cache. The zero value is not usable; build
// one with New.
type Cache struct {
	index debugsync.Mutex
	byKey map[string]*entry
	store *Store
}

// New returns an empty Cache. If store is non-nil, it is consulted before
// running a ComputeFunc and updated after a successful compute, so a value
// computed in a previous process is never recomputed.
func New(store *Store) *Cache {
	return &Cache{
		byKey: make(map[string]*entry),
		store: store,
	}
}

func (c *Cache) entryFor(key string) *entry {
	c.index.Lock()
	defer c.index.Unlock()

	e, ok := c.byKey[key]
	if !ok {
		e = &entry{id: xid.New().String()}
		c.byKey[key] = e
	}
	return e
}

// Get returns the value for key, computing it with compute on a miss.
//
// The lookup is optimistic: Get first takes a reader lock and returns
// immediately if the entry is already initialised. Only on a miss does it
// upgrade to a writer lock and call compute — and since UpgradeToWriter can
// lose a race to another reader, Get re-checks initialised after upgrading
// before calling compute, so compute never runs twice for the same key.
func (c *Cache) Get(key string, compute ComputeFunc) ([]byte, error) {
	e := c.entryFor(key)

	var lock taskmutex.ScopedLock
	lock.Acquire(&e.mutex, false, true)
	defer lock.Release()

	if e.initialised {
		promHits.Inc()
		return e.value, e.err
	}

	lock.UpgradeToWriter()

	if e.initialised {
		promHits.Inc()
		return e.value, e.err
	}

	promMisses.Inc()

	if c.store != nil {
		if cached, ok, err := c.store.Get(key); err != nil {
			taskmutex.Logger.Debug().Err(err).Str("key", key).Msg("cache store lookup failed")
		} else if ok {
			e.value, e.err, e.initialised = cached, nil, true
			return e.value, e.err
		}
	}

	taskmutex.Logger.Debug().Str("key", key).Str("entry", e.id).Msg("computing cache entry")

	stopTimer := startComputeTimer()
	err := lock.Execute(func(s taskmutex.Spawner) error {
		value, cerr := compute(s)
		e.value = value
		if cerr != nil {
			e.err = xerrors.Errorf("computing cache entry '%s': %w", key, cerr)
		}
		return cerr
	})
	stopTimer()
	e.initialised = true

	if err != nil {
		promComputeErrors.Inc()
		return e.value, e.err
	}

	if c.store != nil {
		if serr := c.store.Set(key, e.value); serr != nil {
			taskmutex.Logger.Debug().Err(serr).Str("key", key).Msg("cache store persist failed")
		}
	}

	return e.value, nil
}

// Delete drops key so the next Get recomputes it.
func (c *Cache) Delete(key string) {
	c.index.Lock()
	delete(c.byKey, key)
	c.index.Unlock()
}

// Len returns the number of keys currently tracked, initialised or not.
func (c *Cache) Len() int {
	c.index.Lock()
	defer c.index.Unlock()
	return len(c.byKey)
}
