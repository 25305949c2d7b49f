// Package taskmutex provides TaskMutex, a reader/writer mutex where threads
// contending for the lock donate their otherwise-idle wait time to work
// spawned by the writer, instead of blocking idly.
//
// It is intended for expensive, one-shot lazy initialization of a shared
// resource inside a workload that is already saturating a fork/join task
// runtime (see package taskrt), where a conventional blocking lock would
// waste a worker that could instead help build the very value it is waiting
// on.
//
// Basic usage, writer-only:
//
//	var initialised bool
//	var mutex taskmutex.TaskMutex
//
//	lock := taskmutex.NewScopedLock(&mutex, true, true)
//	defer lock.Release()
//	if !initialised {
//		lock.Execute(func(s taskmutex.Spawner) error {
//			return performExpensiveInitialisation(s)
//		})
//		initialised = true
//	}
//	// Use the resource here, while the lock is still held.
//
// Improved performance via reader locks, optimistically assuming the
// resource is already initialized:
//
//	lock := taskmutex.NewScopedLock(&mutex, false, true)
//	defer lock.Release()
//	if !initialised {
//		// Upgrade to a writer lock so we can initialize the resource.
//		lock.UpgradeToWriter()
//		if !initialised { // may not be the first to get the write lock
//			lock.Execute(func(s taskmutex.Spawner) error {
//				return performExpensiveInitialisation(s)
//			})
//			initialised = true
//		}
//	}
//	// Use the resource here, while the lock is still held.
package taskmutex

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is this module's globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.InfoLevel)
