package taskmutex

import "golang.org/x/xerrors"

// Contract violations are programmer errors, not conditions a caller can
// recover from: a double acquire, an upgrade without a read lock, or an
// Execute without a write lock all mean the calling code is wrong, not that
// the mutex encountered a transient fault. All of them panic, the same
// choice `core/execution/native` makes for its own registration conflicts,
// rather than returning an error a caller might be tempted to ignore.

func panicAlreadyHeld() {
	panic(xerrors.New("taskmutex: ScopedLock already holds a lock"))
}

func panicExecuteWithoutWriter() {
	panic(xerrors.New("taskmutex: Execute called without a writer lock"))
}

func panicExecuteRecursive() {
	panic(xerrors.New("taskmutex: Execute called on a recursive lock"))
}

func panicExecuteReentrant() {
	panic(xerrors.New("taskmutex: Execute called while already executing on this ScopedLock"))
}

func panicUpgradeNotReader() {
	panic(xerrors.New("taskmutex: UpgradeToWriter called without a reader lock"))
}

func panicUpgradeRecursive() {
	panic(xerrors.New("taskmutex: UpgradeToWriter called on a recursive lock"))
}

func panicReleaseIdle() {
	panic(xerrors.New("taskmutex: Release called on an idle ScopedLock"))
}
