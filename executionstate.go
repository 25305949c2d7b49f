package taskmutex

import "go.dedis.ch/taskmutex/taskrt"

// executionState is the transient bundle a writer publishes while it holds
// TaskMutex for writing and is running Execute: a task arena, the task group
// running in it, and an Observer bound to that arena.
//
// A TaskMutex holds at most one executionState at a time, and only while a
// writer is inside Execute. ScopedLock.AcquireOr captures a reference to it
// under Msx before releasing Msx, so a donor keeps it alive for as long as it
// takes to drain the group even if the writer clears the mutex's reference to
// it in the meantime.
type executionState struct {
	arena    taskrt.Arena
	group    taskrt.TaskGroup
	observer taskrt.Observer
}

func newExecutionState() *executionState {
	arena, group, observer := taskrt.New()
	return &executionState{arena: arena, group: group, observer: observer}
}

func (e *executionState) close() {
	// Close only unsubscribes the observer from future entry/exit
	// notifications; it does not error, and there is nothing left to do
	// once Execute's own arena.Execute call has already returned.
	_ = e.observer.Close()
}
