package seqcache

// Executor runs background batch loads off the calling goroutine. It models
// a shared task pool: Submit must not block on the task itself.
type Executor interface {
	Submit(task func())
}

// GoExecutor runs each task on its own goroutine. This is the default.
type GoExecutor struct{}

func (GoExecutor) Submit(task func()) {
	go task()
}

// SyncExecutor runs each task inline on the submitting goroutine. It makes
// the prefetch state machine deterministic for tests.
type SyncExecutor struct{}

func (SyncExecutor) Submit(task func()) {
	task()
}
