package await

// A Scheduler defers zero-argument actions for later execution on the thread
// that owns the Runtime. The core depends on the run loop only through this
// capability.
type Scheduler interface {
	// Post queues action to run on the scheduler's thread. The action must
	// not be invoked before Post returns unless the scheduler is documented
	// to run inline.
	Post(action func())
}

// Immediate is a Scheduler that runs actions inline. It is suitable for
// completion plumbing in tests and simple programs; deferred coroutine starts
// require a real run loop and are skipped under Immediate until first
// awaited.
type Immediate struct{}

// Post runs action before returning.
func (Immediate) Post(action func()) { action() }
