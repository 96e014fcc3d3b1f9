package await

// A Runtime owns the per-thread state of the scheduler: the master context,
// the currently running coroutine, the worker pool, and the Scheduler used to
// defer actions back to the master context.
//
// Construct a Runtime on the goroutine that will drive the run loop; every
// Coro and Awaitable it creates is pinned to that goroutine. Runtimes are not
// thread safe — parallelism is achieved by running independent Runtimes on
// separate threads.
type Runtime struct {
	sched   Scheduler
	master  *Coro
	current *Coro
	pool    workerPool
}

// NewRuntime initializes the per-thread runtime state. A nil scheduler
// defaults to Immediate; pass a run-loop adapter (e.g. a looper) for any use
// beyond inline completion plumbing.
func NewRuntime(sched Scheduler) *Runtime {
	if sched == nil {
		sched = Immediate{}
	}
	rt := &Runtime{sched: sched}
	rt.master = &Coro{
		rt:     rt,
		tag:    "master",
		state:  coroLive,
		resume: make(chan transfer),
	}
	rt.master.parent = rt.master
	rt.current = rt.master
	return rt
}

// MasterCoro returns the master context: the initial execution context of the
// owning thread, which drives the run loop.
func (rt *Runtime) MasterCoro() *Coro { return rt.master }

// CurrentCoro returns the context that is currently executing.
func (rt *Runtime) CurrentCoro() *Coro { return rt.current }

// Scheduler returns the runtime's scheduler capability.
func (rt *Runtime) Scheduler() Scheduler { return rt.sched }
