package await

import (
	"fmt"
)

// State enumerates the life cycle of an Awaitable. Transitions are monotonic:
// Initial -> Running -> Completed or Failed; a terminal state never changes.
type State int8

const (
	StateInitial State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "invalid"
}

// AsyncFunc is the coroutine body signature required by StartAsync. The body
// receives the Awaitable managing it; returning nil completes the Awaitable,
// returning an error fails it.
type AsyncFunc func(self *Awaitable) error

// An Awaitable wraps an operation that is expected to finish at some time in
// the future: a coroutine started with StartAsync, or an external source
// driven through a Completer.
//
// The Awaitable owns its operation. Closing it while the operation is still
// pending interrupts the operation: a bound coroutine is force-unwound and
// every outstanding Completer expires.
//
// Not thread safe; an Awaitable belongs to the Runtime that created it.
type Awaitable struct {
	rt    *Runtime
	tag   string
	state State
	err   error

	// bound is the coroutine whose termination drives this Awaitable, when
	// created by StartAsync; nil for external-driven Awaitables.
	bound *Coro

	// awaiting is the coroutine currently suspended in Await on this
	// Awaitable. At most one coroutine may await at a time.
	awaiting *Coro

	tookCompleter bool

	// cell is the shared indirection that outstanding Completers point at.
	// Close nils the back-pointer, expiring every Completer at once.
	cell *completerCell

	// done handlers run after the state turns terminal and before the
	// awaiting coroutine resumes.
	done []func(*Awaitable)

	closed bool
}

// completerCell breaks the Awaitable <-> Completer ownership cycle: the
// Awaitable owns the cell, Completers hold it weakly through the back-pointer.
type completerCell struct {
	a *Awaitable
}

// NewAwaitable creates an external-driven Awaitable in the Initial state. It
// is finished from the outside through the Completer returned by
// TakeCompleter.
func (rt *Runtime) NewAwaitable(tag string) *Awaitable {
	a := &Awaitable{rt: rt, tag: tag, state: StateInitial}
	a.cell = &completerCell{a: a}
	return a
}

// StartAsync runs body as a coroutine bound to a fresh Awaitable.
//
// Called from the master context, the body runs immediately until its first
// suspension; if it finishes without suspending the returned Awaitable is
// already terminal. Called from inside a coroutine, the start is deferred:
// the first Await transfers control straight into the body, and otherwise the
// runtime's scheduler starts it from the master context.
//
// The body returning nil completes the Awaitable; an error return or a panic
// fails it. Closing the Awaitable mid-flight resumes the body with the forced
// unwind sentinel, which it must propagate.
func (rt *Runtime) StartAsync(tag string, body AsyncFunc) *Awaitable {
	if body == nil {
		panic("await: nil async body")
	}
	a := &Awaitable{rt: rt, tag: tag, state: StateRunning, tookCompleter: true}
	a.cell = &completerCell{a: a}

	logger.Debugf("await: starting awt %q", tag)

	co := rt.NewCoro(tag, func(any) error {
		return body(a)
	})
	co.onExit = func(err error) {
		// Redirect the final transfer at whoever is awaiting, then record
		// the terminal state while nobody is registered so settle does not
		// yield; the trampoline's own transfer resumes the awaiter after the
		// stack has fully unwound.
		if aw := a.awaiting; aw != nil {
			co.parent = aw
			a.awaiting = nil
		}
		a.settle(err)
	}
	a.bound = co

	if rt.current == rt.master {
		rt.switchTo(co, transfer{})
		return a
	}

	// Deferred start: hand the master context a start action. The action is
	// dropped if the coroutine was already entered through an Await prefetch
	// or the Awaitable died first.
	cell := a.cell
	rt.sched.Post(func() {
		target := cell.a
		if target == nil || target.bound == nil || target.bound.state != coroInert {
			return
		}
		if rt.current != rt.master {
			return
		}
		rt.switchTo(target.bound, transfer{})
	})
	return a
}

// Tag returns the identifier used for debugging.
func (a *Awaitable) Tag() string { return a.tag }

// SetTag changes the identifier used for debugging.
func (a *Awaitable) SetTag(tag string) { a.tag = tag }

// State returns the current state.
func (a *Awaitable) State() State { return a.state }

// IsDone reports whether the Awaitable completed or failed.
func (a *Awaitable) IsDone() bool { return a.state == StateCompleted || a.state == StateFailed }

// DidComplete reports whether the operation completed successfully.
func (a *Awaitable) DidComplete() bool { return a.state == StateCompleted }

// DidFail reports whether the operation failed.
func (a *Awaitable) DidFail() bool { return a.state == StateFailed }

// Err returns the failure, or nil unless the state is Failed. The value is
// stable: every call observes the same error.
func (a *Awaitable) Err() error {
	if a.state != StateFailed {
		return nil
	}
	return a.err
}

// OnDone registers fn to run once the Awaitable turns terminal. Handlers run
// after the terminal state is recorded and before any awaiting coroutine is
// resumed. A handler added to an already terminal Awaitable runs inline.
func (a *Awaitable) OnDone(fn func(*Awaitable)) {
	if fn == nil {
		return
	}
	if a.IsDone() {
		fn(a)
		return
	}
	a.done = append(a.done, fn)
}

// Await suspends the current coroutine until the Awaitable is done.
//
// On completion Await returns nil; on failure it returns the stored error,
// the same value on every call. If the Awaitable is bound to a coroutine that
// has not started yet, control transfers directly into it instead of going
// through the run loop.
//
// Await must be called from a coroutine; awaiting from the master context or
// from two coroutines at once is a contract violation and panics.
func (a *Awaitable) Await() error {
	rt := a.rt
	cur := rt.current
	if cur == rt.master {
		panic("await: Await called from the master context")
	}
	logger.Debugf("await: coro %q awaits %q", cur.tag, a.tag)

	// Unregister on the way out even when the suspension is torn down by a
	// forced unwind, so the Awaitable does not point at a dead awaiter.
	defer func() {
		if a.awaiting == cur {
			a.awaiting = nil
		}
	}()

	for {
		switch a.state {
		case StateCompleted:
			return nil
		case StateFailed:
			return a.err
		}

		if a.awaiting != nil {
			panic(fmt.Sprintf("await: awt %q is already awaited by coro %q", a.tag, a.awaiting.tag))
		}
		a.awaiting = cur

		if a.bound != nil && a.bound.state == coroInert {
			// Prefetch: we must suspend anyway, so enter the bound
			// coroutine directly instead of waiting for the run loop.
			rt.switchTo(a.bound, transfer{})
		} else {
			if a.state == StateInitial {
				a.state = StateRunning
			}
			rt.switchTo(rt.master, transfer{})
		}

		a.awaiting = nil
	}
}

// TakeCompleter hands out the unique Completer of an external-driven
// Awaitable. Calling it twice, or on a coroutine-driven Awaitable, is a
// contract violation and panics.
func (a *Awaitable) TakeCompleter() Completer {
	if a.bound != nil {
		panic(fmt.Sprintf("await: awt %q is coroutine-driven, its completer is taken", a.tag))
	}
	if a.tookCompleter {
		panic(fmt.Sprintf("await: completer of awt %q taken twice", a.tag))
	}
	a.tookCompleter = true
	return Completer{cell: a.cell}
}

// settle moves the Awaitable to a terminal state: nil err completes, non-nil
// fails. Terminal Awaitables are left untouched, which is how "first
// completer wins" is enforced. Done handlers run before the awaiting
// coroutine resumes; when an awaiter is registered, control returns to the
// caller only after the awaiter has suspended again.
func (a *Awaitable) settle(err error) {
	if a.IsDone() {
		return
	}
	rt := a.rt
	if a.awaiting != nil && rt.current != rt.master && rt.current != a.bound {
		panic(fmt.Sprintf("await: awt %q settled from foreign coro %q", a.tag, rt.current.tag))
	}

	if err != nil {
		logger.Debugf("await: fail awt %q: %v", a.tag, err)
		a.state = StateFailed
		a.err = err
	} else {
		logger.Debugf("await: complete awt %q", a.tag)
		a.state = StateCompleted
	}

	done := a.done
	a.done = nil
	for _, fn := range done {
		fn(a)
	}

	if aw := a.awaiting; aw != nil {
		rt.switchTo(aw, transfer{err: err})
	}
}

// Close releases the Awaitable and interrupts its operation if still pending:
// a live bound coroutine is force-unwound, an external-driven Awaitable is
// failed with ErrYieldForbidden, and every outstanding Completer expires.
// Closing an Awaitable that some coroutine is still awaiting leaks that
// coroutine and is reported as a contract violation. Close is idempotent.
func (a *Awaitable) Close() {
	if a.closed {
		return
	}
	a.closed = true

	logger.Debugf("await: destroy awt %q (%s)", a.tag, a.state)

	if !a.IsDone() {
		if a.awaiting != nil {
			// Closing from the awaiter's own stack happens while it unwinds
			// and is fine; anybody else closing an awaited Awaitable leaks
			// the suspended coroutine.
			if a.awaiting != a.rt.current {
				logger.Errorf("await: awt %q closed while awaited, coro %q is leaked", a.tag, a.awaiting.tag)
			}
			a.awaiting = nil
		}
		if a.bound != nil {
			a.rt.ForceUnwind(a.bound)
		} else {
			a.settle(ErrYieldForbidden)
		}
	}

	a.cell.a = nil
}
