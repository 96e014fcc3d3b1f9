package await

import (
	"fmt"
)

// transfer is the payload carried across a context switch: either a plain
// value or an error to be raised on the resumed side. unwind marks the
// transfer that initiates forced unwinding of the target.
type transfer struct {
	value  any
	err    error
	unwind bool
}

type coroState int8

const (
	coroInert coroState = iota // created, not yet entered
	coroLive                   // entered, may be running or suspended
	coroDone                   // entry function returned or unwound
)

// A Coro is a suspendable execution context with its own stack, backed by a
// goroutine obtained from the runtime's worker pool. Control moves between
// Coros exclusively through symmetric transfer: the running side names the
// Coro to resume next and parks itself until somebody transfers back.
//
// Coros are created inert; the first transfer into one enters its entry
// function. When the entry function returns, control moves to the Coro's
// parent and the Coro is terminal.
type Coro struct {
	rt     *Runtime
	tag    string
	parent *Coro
	entry  func(value any) error
	resume chan transfer
	state  coroState

	// unwinding is set once the coroutine has been resumed with a forced
	// unwind; an entry function returning normally afterwards has swallowed
	// the sentinel.
	unwinding bool

	// onExit, if set, runs on the coroutine stack after the entry function
	// exits and before the final transfer to the parent. It may reassign
	// parent. Used by StartAsync to settle the bound Awaitable.
	onExit func(err error)
}

// NewCoro allocates an inert coroutine. The entry function runs on the first
// transfer into the Coro, receiving the transferred value; a non-nil error
// return is delivered to the parent context on its next resumption.
//
// The parent defaults to the master context and may be changed with
// SetParent before the coroutine finishes.
func (rt *Runtime) NewCoro(tag string, entry func(value any) error) *Coro {
	if entry == nil {
		panic("await: nil entry function")
	}
	return &Coro{
		rt:     rt,
		tag:    tag,
		parent: rt.master,
		entry:  entry,
		resume: make(chan transfer),
	}
}

// Tag returns the coroutine's debug identifier.
func (co *Coro) Tag() string { return co.tag }

// IsDone reports whether the entry function has returned or unwound.
func (co *Coro) IsDone() bool { return co.state == coroDone }

// Started reports whether the coroutine has been entered at least once.
func (co *Coro) Started() bool { return co.state != coroInert }

// SetParent changes the context that receives control when the entry function
// exits.
func (co *Coro) SetParent(parent *Coro) { co.parent = parent }

// YieldTo suspends the current context and resumes target with value. The
// call returns when some context transfers back here; the result is the value
// it passed. If the resumption carries an injected error, YieldTo panics with
// it.
func (rt *Runtime) YieldTo(target *Coro, value any) any {
	in := rt.switchTo(target, transfer{value: value})
	if in.err != nil {
		panic(in.err)
	}
	return in.value
}

// YieldExceptionTo is like YieldTo except that the target's resumption raises
// err instead of receiving a value.
func (rt *Runtime) YieldExceptionTo(target *Coro, err error) any {
	if err == nil {
		panic("await: YieldExceptionTo requires a non-nil error")
	}
	in := rt.switchTo(target, transfer{err: err})
	if in.err != nil {
		panic(in.err)
	}
	return in.value
}

// ForceUnwind cooperatively terminates a live coroutine: it is resumed with
// the unwind sentinel, runs its deferred cleanup, and control returns here
// once its stack is fully unwound. Inert and finished coroutines are simply
// marked done.
func (rt *Runtime) ForceUnwind(co *Coro) {
	switch co.state {
	case coroDone:
		return
	case coroInert:
		co.state = coroDone
		co.entry = nil
		return
	}
	logger.Debugf("await: force unwinding coro %q", co.tag)
	co.parent = rt.current
	rt.switchTo(co, transfer{err: ErrForcedUnwind, unwind: true})
}

// switchTo performs the symmetric transfer from the current context into
// target, parking the caller until control comes back. The returned transfer
// is whatever the next resumer passed; a transfer flagged unwind panics with
// the unwind sentinel instead of returning.
func (rt *Runtime) switchTo(target *Coro, out transfer) transfer {
	self := rt.current
	if target == self {
		panic("await: cannot yield to self")
	}
	if target.state == coroDone {
		panic(fmt.Sprintf("await: cannot yield to finished coro %q", target.tag))
	}
	logger.Debugf("await: switch %q -> %q", self.tag, target.tag)

	rt.current = target
	if target.state == coroInert {
		target.state = coroLive
		rt.pool.obtain().start <- entering{co: target, in: out}
	} else {
		target.resume <- out
	}

	in := <-self.resume
	if in.unwind {
		self.unwinding = true
		panic(unwindSentinel{})
	}
	return in
}

// main is the entry trampoline. It runs on the worker goroutine backing the
// coroutine: invokes the entry function with the incoming value, captures any
// failure, and finally transfers to the parent context. The unwind sentinel
// unwinds silently; every other panic is recorded as the coroutine's failure.
func (co *Coro) main(in transfer) {
	rt := co.rt
	var out transfer

	func() {
		defer func() {
			switch v := recover(); {
			case v == nil:
			case Unwinding(v):
				out.err = ErrForcedUnwind
			default:
				if err, ok := v.(error); ok {
					// Raised errors travel to the parent as the failure.
					out.err = err
					logger.Debugf("await: coro %q done (%v)", co.tag, err)
				} else {
					out.err = fmt.Errorf("await: coro %q panicked: %v", co.tag, v)
					logger.Errorf("await: panic in coro %q: %v", co.tag, v)
				}
			}
		}()
		out.err = co.entry(in.value)
	}()

	if co.unwinding && out.err != ErrForcedUnwind {
		// The entry function caught the sentinel and kept going. Report it
		// and finish the unwind on its behalf so the unwinder regains
		// control.
		logger.Errorf("await: coro %q swallowed forced unwind", co.tag)
		out.err = ErrForcedUnwind
	}

	co.state = coroDone
	if co.onExit != nil {
		co.onExit(out.err)
		co.onExit = nil
	}
	co.entry = nil

	parent := co.parent
	logger.Debugf("await: coro %q done, returning to %q", co.tag, parent.tag)
	rt.current = parent
	parent.resume <- out
}
