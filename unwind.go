package await

import "errors"

// ErrForcedUnwind is the failure recorded for a coroutine that was
// cooperatively terminated from outside, typically because its Awaitable was
// closed while the operation was still pending. Inside the coroutine the
// unwind travels as a panic that Unwinding recognises; bodies must let it
// propagate, and a deferred recover that needs to run cleanup should re-panic
// after checking Unwinding.
var ErrForcedUnwind = errors.New("await: forced unwind")

// ErrYieldForbidden marks an external-driven Awaitable that was closed before
// anything completed it.
var ErrYieldForbidden = errors.New("await: yield forbidden")

// unwindSentinel is the panic value that initiates stack unwinding in a
// coroutine. It deliberately carries no payload so that it cannot be confused
// with an application panic.
type unwindSentinel struct{}

// Unwinding reports whether stack unwinding is taking place. It should be
// called inside a defer and given the value returned by recover; when it
// returns true the caller must re-panic with the same value after running its
// cleanup.
func Unwinding(v any) bool {
	_, ok := v.(unwindSentinel)
	return ok
}
