// Package await is an asynchronous composition runtime built on coroutines.
//
// The central abstraction is the [Awaitable]: a handle to an operation that is
// expected to finish at some time in the future. Inside a coroutine, calling
// [Awaitable.Await] appears to block until the operation completes or fails;
// in reality the coroutine is suspended and control transfers back to the
// master context, leaving the thread free to process other events.
//
// Coroutines are cooperative and single-threaded. Each one runs on its own
// goroutine, but at any instant exactly one coroutine of a [Runtime] is
// executing; every switch is a symmetric transfer in which the suspending side
// names its successor. A Runtime models the per-thread state the scheduler
// needs: the master context, the currently running coroutine, and the
// [Scheduler] used to defer actions back to the master context.
//
// Operations driven from the outside world are resumed through a [Completer],
// a copyable handle that transitions its Awaitable to a terminal state at most
// once and expires when the Awaitable is closed. Composition is provided by
// [AwaitAll], [AwaitAny] and their asynchronous wrappers, and by the lazy
// [YieldSequence] generator built on the same transfer mechanism.
package await
