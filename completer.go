package await

// A Completer is the handle the outside world uses to finish an
// external-driven Awaitable. Completers are freely copyable; every copy is
// equally entitled and the first terminal transition wins. A Completer holds
// its Awaitable weakly: once the Awaitable is closed, every outstanding copy
// expires and further calls are no-ops.
//
// Complete and Fail must run on the thread owning the Runtime; code on other
// goroutines posts them through the runtime's Scheduler.
type Completer struct {
	cell *completerCell
}

// target resolves the weak reference, returning nil once expired.
func (c Completer) target() *Awaitable {
	if c.cell == nil {
		return nil
	}
	return c.cell.a
}

// IsExpired reports whether the Awaitable behind the Completer is gone. The
// zero Completer is expired.
func (c Completer) IsExpired() bool {
	return c.target() == nil
}

// Complete transitions the Awaitable to Completed. It is a no-op if the
// Awaitable is already terminal or the Completer has expired.
func (c Completer) Complete() {
	if a := c.target(); a != nil {
		a.settle(nil)
	}
}

// Fail transitions the Awaitable to Failed with err. It is a no-op if the
// Awaitable is already terminal or the Completer has expired.
func (c Completer) Fail(err error) {
	if err == nil {
		panic("await: Completer.Fail requires a non-nil error")
	}
	if a := c.target(); a != nil {
		a.settle(err)
	}
}

// Wrap turns fn into a raw callback that finishes the Awaitable: a nil return
// completes it, a non-nil return fails it. The callback does nothing once the
// Completer has expired, which makes it safe to hand to APIs that may fire
// after the Awaitable is gone.
func (c Completer) Wrap(fn func() error) func() {
	return func() {
		if c.IsExpired() {
			return
		}
		if err := fn(); err != nil {
			c.Fail(err)
		} else {
			c.Complete()
		}
	}
}
