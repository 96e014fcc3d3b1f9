package looper

import (
	"time"

	"github.com/awaitlib/await"
)

// AsyncDelay returns an Awaitable that completes after d has elapsed on the
// loop. Closing the Awaitable early expires its completer, turning the timer
// firing into a no-op.
func AsyncDelay(l *Looper, rt *await.Runtime, d time.Duration) *await.Awaitable {
	a := rt.NewAwaitable("asyncDelay")
	c := a.TakeCompleter()
	ticket := l.Schedule(func() { c.Complete() }, d)
	a.OnDone(func(*await.Awaitable) { l.Cancel(ticket) })
	return a
}
