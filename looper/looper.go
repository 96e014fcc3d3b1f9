// Package looper provides the run-loop adapter driving an await.Runtime: a
// single-threaded loop that executes scheduled actions, sleeps until the next
// pending timepoint, and wakes when new work arrives from any goroutine.
package looper

import (
	"sync"
	"time"

	"github.com/awaitlib/await"
)

// A Ticket identifies a scheduled action and may be used to cancel it.
type Ticket int

// NoTicket is the reserved zero ticket.
const NoTicket Ticket = 0

// A RepeatingAction re-arms itself by returning true.
type RepeatingAction func() bool

// managedAction is one scheduled entry. Actions live first on the pending
// list (fed from any goroutine, under the lock) and are merged into the
// queued list owned by the loop thread. Tickets increase monotonically, so a
// merged list ordered by arrival is also ordered by ticket; among actions due
// at the same instant the lowest ticket fires first.
type managedAction struct {
	ticket      Ticket
	action      RepeatingAction
	interval    time.Duration
	catchUp     bool
	triggerTime time.Time
	cancelled   bool
}

// A Looper runs actions on the single thread that called Run. Schedule and
// ScheduleRepeating are safe to call from any goroutine; Run, Quit, Cancel
// and CancelAll belong to the loop thread.
type Looper struct {
	name string

	mu      sync.Mutex
	pending []*managedAction
	tickets Ticket

	// wake nudges a sleeping loop after a schedule; buffered so that
	// scheduling never blocks.
	wake chan struct{}

	// queued is owned by the loop thread and needs no lock.
	queued []*managedAction

	quit bool
}

// New creates a looper. Call Run on the thread that should serve as the
// master context.
func New(name string) *Looper {
	return &Looper{
		name:    name,
		tickets: 100,
		wake:    make(chan struct{}, 1),
	}
}

// Name returns the looper's name.
func (l *Looper) Name() string { return l.name }

// Schedule posts a one-shot action, to run after delay on the loop thread.
// Actions with equal trigger times run in schedule order.
func (l *Looper) Schedule(action func(), delay time.Duration) Ticket {
	if action == nil {
		panic("looper: nil action")
	}
	return l.schedule(func() bool { action(); return false }, delay, 0, false)
}

// ScheduleRepeating posts an action that re-arms every interval for as long
// as it returns true. With catchUp false, firings missed while the loop was
// busy are skipped and the next firing is rescheduled relative to now; with
// catchUp true the backlog is fired.
func (l *Looper) ScheduleRepeating(action RepeatingAction, delay, interval time.Duration, catchUp bool) Ticket {
	if action == nil {
		panic("looper: nil action")
	}
	return l.schedule(action, delay, interval, catchUp)
}

// Post schedules action with no delay, adapting the looper to the
// await.Scheduler capability.
func (l *Looper) Post(action func()) {
	l.Schedule(action, 0)
}

func (l *Looper) schedule(action RepeatingAction, delay, interval time.Duration, catchUp bool) Ticket {
	a := &managedAction{
		action:      action,
		interval:    interval,
		catchUp:     catchUp,
		triggerTime: time.Now().Add(delay),
	}

	l.mu.Lock()
	l.tickets++
	a.ticket = l.tickets
	l.pending = append(l.pending, a)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return a.ticket
}

// Run drives the loop until Quit: it merges newly scheduled actions, sleeps
// until the earliest pending timepoint, and runs everything due. Run must be
// called on the thread that serves as the master context.
func (l *Looper) Run() {
	l.quit = false
	for {
		l.sleepUntilDue()
		l.runQueued()
		if l.quit {
			break
		}
	}

	// Flush cancelled entries so a later Run starts clean.
	l.mu.Lock()
	l.mergePending()
	l.mu.Unlock()
}

// Quit stops the loop and cancels every scheduled action. It must be called
// from a running action.
func (l *Looper) Quit() {
	l.CancelAll()
	l.quit = true
}

// Cancel withdraws a scheduled action. Best effort: an action already
// mid-execution runs to completion, and cancelling it then only prevents the
// re-arm. Returns false if the ticket is unknown or already spent.
func (l *Looper) Cancel(ticket Ticket) bool {
	for _, a := range l.queued {
		if a.ticket == ticket {
			if a.cancelled {
				return false
			}
			a.cancelled = true
			return true
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, a := range l.pending {
		if a.ticket == ticket {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			return true
		}
	}
	return false
}

// CancelAll withdraws every scheduled action.
func (l *Looper) CancelAll() {
	for _, a := range l.queued {
		a.cancelled = true
	}
	l.mu.Lock()
	l.pending = l.pending[:0]
	l.mu.Unlock()
}

// mergePending folds newly scheduled actions into the loop-owned queue,
// dropping cancelled ones. Caller holds the lock.
func (l *Looper) mergePending() {
	kept := l.queued[:0]
	for _, a := range l.queued {
		if !a.cancelled {
			kept = append(kept, a)
		}
	}
	l.queued = append(kept, l.pending...)
	l.pending = l.pending[:0]
}

// earliest returns the next trigger time among queued actions.
func (l *Looper) earliest() (time.Time, bool) {
	var at time.Time
	found := false
	for _, a := range l.queued {
		if a.cancelled {
			continue
		}
		if !found || a.triggerTime.Before(at) {
			at = a.triggerTime
			found = true
		}
	}
	return at, found
}

func (l *Looper) sleepUntilDue() {
	for {
		l.mu.Lock()
		l.mergePending()
		next, ok := l.earliest()
		l.mu.Unlock()

		if !ok {
			<-l.wake
			continue
		}
		d := time.Until(next)
		if d <= 0 {
			return
		}
		timer := time.NewTimer(d)
		select {
		case <-l.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (l *Looper) runQueued() {
	now := time.Now()
	for _, a := range l.queued {
		if a.cancelled || a.triggerTime.After(now) {
			continue
		}

		repeat := l.invoke(a)

		if !repeat {
			a.cancelled = true
		} else if a.catchUp {
			a.triggerTime = a.triggerTime.Add(a.interval)
		} else {
			a.triggerTime = now.Add(a.interval)
		}

		if l.quit { // the action may have triggered quit
			break
		}
	}
}

func (l *Looper) invoke(a *managedAction) bool {
	defer func() {
		if v := recover(); v != nil {
			await.Logger().Warnf("looper %s: uncaught panic in action %d: %v", l.name, a.ticket, v)
			panic(v)
		}
	}()
	return a.action()
}
