package await

import (
	"errors"
	"testing"
)

func TestAwaitAllCompletes(t *testing.T) {
	pump := &pumpScheduler{}
	rt := NewRuntime(pump)

	a := rt.NewAwaitable("a")
	b := rt.NewAwaitable("b")
	ca := a.TakeCompleter()
	cb := b.TakeCompleter()

	var res error
	done := false
	rt.StartAsync("joiner", func(*Awaitable) error {
		res = AwaitAll([]*Awaitable{a, b})
		done = true
		return res
	})

	cb.Complete() // out of order: joiner still waits on a
	if done {
		t.Fatal("AwaitAll returned before every element was done")
	}
	ca.Complete()
	if !done || res != nil {
		t.Fatalf("AwaitAll done=%v err=%v", done, res)
	}
}

func TestAwaitAllPropagatesFirstFailure(t *testing.T) {
	pump := &pumpScheduler{}
	rt := NewRuntime(pump)

	a := rt.NewAwaitable("a")
	b := rt.NewAwaitable("b")
	ca := a.TakeCompleter()
	_ = b.TakeCompleter()
	boom := errors.New("boom")

	var res error
	awt := rt.StartAsync("joiner", func(*Awaitable) error {
		res = AwaitAll([]*Awaitable{a, b})
		return res
	})

	ca.Fail(boom)

	if !errors.Is(res, boom) {
		t.Errorf("AwaitAll returned %v, expected %v", res, boom)
	}
	if !awt.DidFail() {
		t.Error("composite did not fail")
	}
	if b.IsDone() {
		t.Error("short-circuit touched the pending element")
	}
	b.Close()
}

func TestAwaitAnyTieBreak(t *testing.T) {
	rt := NewRuntime(nil)

	x := rt.NewAwaitable("x")
	y := rt.NewAwaitable("y")
	x.TakeCompleter().Complete()
	y.TakeCompleter().Complete()

	pos := -1
	rt.StartAsync("selector", func(*Awaitable) error {
		pos = AwaitAny([]*Awaitable{x, y})
		return nil
	})

	if pos != 0 {
		t.Errorf("AwaitAny picked %d, expected the first element", pos)
	}
}

func TestAwaitAnyWakesOnFirstCompletion(t *testing.T) {
	pump := &pumpScheduler{}
	rt := NewRuntime(pump)

	x := rt.NewAwaitable("x")
	y := rt.NewAwaitable("y")
	_ = x.TakeCompleter()
	cy := y.TakeCompleter()

	pos := -1
	awt := rt.StartAsync("selector", func(*Awaitable) error {
		pos = AwaitAny([]*Awaitable{x, y})
		return nil
	})

	if pos != -1 {
		t.Fatal("AwaitAny returned before anything completed")
	}
	cy.Complete()

	if pos != 1 {
		t.Errorf("AwaitAny picked %d, expected 1", pos)
	}
	if !awt.DidComplete() {
		t.Error("selector did not finish")
	}
	if x.awaiting != nil {
		t.Error("losing element still has a registered awaiter")
	}
	x.Close()
}

func TestAwaitAnyDoesNotRaise(t *testing.T) {
	rt := NewRuntime(nil)

	x := rt.NewAwaitable("x")
	boom := errors.New("boom")
	x.TakeCompleter().Fail(boom)

	var res error
	awt := rt.StartAsync("selector", func(*Awaitable) error {
		pos := AwaitAny([]*Awaitable{x})
		if pos != 0 {
			t.Errorf("AwaitAny picked %d, expected 0", pos)
		}
		// The failure surfaces only on an explicit re-await.
		res = x.Await()
		return nil
	})

	if !awt.DidComplete() {
		t.Error("selector should complete despite the failed element")
	}
	if !errors.Is(res, boom) {
		t.Errorf("re-await returned %v, expected %v", res, boom)
	}
}

func TestAwaitAnyEmpty(t *testing.T) {
	rt := NewRuntime(nil)

	pos := -1
	rt.StartAsync("selector", func(*Awaitable) error {
		pos = AwaitAny([]*Awaitable{})
		return nil
	})

	if pos != 0 {
		t.Errorf("AwaitAny over empty collection returned %d, expected len(coll)", pos)
	}
}

func TestAwaitAnyKeyed(t *testing.T) {
	rt := NewRuntime(nil)

	x := rt.NewAwaitable("x")
	y := rt.NewAwaitable("y")
	_ = x.TakeCompleter()
	y.TakeCompleter().Complete()

	coll := []Keyed[string]{
		{Key: "first", Awaitable: x},
		{Key: "second", Awaitable: y},
	}

	var picked string
	rt.StartAsync("selector", func(*Awaitable) error {
		picked = coll[AwaitAny(coll)].Key
		return nil
	})

	if picked != "second" {
		t.Errorf("picked %q, expected %q", picked, "second")
	}
	x.Close()
}

func TestAsyncAll(t *testing.T) {
	pump := &pumpScheduler{}
	rt := NewRuntime(pump)

	a := rt.NewAwaitable("a")
	b := rt.NewAwaitable("b")
	ca := a.TakeCompleter()
	cb := b.TakeCompleter()

	composite := AsyncAll(rt, []*Awaitable{a, b})
	if composite.IsDone() {
		t.Fatal("composite done before its elements")
	}

	ca.Complete()
	cb.Complete()

	if !composite.DidComplete() {
		t.Error("composite did not complete after all elements")
	}
}

func TestAsyncAny(t *testing.T) {
	pump := &pumpScheduler{}
	rt := NewRuntime(pump)

	a := rt.NewAwaitable("a")
	b := rt.NewAwaitable("b")
	_ = a.TakeCompleter()
	cb := b.TakeCompleter()

	pos := -1
	composite := AsyncAny(rt, []*Awaitable{a, b}, &pos)

	cb.Complete()

	if !composite.DidComplete() {
		t.Fatal("composite did not complete")
	}
	if pos != 1 {
		t.Errorf("winning index %d, expected 1", pos)
	}
	a.Close()
}

func TestAwaitAllOfVariadic(t *testing.T) {
	rt := NewRuntime(nil)

	a := rt.NewAwaitable("a")
	b := rt.NewAwaitable("b")
	a.TakeCompleter().Complete()
	b.TakeCompleter().Complete()

	var res error
	rt.StartAsync("joiner", func(*Awaitable) error {
		res = AwaitAllOf(a, b)
		return res
	})

	if res != nil {
		t.Errorf("AwaitAllOf returned %v", res)
	}
}
