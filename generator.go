package await

import (
	"errors"
	"fmt"
	"iter"
)

// A YieldSequence adapts a producer coroutine into a pull-based sequence of
// values. The producer runs lazily: each Next transfers control into it until
// its next Yield, so values are computed one at a time on demand.
//
// Sequences are single-pass and single-consumer. A producer that returns ends
// the sequence; a producer error is reported through Err after Next returns
// false. Closing the sequence force-unwinds a still-live producer.
type YieldSequence[T any] struct {
	rt   *Runtime
	co   *Coro
	cur  *T
	err  error
	done bool
}

// A Yielder is the driver handle passed to the producer body.
type Yielder[T any] struct {
	seq *YieldSequence[T]
}

// Yield publishes v to the consumer and suspends the producer until the next
// call to Next. The pointer must be non-nil and stays readable by the
// consumer until the producer resumes.
func (y *Yielder[T]) Yield(v *T) {
	if v == nil {
		panic("await: Yield requires a non-nil value")
	}
	seq := y.seq
	seq.rt.switchTo(seq.co.parent, transfer{value: v})
}

// NewYieldSequence wraps producer into an iterable sequence. The producer
// does not run until the first Next.
func NewYieldSequence[T any](rt *Runtime, tag string, producer func(y *Yielder[T]) error) *YieldSequence[T] {
	if producer == nil {
		panic("await: nil producer")
	}
	seq := &YieldSequence[T]{rt: rt}
	y := &Yielder[T]{seq: seq}
	seq.co = rt.NewCoro(tag, func(any) error {
		return producer(y)
	})
	return seq
}

// Next resumes the producer and reports its next value. It returns false once
// the producer has finished; check Err afterwards to distinguish exhaustion
// from failure.
func (s *YieldSequence[T]) Next() (*T, bool) {
	if s.done {
		return nil, false
	}
	// The producer hands control back to whoever pulled the value.
	s.co.SetParent(s.rt.current)
	in := s.rt.switchTo(s.co, transfer{})

	if s.co.IsDone() {
		s.done = true
		s.cur = nil
		if in.err != nil && !errors.Is(in.err, ErrForcedUnwind) {
			s.err = in.err
		}
		return nil, false
	}
	v, ok := in.value.(*T)
	if !ok || v == nil {
		panic(fmt.Sprintf("await: generator %q yielded no value", s.co.Tag()))
	}
	s.cur = v
	return v, true
}

// Value returns the value produced by the last successful Next.
func (s *YieldSequence[T]) Value() *T { return s.cur }

// Err returns the producer's failure, if any, once the sequence has ended.
func (s *YieldSequence[T]) Err() error { return s.err }

// All exposes the remainder of the sequence as an iterator. Stopping the
// iteration early leaves the producer suspended; Close it to unwind.
func (s *YieldSequence[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := s.Next()
			if !ok {
				return
			}
			if !yield(*v) {
				return
			}
		}
	}
}

// Close ends the sequence, force-unwinding the producer if it is still live.
func (s *YieldSequence[T]) Close() {
	s.done = true
	s.cur = nil
	s.rt.ForceUnwind(s.co)
}
