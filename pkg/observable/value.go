package observable

import (
	"context"
	"sync"
)

// Value is a single-slot, latest-value signal. Subscribers only ever see
// the newest value; intermediate values may be skipped, and setting a value
// equal to the current one is a no-op.
type Value[T any] struct {
	mu    sync.Mutex
	val   T
	set   bool
	equal func(a, b T) bool
	subs  map[chan T]struct{}
}

// New creates an empty Value comparing with ==.
func New[T comparable]() *Value[T] {
	return NewWithEqual(func(a, b T) bool { return a == b })
}

// NewWithEqual creates an empty Value using equal to drop repeats.
func NewWithEqual[T any](equal func(a, b T) bool) *Value[T] {
	return &Value[T]{equal: equal, subs: make(map[chan T]struct{})}
}

// Set stores x and notifies subscribers. It reports whether the value changed.
func (v *Value[T]) Set(x T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.set && v.equal(v.val, x) {
		return false
	}
	v.val, v.set = x, true
	for ch := range v.subs {
		offer(ch, x)
	}
	return true
}

// Get returns the current value and whether one was ever set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val, v.set
}

// Subscribe returns a channel carrying the latest value. The current value,
// if any, is delivered first. The channel is closed once ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	v.mu.Lock()
	v.subs[ch] = struct{}{}
	if v.set {
		ch <- v.val
	}
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, ch)
		close(ch)
		v.mu.Unlock()
	}()
	return ch
}

// offer replaces whatever is pending in ch with x. Callers hold v.mu, so
// there is a single sender.
func offer[T any](ch chan T, x T) {
	select {
	case ch <- x:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- x
}
