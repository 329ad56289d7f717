package observable

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("no value delivered")
	}
	var zero T
	return zero
}

func TestSetDropsRepeats(t *testing.T) {
	v := New[string]()
	_, ok := v.Get()
	assert.False(t, ok)

	assert.True(t, v.Set("a.b"))
	assert.False(t, v.Set("a.b"))
	assert.True(t, v.Set("x.y"))

	got, ok := v.Get()
	assert.True(t, ok)
	assert.Equal(t, "x.y", got)
}

func TestSubscribeDeliversCurrentThenLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := New[string]()
	v.Set("first")
	ch := v.Subscribe(ctx)
	assert.Equal(t, "first", receive(t, ch))

	// nobody reads in between: only the newest survives
	v.Set("second")
	v.Set("third")
	assert.Equal(t, "third", receive(t, ch))

	select {
	case extra := <-ch:
		t.Fatalf("unexpected value %q", extra)
	default:
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	v := New[int]()
	ch := v.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// setting after the subscriber left must not block or panic
	v.Set(1)
}

func TestCustomEquality(t *testing.T) {
	v := NewWithEqual(slices.Equal[[]string])
	assert.True(t, v.Set([]string{"a", "b"}))
	assert.False(t, v.Set([]string{"a", "b"}))
	assert.True(t, v.Set([]string{"a"}))
}
