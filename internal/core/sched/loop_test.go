package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc, <-chan error) {
	t.Helper()
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	t.Cleanup(cancel)
	return loop, cancel, done
}

func TestLoop_CallRunsOnLoop(t *testing.T) {
	loop, _, _ := startLoop(t)

	value := 0
	ok := loop.Call(func() { value = 42 })

	require.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestLoop_PostPreservesOrder(t *testing.T) {
	loop, _, _ := startLoop(t)

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		loop.Post(func() { order = append(order, i) })
	}
	require.True(t, loop.Call(func() {}))

	require.Len(t, order, 100)
	for i, value := range order {
		assert.Equal(t, i, value)
	}
}

func TestLoop_EveryAndCancel(t *testing.T) {
	loop, _, _ := startLoop(t)

	var count atomic.Int32
	cancel := loop.Every(5*time.Millisecond, func() { count.Add(1) })

	assert.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, time.Millisecond)

	cancel()
	require.True(t, loop.Call(func() {}))
	snapshot := count.Load()
	time.Sleep(30 * time.Millisecond)
	require.True(t, loop.Call(func() {}))
	assert.Equal(t, snapshot, count.Load())
}

func TestLoop_ShutdownCancelsEverything(t *testing.T) {
	loop, cancel, done := startLoop(t)

	var count atomic.Int32
	loop.Every(5*time.Millisecond, func() { count.Add(1) })
	require.True(t, loop.Call(func() {}))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	snapshot := count.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, snapshot, count.Load())
	assert.False(t, loop.Call(func() {}))
	assert.False(t, loop.Running())
}
