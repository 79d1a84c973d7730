package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueuePushPopOrder(t *testing.T) {
	q := NewQueue(4)
	require.True(t, q.Push(Block{BytesUsed: 1}))
	require.True(t, q.Push(Block{BytesUsed: 2}))

	b, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, uint32(1), b.BytesUsed)

	b, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, uint32(2), b.BytesUsed)
}

func TestQueueCloseStreamDrainsThenEnds(t *testing.T) {
	q := NewQueue(4)
	require.True(t, q.Push(Block{BytesUsed: 7}))
	q.CloseStream()

	b, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, uint32(7), b.BytesUsed)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestQueueStopFeedingUnblocksPush(t *testing.T) {
	q := NewQueue(1)
	require.True(t, q.Push(Block{BytesUsed: 1})) // fills capacity

	done := make(chan bool, 1)
	go func() {
		done <- q.Push(Block{BytesUsed: 2}) // blocks: queue full
	}()

	q.StopFeeding()
	require.False(t, <-done)
}

func TestQueueLenReflectsBuffered(t *testing.T) {
	q := NewQueue(4)
	require.Equal(t, 0, q.Len())
	q.Push(Block{BytesUsed: 1})
	q.Push(Block{BytesUsed: 2})
	require.Equal(t, 2, q.Len())
	q.Pop()
	require.Equal(t, 1, q.Len())
}
