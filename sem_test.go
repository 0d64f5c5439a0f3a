package uthread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSemWaitPostProducerConsumer(t *testing.T) {
	freshRuntime(t)

	sem, err := NewSem(0)
	require.NoError(t, err)

	const n = 10
	var consumed []int
	consumerDone := make(chan struct{})

	consumer, err := Create(nil, func(any) any {
		for i := 0; i < n; i++ {
			require.NoError(t, sem.Wait())
			consumed = append(consumed, i)
		}
		close(consumerDone)
		return nil
	}, nil)
	require.NoError(t, err)

	producer, err := Create(nil, func(any) any {
		for i := 0; i < n; i++ {
			require.NoError(t, sem.Post())
			_ = Yield()
		}
		return nil
	}, nil)
	require.NoError(t, err)

	_, _ = Join(producer)
	_, _ = Join(consumer)

	require.Len(t, consumed, n)
	require.Zero(t, sem.GetValue())
}

func TestSemTryWaitTryAgain(t *testing.T) {
	freshRuntime(t)

	sem, err := NewSem(0)
	require.NoError(t, err)

	err = sem.TryWait()
	require.ErrorIs(t, err, ErrTryAgain)

	require.NoError(t, sem.Post())
	require.NoError(t, sem.TryWait())
	require.Zero(t, sem.GetValue())
}

func TestSemTimedWaitExpires(t *testing.T) {
	freshRuntime(t)

	sem, err := NewSem(0)
	require.NoError(t, err)

	deadline := now() + (20 * time.Millisecond).Nanoseconds()
	err = sem.TimedWait(deadline)
	require.ErrorIs(t, err, ErrTimedOut)
}

func TestSemTimedWaitPostedBeforeDeadline(t *testing.T) {
	freshRuntime(t)

	sem, err := NewSem(0)
	require.NoError(t, err)

	result := make(chan error, 1)
	h, err := Create(nil, func(any) any {
		deadline := now() + time.Minute.Nanoseconds()
		result <- sem.TimedWait(deadline)
		return nil
	}, nil)
	require.NoError(t, err)

	_ = Yield()
	require.NoError(t, sem.Post())
	_, _ = Join(h)

	require.NoError(t, <-result)
}

func TestSemDestroyBusyWithWaiters(t *testing.T) {
	freshRuntime(t)

	sem, err := NewSem(0)
	require.NoError(t, err)

	h, err := Create(nil, func(any) any {
		deadline := now() + time.Minute.Nanoseconds()
		_ = sem.TimedWait(deadline)
		return nil
	}, nil)
	require.NoError(t, err)

	_ = Yield()
	err = sem.Destroy()
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, sem.Post())
	_, _ = Join(h)
	require.NoError(t, sem.Destroy())
}
