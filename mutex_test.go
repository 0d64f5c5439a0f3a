package uthread

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutexNormalMutualExclusion(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)

	const n = 20
	var counter int
	var handles []Handle
	for i := 0; i < n; i++ {
		h, err := Create(nil, func(any) any {
			for j := 0; j < 50; j++ {
				require.NoError(t, mu.Lock())
				counter++
				require.NoError(t, mu.Unlock())
				_ = Yield()
			}
			return nil
		}, nil)
		require.NoError(t, err)
		handles = append(handles, h)
	}
	for _, h := range handles {
		_, _ = Join(h)
	}
	require.Equal(t, n*50, counter)
}

func TestMutexRecursiveNesting(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexRecursive)
	require.NoError(t, err)

	require.NoError(t, mu.Lock())
	require.NoError(t, mu.Lock())
	require.NoError(t, mu.Lock())

	require.NoError(t, mu.Unlock())
	require.NoError(t, mu.Unlock())
	// Still held once; the owner's TryLock nests again, so two more
	// unlocks release it fully.
	require.NoError(t, mu.TryLock())
	require.NoError(t, mu.Unlock())
	require.NoError(t, mu.Unlock())

	// Now fully unlocked: a fresh TryLock should succeed.
	require.NoError(t, mu.TryLock())
	require.NoError(t, mu.Unlock())
}

func TestMutexErrorCheckDeadlockAndPermission(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexErrorCheck)
	require.NoError(t, err)

	require.NoError(t, mu.Lock())
	err = mu.Lock()
	require.ErrorIs(t, err, ErrDeadlock)
	require.NoError(t, mu.Unlock())

	// Not the owner: unlocking an unheld errorcheck mutex is a
	// permission violation.
	err = mu.Unlock()
	require.ErrorIs(t, err, ErrPermission)
}

func TestMutexTryLockBusy(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)
	require.NoError(t, mu.Lock())

	locked := make(chan error, 1)
	h, err := Create(nil, func(any) any {
		locked <- mu.TryLock()
		return nil
	}, nil)
	require.NoError(t, err)
	_, _ = Join(h)

	err = <-locked
	require.ErrorIs(t, err, ErrBusy)
	require.NoError(t, mu.Unlock())
}

func TestMutexDestroyBusyWhenHeld(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)
	require.NoError(t, mu.Lock())

	err = mu.Destroy()
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, mu.Unlock())
	require.NoError(t, mu.Destroy())
}

func TestMutexWakesAllEventualWaiters(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)
	require.NoError(t, mu.Lock())

	var order atomic.Int32
	got := make([]int32, 3)
	handles := make([]Handle, 3)
	for i := 0; i < 3; i++ {
		idx := i
		h, err := Create(nil, func(any) any {
			require.NoError(t, mu.Lock())
			got[idx] = order.Add(1)
			require.NoError(t, mu.Unlock())
			return nil
		}, nil)
		require.NoError(t, err)
		handles[i] = h
	}

	// Let all three block on the held mutex before releasing it.
	_ = Yield()

	require.NoError(t, mu.Unlock())
	for _, h := range handles {
		_, _ = Join(h)
	}

	require.ElementsMatch(t, []int32{1, 2, 3}, got)
}
