package uthread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFailureJoinSelfDeadlock(t *testing.T) {
	freshRuntime(t)
	self, err := Self()
	require.NoError(t, err)
	_, err = Join(self)
	require.ErrorIs(t, err, ErrDeadlock)
}

func TestFailureJoinDetachedInvalidArgument(t *testing.T) {
	freshRuntime(t)
	h, err := Create(nil, func(any) any { return nil }, nil)
	require.NoError(t, err)
	require.NoError(t, Detach(h))
	_, err = Join(h)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFailureDoubleJoinerRejected(t *testing.T) {
	freshRuntime(t)

	release, err := NewSem(0)
	require.NoError(t, err)
	target, err := Create(nil, func(any) any {
		require.NoError(t, release.Wait())
		return nil
	}, nil)
	require.NoError(t, err)

	joinErr := make(chan error, 1)
	firstJoiner, err := Create(nil, func(any) any {
		_, err := Join(target)
		joinErr <- err
		return nil
	}, nil)
	require.NoError(t, err)

	// The yields let target block on the semaphore and firstJoiner
	// register as target's joiner, so main is the second joiner.
	_ = Yield()
	_ = Yield()

	require.NoError(t, release.Post())
	_, err = Join(target)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _ = Join(firstJoiner)
	require.NoError(t, <-joinErr)
}

func TestFailureMutexDestroyWhileHeldIsBusy(t *testing.T) {
	freshRuntime(t)
	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)
	require.NoError(t, mu.Lock())
	err = mu.Destroy()
	require.ErrorIs(t, err, ErrBusy)
	require.NoError(t, mu.Unlock())
}

func TestFailureErrorCheckMutexDoubleLockIsDeadlock(t *testing.T) {
	freshRuntime(t)
	mu, err := NewMutex(MutexErrorCheck)
	require.NoError(t, err)
	require.NoError(t, mu.Lock())
	err = mu.Lock()
	require.ErrorIs(t, err, ErrDeadlock)
	require.NoError(t, mu.Unlock())
}

func TestFailureSemTryWaitTryAgain(t *testing.T) {
	freshRuntime(t)
	sem, err := NewSem(0)
	require.NoError(t, err)
	err = sem.TryWait()
	require.ErrorIs(t, err, ErrTryAgain)
}

func TestFailureSemTimedWaitPastDeadline(t *testing.T) {
	freshRuntime(t)
	sem, err := NewSem(0)
	require.NoError(t, err)
	// Deadline already in the past.
	err = sem.TimedWait(now() - time.Second.Nanoseconds())
	require.ErrorIs(t, err, ErrTimedOut)
}

func TestFailureCreateRejectsNilEntry(t *testing.T) {
	freshRuntime(t)
	_, err := Create(nil, nil, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFailureOperationsWithoutInitRuntime(t *testing.T) {
	if IsInitialized() {
		require.NoError(t, Shutdown())
	}
	_, err := Create(nil, func(any) any { return nil }, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Self()
	require.ErrorIs(t, err, ErrInvalidArgument)
}
