package uthread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarioParallelCounter: N threads each increment a shared counter
// under a mutex a fixed number of times; the final value must equal the
// exact product, with no lost updates.
func TestScenarioParallelCounter(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)

	const threads, perThread = 8, 200
	counter := 0
	handles := make([]Handle, threads)
	for i := 0; i < threads; i++ {
		h, err := Create(nil, func(any) any {
			for j := 0; j < perThread; j++ {
				require.NoError(t, mu.Lock())
				counter++
				require.NoError(t, mu.Unlock())
			}
			return nil
		}, nil)
		require.NoError(t, err)
		handles[i] = h
	}
	for _, h := range handles {
		_, _ = Join(h)
	}
	require.Equal(t, threads*perThread, counter)
}

// TestScenarioCondvarHandshake: one thread produces a value and signals a
// condvar; the consumer must observe exactly that value.
func TestScenarioCondvarHandshake(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)
	cv, err := NewCond()
	require.NoError(t, err)

	var value int
	ready := false

	consumer, err := Create(nil, func(any) any {
		require.NoError(t, mu.Lock())
		for !ready {
			require.NoError(t, cv.Wait(mu))
		}
		got := value
		require.NoError(t, mu.Unlock())
		return got
	}, nil)
	require.NoError(t, err)

	producer, err := Create(nil, func(any) any {
		require.NoError(t, mu.Lock())
		value = 99
		ready = true
		require.NoError(t, mu.Unlock())
		require.NoError(t, cv.Signal())
		return nil
	}, nil)
	require.NoError(t, err)

	_, _ = Join(producer)
	ret, _ := Join(consumer)
	require.Equal(t, 99, ret)
}

// TestScenarioBroadcastStorm: many threads wait on the same condition;
// a single broadcast must wake every one of them.
func TestScenarioBroadcastStorm(t *testing.T) {
	freshRuntime(t)

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)
	cv, err := NewCond()
	require.NoError(t, err)

	const n = 20
	ready := false
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		h, err := Create(nil, func(any) any {
			require.NoError(t, mu.Lock())
			for !ready {
				require.NoError(t, cv.Wait(mu))
			}
			require.NoError(t, mu.Unlock())
			return nil
		}, nil)
		require.NoError(t, err)
		handles[i] = h
	}

	_ = Yield()
	require.NoError(t, mu.Lock())
	ready = true
	require.NoError(t, mu.Unlock())
	require.NoError(t, cv.Broadcast())

	for _, h := range handles {
		_, _ = Join(h)
	}
}

// TestScenarioSemaphoreProducerConsumer: a bounded buffer guarded by two
// semaphores (empty slots, filled slots); every produced item must be
// consumed exactly once.
func TestScenarioSemaphoreProducerConsumer(t *testing.T) {
	freshRuntime(t)

	const capacity = 4
	const items = 40

	empty, err := NewSem(capacity)
	require.NoError(t, err)
	filled, err := NewSem(0)
	require.NoError(t, err)
	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)

	buf := make([]int, 0, capacity)
	consumed := make([]int, 0, items)

	producer, err := Create(nil, func(any) any {
		for i := 0; i < items; i++ {
			require.NoError(t, empty.Wait())
			require.NoError(t, mu.Lock())
			buf = append(buf, i)
			require.NoError(t, mu.Unlock())
			require.NoError(t, filled.Post())
		}
		return nil
	}, nil)
	require.NoError(t, err)

	consumer, err := Create(nil, func(any) any {
		for i := 0; i < items; i++ {
			require.NoError(t, filled.Wait())
			require.NoError(t, mu.Lock())
			v := buf[0]
			buf = buf[1:]
			require.NoError(t, mu.Unlock())
			consumed = append(consumed, v)
			require.NoError(t, empty.Post())
		}
		return nil
	}, nil)
	require.NoError(t, err)

	_, _ = Join(producer)
	_, _ = Join(consumer)

	require.Len(t, consumed, items)
	for i, v := range consumed {
		require.Equal(t, i, v)
	}
}

// TestScenarioDiningPhilosophers: five philosophers, five forks, an
// asymmetric last-philosopher fork order to avoid circular-wait deadlock.
// All must complete their meals without hanging.
func TestScenarioDiningPhilosophers(t *testing.T) {
	freshRuntime(t)

	const n = 5
	forks := make([]*Mutex, n)
	for i := range forks {
		m, err := NewMutex(MutexNormal)
		require.NoError(t, err)
		forks[i] = m
	}

	mealsEaten := make([]int, n)
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		idx := i
		left, right := idx, (idx+1)%n
		// The last philosopher picks up forks in the opposite order,
		// breaking the circular wait that would otherwise deadlock.
		if idx == n-1 {
			left, right = right, left
		}
		handles[i] = mustCreate(t, func(any) any {
			for meal := 0; meal < 3; meal++ {
				require.NoError(t, forks[left].Lock())
				require.NoError(t, forks[right].Lock())
				mealsEaten[idx]++
				require.NoError(t, forks[right].Unlock())
				require.NoError(t, forks[left].Unlock())
				_ = Yield()
			}
			return nil
		})
	}

	for _, h := range handles {
		_, _ = Join(h)
	}
	for i, m := range mealsEaten {
		require.Equalf(t, 3, m, "philosopher %d", i)
	}
}

// TestScenarioPriorityOrder: three threads at priorities {10, 20, 30}
// each append their priority into a shared ordered log under a mutex.
// Under the fixed-priority policy, the highest priority must run (and
// therefore log) first.
func TestScenarioPriorityOrder(t *testing.T) {
	freshRuntime(t, WithPolicy(PolicyFixedPriority))

	mu, err := NewMutex(MutexNormal)
	require.NoError(t, err)
	var log []int32

	gate, err := NewSem(0)
	require.NoError(t, err)

	var handles []Handle
	for _, p := range []int32{10, 20, 30} {
		attr := DefaultThreadAttr()
		attr.Priority = p
		h, err := Create(attr, func(arg any) any {
			require.NoError(t, gate.Wait())
			require.NoError(t, mu.Lock())
			log = append(log, arg.(int32))
			require.NoError(t, mu.Unlock())
			return nil
		}, p)
		require.NoError(t, err)
		handles = append(handles, h)
	}

	// Release all three at once so the policy's priority ordering, not
	// creation order, decides who logs first.
	require.NoError(t, gate.Post())
	require.NoError(t, gate.Post())
	require.NoError(t, gate.Post())

	for _, h := range handles {
		_, _ = Join(h)
	}

	require.Equal(t, []int32{30, 20, 10}, log)
}

func mustCreate(t *testing.T, entry EntryFunc) Handle {
	t.Helper()
	h, err := Create(nil, entry, nil)
	require.NoError(t, err)
	return h
}
