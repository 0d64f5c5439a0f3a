package uthread

import "container/heap"

// fairPolicy is the virtual-runtime fair policy of spec.md §4.6. The
// spec calls for an ordered balanced tree with a cached leftmost
// pointer; a binary min-heap keyed on vruntime gives the same amortized
// O(log n) insert and O(1) "next to run" peek, and is the data
// structure the teacher already reaches for (timerHeap, container/heap)
// rather than hand-rolling a red-black tree.
type fairPolicy struct {
	tree        fairHeap
	minVruntime uint64
}

type fairHeap []*tcb

func (h fairHeap) Len() int { return len(h) }
func (h fairHeap) Less(i, j int) bool {
	if h[i].vruntime != h[j].vruntime {
		return h[i].vruntime < h[j].vruntime
	}
	// Tie-break: a heap keeps no insertion order, so equal vruntimes
	// are ordered by thread id, lowest first. Ids follow creation
	// order, not enqueue order, so this is a stable, deterministic
	// tiebreak rather than a first-in-first-out one.
	return h[i].id < h[j].id
}
func (h fairHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *fairHeap) Push(x any) {
	t := x.(*tcb)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}
func (h *fairHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

func newFairPolicy() *fairPolicy {
	return &fairPolicy{}
}

func (p *fairPolicy) name() PolicyName { return PolicyFair }

func (p *fairPolicy) initPolicy()     {}
func (p *fairPolicy) shutdownPolicy() {}

// niceToWeight mirrors spec.md §4.6's nice-to-weight table: nice 0 =
// 1024, each step roughly x1.25, nice -20 ~ 88761, nice +19 ~ 15.
func niceToWeight(nice int32) uint64 {
	w := float64(niceZeroWeight)
	if nice > 0 {
		for i := int32(0); i < nice; i++ {
			w /= 1.25
		}
	} else if nice < 0 {
		for i := int32(0); i < -nice; i++ {
			w *= 1.25
		}
	}
	if w < 1 {
		w = 1
	}
	return uint64(w)
}

func (p *fairPolicy) totalWeight() uint64 {
	if p.tree.Len() == 0 {
		return niceZeroWeight
	}
	return uint64(p.tree.Len()) * niceZeroWeight
}

func (p *fairPolicy) recomputeTimeslice(t *tcb) {
	ts := int64(fairTargetLatency) * int64(t.weight) / int64(p.totalWeight())
	if ts < int64(fairMinGranularity) {
		ts = int64(fairMinGranularity)
	}
	t.timesliceRemaining = ts
}

func (p *fairPolicy) enqueue(t *tcb) {
	if t.weight == 0 {
		t.weight = niceToWeight(t.nice)
	}
	if t.vruntime == 0 || t.vruntime < p.minVruntime {
		t.vruntime = p.minVruntime
	}
	heap.Push(&p.tree, t)
	p.recomputeTimeslice(t)
}

func (p *fairPolicy) dequeue() *tcb {
	if p.tree.Len() == 0 {
		return nil
	}
	t := heap.Pop(&p.tree).(*tcb)
	p.advanceMinVruntime()
	return t
}

// advanceMinVruntime implements spec.md §9's preferred min_vruntime
// formula, max(old_min, leftmost.vruntime): the fairness floor only ever
// rises to meet the ready tree's own leftmost entry, never the running
// thread's vruntime (which is not a member of the tree while dispatched,
// and may run arbitrarily far ahead of the floor without dragging it
// along - that looser, current-thread-tracking formulation is the
// rejected alternative spec.md's Open Question #2 warns drifts fairness).
func (p *fairPolicy) advanceMinVruntime() {
	if p.tree.Len() == 0 {
		return
	}
	if leftmost := p.tree[0].vruntime; leftmost > p.minVruntime {
		p.minVruntime = leftmost
	}
}

func (p *fairPolicy) remove(t *tcb) bool {
	if t.heapIndex < 0 || t.heapIndex >= p.tree.Len() || p.tree[t.heapIndex] != t {
		return false
	}
	heap.Remove(&p.tree, t.heapIndex)
	return true
}

func (p *fairPolicy) vruntimeDelta(t *tcb, elapsedNs int64) uint64 {
	return uint64(elapsedNs) * niceZeroWeight / t.weight
}

func (p *fairPolicy) onYield(t *tcb) {
	elapsed := now() - t.startTime
	t.vruntime += p.vruntimeDelta(t, elapsed)
}

func (p *fairPolicy) onTick(t *tcb, elapsedNs int64) {
	t.vruntime += p.vruntimeDelta(t, elapsedNs)
	p.advanceMinVruntime()
	t.timesliceRemaining -= elapsedNs
	if t.timesliceRemaining < 0 {
		t.timesliceRemaining = 0
	}
}

func (p *fairPolicy) shouldPreempt(t *tcb) bool {
	if p.tree.Len() == 0 {
		return false
	}
	leftmost := p.tree[0]
	if t.timesliceRemaining == 0 {
		return true
	}
	if leftmost.vruntime+uint64(fairMinGranularity) < t.vruntime {
		return true
	}
	return false
}

func (p *fairPolicy) updatePriority(t *tcb) {
	t.weight = niceToWeight(t.nice)
	if t.heapIndex >= 0 && t.heapIndex < p.tree.Len() && p.tree[t.heapIndex] == t {
		heap.Fix(&p.tree, t.heapIndex)
	}
}

func (p *fairPolicy) empty() bool { return p.tree.Len() == 0 }

func (p *fairPolicy) len() int { return p.tree.Len() }
