package uthread

// waitQueue is a FIFO of blocked TCBs: an intrusive doubly-linked list
// using each TCB's qPrev/qNext links, per spec.md §4.2. The round-robin
// and fixed-priority policies also use it as their FIFO of ready TCBs.
//
// CALLER MUST HOLD THE CRITICAL SECTION. Like the teacher's ChunkedIngress,
// this type is not internally synchronized - every scheduler-adjacent
// structure in this runtime shares one critical section rather than a
// struct-local mutex, because operations routinely need to move a TCB
// between two such structures atomically (e.g. wait -> run queue).
//
// Unlike a chunked task queue, a wait queue must support O(1) removal of
// an arbitrary member (remove_specific, used by timed waits that give up)
// which is why this is a real doubly-linked list rather than the teacher's
// singly-linked chunk-of-slots design.
type waitQueue struct {
	head, tail *tcb
	length     int
}

// add appends t at the tail. t must not already be linked into a queue.
func (q *waitQueue) add(t *tcb) {
	if t.onQueue != nil {
		fatal("waitQueue.add: %d already queued", t.id)
	}
	t.qPrev, t.qNext = q.tail, nil
	if q.tail != nil {
		q.tail.qNext = t
	} else {
		q.head = t
	}
	q.tail = t
	t.onQueue = q
	q.length++
}

// removeHead detaches and returns the head, or nil if empty.
func (q *waitQueue) removeHead() *tcb {
	t := q.head
	if t == nil {
		return nil
	}
	q.unlink(t)
	return t
}

// removeSpecific unlinks t regardless of position. Returns true if t was
// in this queue.
func (q *waitQueue) removeSpecific(t *tcb) bool {
	if t.onQueue != q {
		return false
	}
	q.unlink(t)
	return true
}

func (q *waitQueue) unlink(t *tcb) {
	if t.qPrev != nil {
		t.qPrev.qNext = t.qNext
	} else {
		q.head = t.qNext
	}
	if t.qNext != nil {
		t.qNext.qPrev = t.qPrev
	} else {
		q.tail = t.qPrev
	}
	t.qPrev, t.qNext, t.onQueue = nil, nil, nil
	q.length--
}

func (q *waitQueue) empty() bool {
	return q.length == 0
}

// wakeOne removes the head (if any) and unblocks it via the scheduler.
// Returns the woken thread, or nil if the queue was empty.
func (sched *Scheduler) wakeOne(q *waitQueue) *tcb {
	t := q.removeHead()
	if t != nil {
		sched.unblock(t)
	}
	return t
}

// wakeAll repeatedly wakes the head until the queue is empty.
func (sched *Scheduler) wakeAll(q *waitQueue) {
	for !q.empty() {
		sched.wakeOne(q)
	}
}
