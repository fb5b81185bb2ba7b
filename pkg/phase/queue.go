package phase

import (
	"fmt"
	"sync"
)

// Policy decides what happens when the queue is at capacity.
type Policy int

const (
	// DropNewest rejects a push onto a full queue. The consumer keeps
	// dequeuing normally, so the queue drains as fast as phases run.
	DropNewest Policy = iota
	// DropOldest evicts the oldest queued phase that is not Latched to
	// make room. A push onto a full queue holding only latched phases
	// is rejected.
	DropOldest
	// RepeatLast rejects pushes while full and makes the consumer
	// re-execute the last dequeued phase without dequeuing. Once full
	// the queue stays full, so it is not meant for production use.
	RepeatLast
)

var policyNames = map[Policy]string{
	DropNewest: "drop-newest",
	DropOldest: "drop-oldest",
	RepeatLast: "repeat-last",
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy parses a policy name.
func ParsePolicy(name string) (Policy, error) {
	for p, s := range policyNames {
		if s == name {
			return p, nil
		}
	}
	return DropNewest, fmt.Errorf("unknown queue policy %q", name)
}

// Stats are the counters of a Queue.
type Stats struct {
	Pushed    uint64
	Dropped   uint64
	Evicted   uint64
	Repeated  uint64
	Saturated uint64 // consumer iterations that found the queue full
}

// Queue is a bounded FIFO of phases. Any goroutine may Push, only
// the dispatcher may call Next. Push never blocks.
type Queue struct {
	policy Policy

	lock      sync.Mutex
	buf       []Phase
	head      int
	size      int
	last      Phase
	saturated bool
	stats     Stats

	readyCh chan struct{}
}

// NewQueue creates a Queue holding at most capacity phases.
func NewQueue(capacity int, policy Policy) *Queue {
	if capacity <= 0 {
		panic("phase: queue capacity must be positive")
	}
	return &Queue{
		policy:  policy,
		buf:     make([]Phase, capacity),
		readyCh: make(chan struct{}, 1),
	}
}

// Policy returns the full policy of the queue.
func (q *Queue) Policy() Policy {
	return q.policy
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Len returns the number of queued phases.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.size
}

// Push enqueues a phase. It returns false if the phase was dropped.
func (q *Queue) Push(p Phase) bool {
	q.lock.Lock()
	accepted := q.pushLocked(p)
	q.lock.Unlock()
	if accepted {
		select {
		case q.readyCh <- struct{}{}:
		default:
		}
	}
	return accepted
}

func (q *Queue) pushLocked(p Phase) bool {
	if q.size == len(q.buf) {
		if q.policy != DropOldest || !q.evictLocked() {
			q.stats.Dropped++
			return false
		}
	}
	q.buf[(q.head+q.size)%len(q.buf)] = p
	q.size++
	q.stats.Pushed++
	return true
}

// evictLocked removes the oldest phase that is not latched, closing
// the gap by shifting the older entries one slot towards the tail.
func (q *Queue) evictLocked() bool {
	n := len(q.buf)
	for i := 0; i < q.size; i++ {
		if q.buf[(q.head+i)%n].Latched() {
			continue
		}
		for j := i; j > 0; j-- {
			q.buf[(q.head+j)%n] = q.buf[(q.head+j-1)%n]
		}
		q.head = (q.head + 1) % n
		q.size--
		q.stats.Evicted++
		return true
	}
	return false
}

// Next returns the phase the dispatcher should execute. ok is false
// when there is nothing to do, in which case p is Idle.
func (q *Queue) Next() (p Phase, ok bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.saturated = q.size == len(q.buf)
	if q.saturated {
		q.stats.Saturated++
		if q.policy == RepeatLast {
			q.stats.Repeated++
			return q.last, true
		}
	}
	if q.size == 0 {
		return Idle, false
	}
	p = q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.last = p
	return p, true
}

// Saturated reports whether the queue was full at the last Next.
func (q *Queue) Saturated() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.saturated
}

// Stats returns a copy of the counters.
func (q *Queue) Stats() Stats {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.stats
}

// Ready is signaled after a successful Push. It is only a wake-up
// hint: the consumer must still call Next.
func (q *Queue) Ready() <-chan struct{} {
	return q.readyCh
}
