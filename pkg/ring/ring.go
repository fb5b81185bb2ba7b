// Package ring provides a bounded FIFO holding values by copy.
package ring

// Ring is a bounded FIFO. When full, Push evicts the oldest value.
// It is not safe for concurrent use: the owner serializes access.
type Ring[T any] struct {
	buf     []T
	head    int
	size    int
	overrun uint64
}

// New creates a Ring holding at most capacity values.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v. It returns false if the oldest value was evicted.
func (r *Ring[T]) Push(v T) bool {
	evicted := r.size == len(r.buf)
	if evicted {
		r.head = (r.head + 1) % len(r.buf)
		r.size--
		r.overrun++
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	return !evicted
}

// Pop removes and returns the oldest value.
func (r *Ring[T]) Pop() (v T, ok bool) {
	if r.size == 0 {
		return v, false
	}
	var zero T
	v, r.buf[r.head] = r.buf[r.head], zero
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return v, true
}

// Peek returns the oldest value without removing it.
func (r *Ring[T]) Peek() (v T, ok bool) {
	if r.size == 0 {
		return v, false
	}
	return r.buf[r.head], true
}

// Len returns the number of values held.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Empty checks if nothing is held.
func (r *Ring[T]) Empty() bool { return r.size == 0 }

// Overruns returns how many values were evicted by Push.
func (r *Ring[T]) Overruns() uint64 { return r.overrun }
