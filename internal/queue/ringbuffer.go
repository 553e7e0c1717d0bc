// Package queue implements the two-lane ring-buffered event queue and
// duplicate-merging consumer described in spec.md §4.3: one lane for
// in-progress touch-lifecycle events, one for completed gesture events, a
// seq-ordered delivery rule, and a time-windowed merge of back-to-back
// duplicate gesture events into a repeat count.
package queue

// Capacity is the fixed size of each ring buffer lane. spec.md §9 notes
// this is a documented choice, not a silent cap: a producer burst beyond
// this many pending events in either lane during a long merge window will
// have pushes silently dropped (spec.md §7, "Queue overflow").
const Capacity = 1024

// ringBuffer is a fixed-capacity FIFO of *gesture.Event (or any other
// element type). It has no synchronization of its own and is not safe for
// concurrent use, not even by one producer and one consumer; Queue
// serializes every access with its own mutex.
type ringBuffer[T any] struct {
	buf        [Capacity]T
	readIndex  uint32
	writeIndex uint32
	size       uint32
}

func (r *ringBuffer[T]) Size() uint32 {
	return r.size
}

func (r *ringBuffer[T]) Empty() bool {
	return r.size == 0
}

func (r *ringBuffer[T]) Full() bool {
	return r.size == Capacity
}

// Push appends to the tail. It reports whether the push succeeded; a full
// buffer silently refuses the push so the caller can free the event
// (spec.md §7, "Queue overflow": loss is tolerated over blocking the
// producer).
func (r *ringBuffer[T]) Push(v T) bool {
	if r.Full() {
		return false
	}
	r.buf[r.writeIndex%Capacity] = v
	r.writeIndex++
	r.size++
	return true
}

// Peek returns the head element without removing it. Callers must check
// Empty first; Peek on an empty buffer returns the zero value.
func (r *ringBuffer[T]) Peek() T {
	return r.buf[r.readIndex%Capacity]
}

// Pop removes and returns the head element. Callers must check Empty first.
func (r *ringBuffer[T]) Pop() T {
	v := r.buf[r.readIndex%Capacity]
	var zero T
	r.buf[r.readIndex%Capacity] = zero
	r.readIndex++
	r.size--
	return v
}
