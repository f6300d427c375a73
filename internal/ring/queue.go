// Package ring provides the FIFO work queue used by the arena's
// collector to hold gray objects.
package ring

import "math/bits"

// Queue is a slice-backed FIFO queue. The zero value is an
// empty queue ready to use.
type Queue[T any] struct {
	// buf holds the backing slice. Its length
	// is always a power of two or zero.
	buf []T

	// head indexes the first element; the queue
	// occupies buf[head:head+n] modulo len(buf).
	head int
	n    int
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return q.n
}

// Push adds x to the end of the queue.
func (q *Queue[T]) Push(x T) {
	if q.n == len(q.buf) {
		q.grow(q.n + 1)
	}
	q.buf[q.mod(q.head+q.n)] = x
	q.n++
}

// Pop removes and returns the element at the front of the queue.
// It panics if the queue is empty.
func (q *Queue[T]) Pop() T {
	if q.n == 0 {
		panic("ring.Queue.Pop called on empty queue")
	}
	x := q.buf[q.head]
	q.buf[q.head] = *new(T)
	q.head = q.mod(q.head + 1)
	q.n--
	return x
}

// Reset empties the queue, keeping its storage.
func (q *Queue[T]) Reset() {
	clear(q.buf)
	q.head = 0
	q.n = 0
}

func (q *Queue[T]) grow(minCap int) {
	newCap := 1 << bits.Len(uint(minCap-1))
	buf := make([]T, newCap)
	if q.head+q.n <= len(q.buf) {
		copy(buf, q.buf[q.head:q.head+q.n])
	} else {
		k := copy(buf, q.buf[q.head:])
		copy(buf[k:], q.buf[:q.n-k])
	}
	q.buf = buf
	q.head = 0
}

// mod relies on len(q.buf) being a power of two.
func (q *Queue[T]) mod(x int) int {
	return x & (len(q.buf) - 1)
}
