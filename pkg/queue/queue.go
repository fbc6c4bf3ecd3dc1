// Package queue provides a FIFO container with positional lookup.
package queue

import "iter"

type node[T any] struct {
	value T
	prev  *node[T]
	next  *node[T]
}

// Queue is a doubly linked FIFO. Add, Remove and Peek are O(1);
// FindPosition walks the list. A Queue is not safe for concurrent use.
type Queue[T any] struct {
	head *node[T]
	tail *node[T]
	size int
}

// New returns a queue seeded with elems in order.
func New[T any](elems ...T) *Queue[T] {
	q := &Queue[T]{}
	for _, e := range elems {
		q.Add(e)
	}
	return q
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return q.size
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return q.size <= 0
}

// Add appends v to the back of the queue and returns the new size.
func (q *Queue[T]) Add(v T) int {
	n := &node[T]{value: v, prev: q.tail}
	if q.head == nil {
		q.head = n
	}
	if q.tail != nil {
		q.tail.next = n
	}
	q.tail = n
	q.size++
	return q.size
}

// Remove pops the front element. The bool is false when the queue is empty.
func (q *Queue[T]) Remove() (T, bool) {
	var zero T
	if q.head == nil {
		return zero, false
	}
	n := q.head
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	} else {
		q.head.prev = nil
	}
	n.next = nil
	q.size--
	return n.value, true
}

// Peek returns the front element without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if q.head == nil {
		return zero, false
	}
	return q.head.value, true
}

// FindPosition returns the zero-based index of the first element matching
// pred, or -1 if none does.
func (q *Queue[T]) FindPosition(pred func(T) bool) int {
	pos := 0
	for n := q.head; n != nil; n = n.next {
		if pred(n.value) {
			return pos
		}
		pos++
	}
	return -1
}

// Clear drops every element.
func (q *Queue[T]) Clear() {
	q.head = nil
	q.tail = nil
	q.size = 0
}

// All iterates the queue front to back.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := q.head; n != nil; n = n.next {
			if !yield(n.value) {
				return
			}
		}
	}
}
