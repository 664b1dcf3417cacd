// inputqueue.go - Bounded FIFO of stdin bytes shared between the producer
// goroutine (reading the host terminal) and the main/executor goroutine
// (consuming from GETC/IN).
//
// The producer suspends when the queue is full and resumes as soon as a
// consumer polls; the same mutex/condvar pair provides FIFO ordering.
// Ported from the blocking-producer, two-condvar design in the original
// input queue, restyled around a fixed-size ring buffer.

package main

import "sync"

const inputQueueCapacity = 0x100

// InputQueue is a bounded byte FIFO with blocking and non-blocking
// consumers. Producer is a single background goroutine started by
// TerminalHost; TryPoll/Poll may be called from the executor goroutine.
type InputQueue struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond

	buf              [inputQueueCapacity]byte
	head, tail, size int

	closed bool
}

// NewInputQueue constructs an empty, open queue.
func NewInputQueue() *InputQueue {
	q := &InputQueue{}
	q.notEmpty.L = &q.mu
	q.notFull.L = &q.mu
	return q
}

// Push adds b to the queue, blocking if the queue is currently full. This
// is the producer-side operation; it should only be called from the
// terminal's reader goroutine.
func (q *InputQueue) Push(b byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size == inputQueueCapacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return
	}
	q.buf[q.tail] = b
	q.tail = (q.tail + 1) % inputQueueCapacity
	q.size++
	q.notEmpty.Signal()
}

// TryPoll returns the next byte and true if one is buffered, or (0, false)
// without blocking if the queue is empty.
func (q *InputQueue) TryPoll() (byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return 0, false
	}
	return q.popLocked(), true
}

// Poll blocks until a byte is available and returns it. If the queue is
// closed (producer hit EOF) while empty, Poll blocks indefinitely — chosen
// over an input-closed error so a guest program waiting on GETC simply
// never wakes, matching a disconnected terminal rather than a synthetic
// error the guest ISA has no vector for.
func (q *InputQueue) Poll() byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size == 0 {
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

func (q *InputQueue) popLocked() byte {
	b := q.buf[q.head]
	q.head = (q.head + 1) % inputQueueCapacity
	q.size--
	q.notFull.Signal()
	return b
}

// Close marks the queue closed; pending and future Push calls become no-ops
// so the producer goroutine can exit cleanly on stdin EOF.
func (q *InputQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notFull.Broadcast()
}
