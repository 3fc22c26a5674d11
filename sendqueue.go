package asyncnet

import (
	"sync"

	"github.com/eapache/queue"
)

// sendQueue is the outbound FIFO of a connection. Any goroutine may enqueue;
// only the send completion path dequeues.
type sendQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newSendQueue() *sendQueue {
	return &sendQueue{q: queue.New()}
}

// Enqueue appends an operation at the tail.
func (s *sendQueue) Enqueue(op *TransferOperation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q.Add(op)
}

// Dequeue removes the head. It returns false if the queue is empty.
func (s *sendQueue) Dequeue() (*TransferOperation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.q.Length() == 0 {
		return nil, false
	}
	op, ok := s.q.Remove().(*TransferOperation)

	return op, ok
}

// Len returns the number of queued operations.
func (s *sendQueue) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Length()
}

// Clear drops every queued operation and returns how many were dropped.
func (s *sendQueue) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.q.Length()
	s.q = queue.New()

	return n
}
