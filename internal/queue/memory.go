package queue

import (
	"context"
	"errors"
	"sync"

	"sealbox/internal/domain"
)

// ErrClosed is returned by Enqueue after the queue has been closed.
var ErrClosed = errors.New("delivery queue closed")

// Memory is an in-process delivery queue backed by a buffered channel. It is
// the default backend for single-process deployments and for tests.
type Memory struct {
	mu      sync.Mutex
	ch      chan domain.RecoveryMessage
	done    chan struct{}
	senders sync.WaitGroup
	closed  bool
}

var _ domain.DeliveryQueue = (*Memory)(nil)

// NewMemory returns a memory queue holding at most size pending messages.
func NewMemory(size int) *Memory {
	return &Memory{
		ch:   make(chan domain.RecoveryMessage, size),
		done: make(chan struct{}),
	}
}

// Enqueue adds msg to the queue. It blocks while the queue is full and fails
// if the queue closes or ctx expires first.
func (q *Memory) Enqueue(ctx context.Context, msg domain.RecoveryMessage) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	// Registered under the mutex so Close cannot observe a zero sender count
	// between the closed check and the send below.
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- msg:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages exposes the delivery stream. A sender-side worker ranges over it
// and retransmits each requested message.
func (q *Memory) Messages() <-chan domain.RecoveryMessage {
	return q.ch
}

// Close stops accepting new messages, releases any sender blocked on a full
// queue, and ends the consumer stream once the backlog drains. The channel is
// closed only after every in-flight Enqueue has returned, so a parked sender
// can never hit a closed channel.
func (q *Memory) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.senders.Wait()
	close(q.ch)
	return nil
}
