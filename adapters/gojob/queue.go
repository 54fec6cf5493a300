package gojob

import (
	"context"
	"fmt"
	"sync"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/google/uuid"
)

// MemoryQueue is an in-process queue for single-node deployments. Messages
// with the drop dedup policy are ignored while one with the same idempotency
// key is still pending or in flight; the caller gets the original receipt.
type MemoryQueue struct {
	mu          sync.Mutex
	ready       chan *job.ExecutionMessage
	pending     map[string]queue.EnqueueReceipt
	deadLetters []*job.ExecutionMessage
	closed      bool
	now         func() time.Time
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryQueue{
		ready:   make(chan *job.ExecutionMessage, capacity),
		pending: map[string]queue.EnqueueReceipt{},
		now:     time.Now,
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if msg == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: execution message is required")
	}
	receipt := queue.EnqueueReceipt{DispatchID: uuid.NewString(), EnqueuedAt: q.now().UTC()}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: queue is closed")
	}
	key := msg.IdempotencyKey
	if key != "" && msg.DedupPolicy == job.DedupPolicyDrop {
		if existing, exists := q.pending[key]; exists {
			q.mu.Unlock()
			return existing, nil
		}
		q.pending[key] = receipt
	}
	q.mu.Unlock()

	select {
	case q.ready <- msg:
		return receipt, nil
	case <-ctx.Done():
		q.release(key)
		return queue.EnqueueReceipt{}, ctx.Err()
	}
}

// Dequeue blocks until a message is ready or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	select {
	case msg := <-q.ready:
		return &memoryDelivery{queue: q, msg: msg}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DeadLetters returns messages that exhausted their retries.
func (q *MemoryQueue) DeadLetters() []*job.ExecutionMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*job.ExecutionMessage(nil), q.deadLetters...)
}

// Pending counts messages queued or in flight under an idempotency key.
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func (q *MemoryQueue) release(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.pending, key)
	q.mu.Unlock()
}

func (q *MemoryQueue) requeue(msg *job.ExecutionMessage, delay time.Duration) {
	push := func() {
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			q.release(msg.IdempotencyKey)
			return
		}
		q.ready <- msg
	}
	if delay <= 0 {
		go push()
		return
	}
	time.AfterFunc(delay, push)
}

type memoryDelivery struct {
	queue *MemoryQueue
	msg   *job.ExecutionMessage
	once  sync.Once
}

func (d *memoryDelivery) Message() *job.ExecutionMessage {
	return d.msg
}

func (d *memoryDelivery) Ack(context.Context) error {
	d.once.Do(func() {
		d.queue.release(d.msg.IdempotencyKey)
	})
	return nil
}

// Nack applies the disposition: retry requeues after Delay, dead_letter keeps
// the message for inspection, failed and canceled drop it.
func (d *memoryDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	d.once.Do(func() {
		switch opts.Disposition {
		case queue.NackDispositionDeadLetter:
			d.queue.mu.Lock()
			d.queue.deadLetters = append(d.queue.deadLetters, d.msg)
			d.queue.mu.Unlock()
			d.queue.release(d.msg.IdempotencyKey)
		case queue.NackDispositionRetry:
			d.queue.requeue(d.msg, opts.Delay)
		default:
			d.queue.release(d.msg.IdempotencyKey)
		}
	})
	return nil
}

var (
	_ queue.Enqueuer = (*MemoryQueue)(nil)
	_ queue.Dequeuer = (*MemoryQueue)(nil)
	_ queue.Delivery = (*memoryDelivery)(nil)
)
