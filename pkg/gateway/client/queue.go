package client

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/gweinbach/roulette/pkg/gateway"
)

// queuedOperation is either a parsed operation or the error that parsing
// its frame produced.
type queuedOperation struct {
	op  *gateway.Operation
	err error
}

// operationQueue is an unbounded FIFO. Push never blocks; Pop blocks until
// an item is available or ctx is done.
type operationQueue struct {
	mu    sync.Mutex
	items *linkedlistqueue.Queue
	ready chan struct{}
}

func newOperationQueue() *operationQueue {
	return &operationQueue{
		items: linkedlistqueue.New(),
		ready: make(chan struct{}, 1),
	}
}

func (q *operationQueue) Push(item queuedOperation) {
	q.mu.Lock()
	q.items.Enqueue(item)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *operationQueue) Pop(ctx context.Context) (queuedOperation, error) {
	for {
		q.mu.Lock()
		value, ok := q.items.Dequeue()
		q.mu.Unlock()
		if ok {
			return value.(queuedOperation), nil
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return queuedOperation{}, ctx.Err()
		}
	}
}

func (q *operationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Size()
}
