package writeq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when enqueueing on a closed Queue.
var ErrClosed = errors.New("write queue closed")

// Write is one durable operation.
type Write struct {
	Op   string
	Func func(ctx context.Context) error
}

// Queue runs writes one at a time in FIFO order.
type Queue struct {
	ch      chan Write
	done    chan struct{}
	wg      sync.WaitGroup
	onError func(op string, err error)
	failed  atomic.Uint64

	mu       sync.Mutex
	enqueued uint64
	applied  uint64
	progress chan struct{}

	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// New starts a Queue with the given buffer. onError may be nil.
func New(buffer int, onError func(op string, err error)) *Queue {
	if buffer <= 0 {
		buffer = 1
	}
	if onError == nil {
		onError = func(string, error) {}
	}

	q := &Queue{
		ch:       make(chan Write, buffer),
		done:     make(chan struct{}),
		onError:  onError,
		progress: make(chan struct{}),
	}

	q.wg.Add(1)
	go q.run()

	return q
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		select {
		case w := <-q.ch:
			q.apply(w)
		case <-q.done:
			for {
				select {
				case w := <-q.ch:
					q.apply(w)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) apply(w Write) {
	if err := w.Func(context.Background()); err != nil {
		q.failed.Add(1)
		q.onError(w.Op, err)
	}

	q.mu.Lock()
	q.applied++
	close(q.progress)
	q.progress = make(chan struct{})
	q.mu.Unlock()
}

// Enqueue schedules w behind every previously enqueued write. It blocks only
// while the buffer is full.
func (q *Queue) Enqueue(w Write) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	q.mu.Lock()
	q.enqueued++
	q.mu.Unlock()

	q.ch <- w
	return nil
}

// Flush waits until every write enqueued before the call has been applied.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	target := q.enqueued
	q.mu.Unlock()

	for {
		q.mu.Lock()
		if q.applied >= target {
			q.mu.Unlock()
			return nil
		}
		progress := q.progress
		q.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Failed returns how many writes returned an error.
func (q *Queue) Failed() uint64 {
	if q == nil {
		return 0
	}
	return q.failed.Load()
}

// Close applies queued writes and stops the worker.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.closeOnce.Do(func() {
		q.closeMu.Lock()
		q.closed = true
		q.closeMu.Unlock()
		close(q.done)
		q.wg.Wait()
	})
}
