package loop

import (
	"fmt"
	"log/slog"
)

// Processor handles one dequeued item.
type Processor[T any] func(item T) error

// Queue is a FIFO drained one item per idle tick. It registers its drain
// callback on the idle signal only while it holds items, so an empty queue
// costs nothing.
//
// A Queue is not safe for concurrent use; call it from the loop goroutine.
type Queue[T any] struct {
	idle    IdleSignal
	process Processor[T]
	log     *slog.Logger

	items  []T
	cancel func()

	processed uint64
	failed    uint64
}

// QueueOption configures a Queue.
type QueueOption func(*queueOptions)

type queueOptions struct {
	log *slog.Logger
}

// WithQueueLogger sets the logger used for processing failures.
func WithQueueLogger(log *slog.Logger) QueueOption {
	return func(o *queueOptions) { o.log = log }
}

// NewQueue creates an empty queue that drains on idle.
func NewQueue[T any](idle IdleSignal, process Processor[T], opts ...QueueOption) *Queue[T] {
	o := queueOptions{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[T]{idle: idle, process: process, log: o.log}
}

// Enqueue appends item and schedules draining if it is not already
// scheduled.
func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
	if q.cancel == nil {
		q.cancel = q.idle.OnIdle(q.drain)
	}
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Scheduled reports whether the drain callback is registered.
func (q *Queue[T]) Scheduled() bool {
	return q.cancel != nil
}

// Processed returns how many items have been handed to the processor.
func (q *Queue[T]) Processed() uint64 {
	return q.processed
}

// Failed returns how many items returned an error or panicked.
func (q *Queue[T]) Failed() uint64 {
	return q.failed
}

// Clear discards every pending item without processing it.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
	q.unschedule()
}

func (q *Queue[T]) drain() {
	if len(q.items) == 0 {
		q.unschedule()
		return
	}

	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]

	q.processed++
	if err := q.run(item); err != nil {
		q.failed++
		q.log.Error("deferred job failed", "err", err, "remaining", len(q.items))
	}

	if len(q.items) == 0 {
		q.unschedule()
	}
}

func (q *Queue[T]) run(item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return q.process(item)
}

func (q *Queue[T]) unschedule() {
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}
