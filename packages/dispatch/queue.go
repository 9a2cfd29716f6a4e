package dispatch

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/queues/priorityqueue"
)

// Priority orders work within a queue. Higher values run first; equal
// values run in enqueue order.
type Priority int

const (
	PriorityVeryLow  Priority = -8
	PriorityLow      Priority = -4
	PriorityNormal   Priority = 0
	PriorityHigh     Priority = 4
	PriorityVeryHigh Priority = 8
)

// task pairs a unit of work with its scheduling metadata.
type task struct {
	priority Priority
	seq      uint64
	run      func(ctx context.Context)
}

// byPriority dequeues higher priorities first and falls back to enqueue
// order within a priority level.
func byPriority(a, b interface{}) int {
	ta := a.(*task)
	tb := b.(*task)
	if ta.priority != tb.priority {
		return int(tb.priority) - int(ta.priority)
	}
	switch {
	case ta.seq < tb.seq:
		return -1
	case ta.seq > tb.seq:
		return 1
	default:
		return 0
	}
}

// Queue runs submitted tasks one at a time on its own goroutine,
// highest priority first. The context handed to each task is cancelled
// when the queue is cancelled, so blocking work inside a task can be
// interrupted.
type Queue struct {
	mu     sync.Mutex
	heap   *priorityqueue.Queue
	seq    uint64
	closed bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue creates a queue and starts its worker goroutine.
func NewQueue() *Queue {
	q := &Queue{
		heap: priorityqueue.NewWith(byPriority),
		wake: make(chan struct{}, 1),
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	go q.work()
	return q
}

// Enqueue schedules run at the given priority. Enqueue after Cancel is
// a no-op.
func (q *Queue) Enqueue(p Priority, run func(ctx context.Context)) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.seq++
	q.heap.Enqueue(&task{priority: p, seq: q.seq, run: run})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Cancel drops every task that has not started, interrupts the context
// of the running task, and stops the worker. The queue cannot be reused
// afterwards.
func (q *Queue) Cancel() {
	q.mu.Lock()
	q.closed = true
	q.heap.Clear()
	q.mu.Unlock()
	q.cancel()
}

// Stop ends the worker goroutine once the running task, if any, has
// returned. Waiting tasks are dropped, but the running task's context
// is left intact, so a task may call Stop on its own queue. The queue
// cannot be reused afterwards.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.closed = true
	q.heap.Clear()
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many tasks are waiting to run.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Size()
}

func (q *Queue) next() *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.heap.Dequeue()
	if !ok {
		return nil
	}
	return v.(*task)
}

func (q *Queue) stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) work() {
	for {
		t := q.next()
		if t == nil {
			if q.stopped() {
				return
			}
			select {
			case <-q.wake:
				continue
			case <-q.ctx.Done():
				return
			}
		}
		select {
		case <-q.ctx.Done():
			return
		default:
		}
		t.run(q.ctx)
	}
}
