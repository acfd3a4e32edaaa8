package flow

import "context"

// DefaultQueueCapacity bounds every stage queue unless overridden.
const DefaultQueueCapacity = 128

// message is the closed set of values carried by a stage queue.
type message interface {
	isMessage()
}

// envelope pairs an item with the shared route table so the worker holding it
// can forward it without knowing the pipeline topology. The path is only
// touched by the current owner.
type envelope struct {
	item   Item
	id     string
	index  int
	path   []Stage
	routes *routes
}

// shutdown tells exactly one consumer of a queue to stop.
type shutdown struct{}

func (*envelope) isMessage() {}
func (shutdown) isMessage()  {}

// Queue is a bounded FIFO of envelopes and shutdown signals. A full queue
// blocks producers.
type Queue struct {
	stage Stage
	ch    chan message
}

func newQueue(stage Stage, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{stage: stage, ch: make(chan message, capacity)}
}

// Stage returns the stage this queue feeds.
func (q *Queue) Stage() Stage { return q.stage }

// Len returns the number of buffered messages.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

func (q *Queue) put(ctx context.Context, msg message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) take(ctx context.Context) (message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// routes maps every known stage to its queue. It is built once per run and
// never written afterwards, so envelopes share it without locking.
type routes struct {
	queues map[Stage]*Queue
}

func newRoutes(capacity int, overrides map[Stage]int) *routes {
	r := &routes{queues: make(map[Stage]*Queue, len(stageNames))}
	for _, stage := range Stages() {
		size := capacity
		if n, ok := overrides[stage]; ok && n > 0 {
			size = n
		}
		r.queues[stage] = newQueue(stage, size)
	}
	return r
}

func (r *routes) lookup(stage Stage) (*Queue, bool) {
	q, ok := r.queues[stage]
	return q, ok
}

// pending counts envelopes and signals still buffered across all queues.
func (r *routes) pending() int {
	total := 0
	for _, q := range r.queues {
		total += q.Len()
	}
	return total
}
