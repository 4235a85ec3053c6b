package job

import (
	"time"
)

// Event types, in the order a consumer can expect them.
const (
	EventStarted       = "started"
	EventProgress      = "progress"
	EventLog           = "log"
	EventStageComplete = "stage_complete"
	EventComplete      = "complete"
	EventError         = "error"
)

// Event is one item on a job's event stream.
type Event struct {
	Type      string         `json:"type"`
	JobID     string         `json:"job_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// queueBuffer bounds an event stream. Terminal events are never dropped;
// a consumer that falls this far behind loses intermediate progress events
// instead of blocking the pipeline.
const queueBuffer = 256

// Queue is the pull-based event stream for one job. The producing worker
// never blocks on a slow consumer.
type Queue struct {
	ch chan *Event
}

// NewQueue builds an empty event queue.
func NewQueue() *Queue {
	return &Queue{ch: make(chan *Event, queueBuffer)}
}

// Push enqueues an event, dropping it if the buffer is full.
func (q *Queue) Push(ev *Event) {
	select {
	case q.ch <- ev:
	default:
	}
}

// Next returns the next event, or nil after the timeout elapses with
// nothing available. A nil return is a keepalive signal, not an error or
// end of stream.
func (q *Queue) Next(timeout time.Duration) *Event {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev := <-q.ch:
		return ev
	case <-timer.C:
		return nil
	}
}
