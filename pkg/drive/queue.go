// Package drive is the motion path of the rover: a bounded command queue
// fed by external producers and the supervisor loop that consumes it,
// computes kinematics, and drives the motors under the safety interlock.
package drive

import (
	"sync"
	"time"

	"github.com/esp-rover/go-rover/pkg/rover"
)

// DefaultQueueCapacity bounds how many intents can wait for dispatch.
const DefaultQueueCapacity = 10

// Queue is the bounded multi-producer single-consumer ingress for movement
// intents. Producers never block; the consumer polls with a bounded wait so
// it can still run housekeeping when idle.
type Queue struct {
	ch chan rover.Intent

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a queue. capacity <= 0 selects DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan rover.Intent, capacity)}
}

// Enqueue adds an intent without blocking. Returns ErrQueueFull when the
// buffer is at capacity.
func (q *Queue) Enqueue(in rover.Intent) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- in:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue waits up to maxWait for an intent. ok is false on timeout.
func (q *Queue) Dequeue(maxWait time.Duration) (in rover.Intent, ok bool) {
	timer := time.NewTimer(maxWait)
	defer timer.Stop()
	select {
	case in = <-q.ch:
		return in, true
	case <-timer.C:
		return rover.Intent{}, false
	}
}

// Drain discards everything currently queued and reports the count. Called
// on emergency stop and on recovery so stale motion does not replay.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len returns how many intents are waiting.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Close rejects further enqueues. Queued intents remain dequeuable.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
