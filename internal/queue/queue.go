// Package queue holds the time-ordered event queue shared by the scheduler and the
// renderer.
package queue

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// DefaultCapacity is the queue size used when none is given.
const DefaultCapacity = 1024

// ErrQueueFull is returned by Add when the queue holds Capacity events.
var ErrQueueFull = errors.New("event queue full")

// Queue orders events by time, then by submission order. All access goes through a
// single mutex that is held only while the slice is mutated or scanned.
type Queue struct {
	mu      sync.Mutex
	entries []contracts.Event
	cap     int
}

// New returns a queue holding at most capacity pending events.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		entries: make([]contracts.Event, 0, capacity),
		cap:     capacity,
	}
}

// Add inserts e after every queued event with the same or an earlier time.
func (q *Queue) Add(e contracts.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.cap {
		return fmt.Errorf("%w: %d pending", ErrQueueFull, len(q.entries))
	}

	i := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].Time > e.Time
	})
	q.entries = append(q.entries, contracts.Event{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = e
	return nil
}

// Due appends every event with Time <= now to dst, in queue order, and removes them
// from the queue. Each event is therefore returned by exactly one call.
func (q *Queue) Due(now int64, dst []contracts.Event) []contracts.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for n < len(q.entries) && q.entries[n].Time <= now {
		n++
	}
	dst = append(dst, q.entries[:n]...)
	if n == 0 {
		return dst
	}
	rest := copy(q.entries, q.entries[n:])
	clear(q.entries[rest:])
	q.entries = q.entries[:rest]
	return dst
}

// Next returns the time of the earliest pending event.
func (q *Queue) Next() (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return 0, false
	}
	return q.entries[0].Time, true
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Capacity returns the maximum number of pending events.
func (q *Queue) Capacity() int { return q.cap }

// Clear drops every pending event.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.entries)
	q.entries = q.entries[:0]
}
