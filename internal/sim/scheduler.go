package sim

import (
	"container/heap"
	"context"
)

// EventFunc is executed when its event fires.
type EventFunc func()

type event struct {
	at  float64
	seq int64
	fn  EventFunc
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(*event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// Scheduler is a single-threaded virtual-time event queue. Events at equal
// times fire in schedule order, which the determinism guarantees rely on.
type Scheduler struct {
	events eventHeap
	now    float64
	seq    int64
}

// NewScheduler returns a scheduler at time zero.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.events)
	return s
}

// Now returns the current virtual time in seconds.
func (s *Scheduler) Now() float64 { return s.now }

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int { return len(s.events) }

// ScheduleAfter queues fn to fire delay seconds from now. Negative delays
// fire immediately, after events already queued for the current time.
func (s *Scheduler) ScheduleAfter(delay float64, fn EventFunc) {
	if delay < 0 {
		delay = 0
	}
	s.ScheduleAt(s.now+delay, fn)
}

// ScheduleAt queues fn to fire at an absolute virtual time.
func (s *Scheduler) ScheduleAt(at float64, fn EventFunc) {
	if at < s.now {
		at = s.now
	}
	s.seq++
	heap.Push(&s.events, &event{at: at, seq: s.seq, fn: fn})
}

// Run executes events in order until the queue is drained, virtual time
// passes until, or ctx is canceled. Pending events past the horizon are
// discarded without firing.
func (s *Scheduler) Run(ctx context.Context, until float64) error {
	for len(s.events) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := s.events[0]
		if next.at > until {
			break
		}
		heap.Pop(&s.events)
		s.now = next.at
		next.fn()
	}
	s.now = until
	s.events = nil
	return nil
}
