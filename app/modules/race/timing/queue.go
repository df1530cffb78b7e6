package timing

import "sync/atomic"

// EventQueue is a bounded queue that discards the oldest event when full.
// It has a single producer; any number of consumers may receive from C.
type EventQueue struct {
	ch      chan Event
	dropped atomic.Uint64
}

func NewEventQueue(size int) *EventQueue {
	if size < 1 {
		size = 1
	}
	return &EventQueue{ch: make(chan Event, size)}
}

// Push never blocks. It reports false if an older event had to be dropped.
func (q *EventQueue) Push(ev Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
	}
	select {
	case <-q.ch:
		q.dropped.Add(1)
	default:
	}
	select {
	case q.ch <- ev:
	default:
		q.dropped.Add(1)
	}
	return false
}

// C delivers queued events; it is closed by Close.
func (q *EventQueue) C() <-chan Event { return q.ch }

func (q *EventQueue) Dropped() uint64 { return q.dropped.Load() }

func (q *EventQueue) Len() int { return len(q.ch) }

// Close must only be called by the producer.
func (q *EventQueue) Close() { close(q.ch) }
