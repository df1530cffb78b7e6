package raceviews

import "time"

// highlighter clears just modified flags once their duration has elapsed.
// A new mark for the same id restarts the timer.
type highlighter struct {
	scheduler Scheduler
	duration  time.Duration
	pending   map[string]pendingMark
	gen       uint64
}

type pendingMark struct {
	gen  uint64
	stop func()
}

func newHighlighter(s Scheduler, d time.Duration) *highlighter {
	return &highlighter{scheduler: s, duration: d, pending: map[string]pendingMark{}}
}

// mark schedules clear for id and reports whether the entry should be flagged.
func (h *highlighter) mark(id string, clear func(id string)) bool {
	if h.scheduler == nil {
		return false
	}
	h.cancel(id)
	h.gen++
	gen := h.gen
	stop := h.scheduler.AfterFunc(h.duration, func() {
		// A timer that already fired may still be queued after a re-mark.
		if p, ok := h.pending[id]; !ok || p.gen != gen {
			return
		}
		delete(h.pending, id)
		clear(id)
	})
	h.pending[id] = pendingMark{gen: gen, stop: stop}
	return true
}

func (h *highlighter) cancel(id string) {
	if p, ok := h.pending[id]; ok {
		p.stop()
		delete(h.pending, id)
	}
}

func (h *highlighter) stop() {
	for id := range h.pending {
		h.cancel(id)
	}
}
