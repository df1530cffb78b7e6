package raceservice

import (
	"fmt"
	"sync"
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

func dp(d time.Duration) *time.Duration { return &d }

func newParticipant(n int) *racedomain.Participant {
	return &racedomain.Participant{
		ID:        fmt.Sprintf("p%d", n),
		Name:      fmt.Sprintf("Name %d", n),
		Firstname: fmt.Sprintf("Firstname %d", n),
		Year:      uint(2000 + n),
	}
}

// newTestRace registers n participants with start numbers 1..n.
func newTestRace(runs, n int) *Race {
	race := NewRace("test", runs, NewHub())
	for i := 1; i <= n; i++ {
		if _, err := race.AddParticipant(newParticipant(i), uint(i), racedomain.NoPoints); err != nil {
			panic(err)
		}
	}
	return race
}

// eventRecorder collects hub events. Safe for use across goroutines so that
// tests can inspect it after loop commands returned.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
