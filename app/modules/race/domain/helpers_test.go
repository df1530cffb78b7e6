package racedomain

import (
	"fmt"
	"time"
)

func hms(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func dp(d time.Duration) *time.Duration { return &d }

func newTestParticipant(n uint, class *Class) *RaceParticipant {
	p := &Participant{
		ID:        fmt.Sprintf("p%d", n),
		Name:      fmt.Sprintf("Name %d", n),
		Firstname: fmt.Sprintf("First %d", n),
		Class:     class,
	}
	if class != nil {
		p.Category = class.Category
	}
	return &RaceParticipant{Participant: p, StartNumber: n, Points: NoPoints}
}

func resultWith(p *RaceParticipant, start, finish time.Duration) *RunResult {
	r := NewRunResult(p)
	r.SetStartTime(&start, true)
	r.SetFinishTime(&finish, true)
	return r
}
