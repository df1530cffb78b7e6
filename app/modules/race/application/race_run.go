package raceservice

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// RaceRun owns the results of one run.
type RaceRun struct {
	race    *Race
	number  int
	results map[string]*racedomain.RunResult
	order   []string
}

func newRaceRun(race *Race, number int) *RaceRun {
	return &RaceRun{race: race, number: number, results: map[string]*racedomain.RunResult{}}
}

func (rr *RaceRun) Race() *Race { return rr.race }
func (rr *RaceRun) Number() int { return rr.number }

// PublisherID identifies this run's events on the hub.
func (rr *RaceRun) PublisherID() string {
	return rr.race.PublisherID() + "/run:" + strconv.Itoa(rr.number)
}

// Result returns the live result of a participant, nil if not registered.
// Callers outside the model context must use Clone.
func (rr *RaceRun) Result(participantID string) *racedomain.RunResult {
	return rr.results[participantID]
}

// Results returns the live results in registration order.
func (rr *RaceRun) Results() []*racedomain.RunResult {
	out := make([]*racedomain.RunResult, 0, len(rr.order))
	for _, id := range rr.order {
		out = append(out, rr.results[id])
	}
	return out
}

// HasResults reports whether any result holds data.
func (rr *RaceRun) HasResults() bool {
	for _, r := range rr.results {
		if !r.IsEmpty() {
			return true
		}
	}
	return false
}

func (rr *RaceRun) register(rp *racedomain.RaceParticipant) {
	if _, ok := rr.results[rp.ID()]; ok {
		return
	}
	rr.results[rp.ID()] = racedomain.NewRunResult(rp)
	rr.order = append(rr.order, rp.ID())
}

func (rr *RaceRun) unregister(rp *racedomain.RaceParticipant) {
	delete(rr.results, rp.ID())
	rr.order = slices.DeleteFunc(rr.order, func(id string) bool { return id == rp.ID() })
}

func (rr *RaceRun) SetStartTime(rp *racedomain.RaceParticipant, t *time.Duration) error {
	return rr.mutate(rp, func(r *racedomain.RunResult) racedomain.Field {
		return r.SetStartTime(t, true)
	})
}

func (rr *RaceRun) SetFinishTime(rp *racedomain.RaceParticipant, t *time.Duration) error {
	return rr.mutate(rp, func(r *racedomain.RunResult) racedomain.Field {
		return r.SetFinishTime(t, true)
	})
}

func (rr *RaceRun) SetRunTime(rp *racedomain.RaceParticipant, t *time.Duration) error {
	return rr.mutate(rp, func(r *racedomain.RunResult) racedomain.Field {
		return r.SetRunTime(t, true)
	})
}

// SetStartFinishTime sets both times with a single notification.
func (rr *RaceRun) SetStartFinishTime(rp *racedomain.RaceParticipant, start, finish *time.Duration) error {
	return rr.mutate(rp, func(r *racedomain.RunResult) racedomain.Field {
		return r.SetStartTime(start, true) | r.SetFinishTime(finish, true)
	})
}

// SetResultCode sets the status; disqualText is kept for DSQ and NQ only.
func (rr *RaceRun) SetResultCode(rp *racedomain.RaceParticipant, code racedomain.ResultCode, disqualText string) error {
	return rr.mutate(rp, func(r *racedomain.RunResult) racedomain.Field {
		return r.SetResultCode(code, disqualText)
	})
}

// UpdateRunResult reconciles the stored result with other.
func (rr *RaceRun) UpdateRunResult(other *racedomain.RunResult) error {
	var updateErr error
	err := rr.mutate(other.Participant(), func(r *racedomain.RunResult) racedomain.Field {
		var changed racedomain.Field
		changed, updateErr = r.UpdateRunResult(other)
		return changed
	})
	if err != nil {
		return err
	}
	return updateErr
}

// DeleteRunResult resets the participant's result to empty.
func (rr *RaceRun) DeleteRunResult(rp *racedomain.RaceParticipant) error {
	return rr.mutate(rp, func(r *racedomain.RunResult) racedomain.Field {
		return r.Reset()
	})
}

// DeleteRunResults resets every result of the run.
func (rr *RaceRun) DeleteRunResults() {
	for _, id := range slices.Clone(rr.order) {
		r := rr.results[id]
		if changed := r.Reset(); changed != racedomain.FieldNone {
			rr.publish(r, changed)
		}
	}
}

func (rr *RaceRun) mutate(rp *racedomain.RaceParticipant, fn func(*racedomain.RunResult) racedomain.Field) error {
	if rp == nil {
		return fmt.Errorf("%w: nil participant", ErrParticipantNotInRun)
	}
	r, ok := rr.results[rp.ID()]
	if !ok {
		return fmt.Errorf("%w: %s in run %d", ErrParticipantNotInRun, rp.ID(), rr.number)
	}
	if changed := fn(r); changed != racedomain.FieldNone {
		rr.publish(r, changed)
	}
	return nil
}

func (rr *RaceRun) publish(r *racedomain.RunResult, changed racedomain.Field) {
	rr.race.hub.Publish(Event{
		Topic:       TopicRunResultChanged,
		Publisher:   rr.PublisherID(),
		Run:         rr.number,
		Participant: r.Participant(),
		Fields:      changed,
		Result:      r,
	})
}
