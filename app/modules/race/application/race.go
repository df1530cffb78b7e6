package raceservice

import (
	"fmt"
	"slices"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// Race is the aggregate of a roster and its runs. Every mutation publishes a
// hub event after it has been applied.
type Race struct {
	id           string
	hub          *Hub
	participants []*racedomain.RaceParticipant
	runs         []*RaceRun
}

// NewRace creates a race with runCount runs numbered from 1.
func NewRace(id string, runCount int, hub *Hub) *Race {
	if hub == nil {
		hub = NewHub()
	}
	r := &Race{id: id, hub: hub}
	for n := 1; n <= runCount; n++ {
		r.runs = append(r.runs, newRaceRun(r, n))
	}
	return r
}

func (r *Race) ID() string    { return r.id }
func (r *Race) Hub() *Hub     { return r.hub }
func (r *Race) RunCount() int { return len(r.runs) }

// PublisherID identifies race level events on the hub.
func (r *Race) PublisherID() string {
	return "race:" + r.id
}

// Participants returns the roster in registration order.
func (r *Race) Participants() []*racedomain.RaceParticipant {
	return slices.Clone(r.participants)
}

// ParticipantByID returns nil if id is not registered.
func (r *Race) ParticipantByID(id string) *racedomain.RaceParticipant {
	for _, p := range r.participants {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

// ParticipantByStartNumber resolves a start number as reported by timing.
func (r *Race) ParticipantByStartNumber(startNumber uint) (*racedomain.RaceParticipant, error) {
	var found *racedomain.RaceParticipant
	for _, p := range r.participants {
		if p.StartNumber != startNumber {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %d", ErrAmbiguousStartNumber, startNumber)
		}
		found = p
	}
	if found == nil || startNumber == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStartNumber, startNumber)
	}
	return found, nil
}

// Run returns run n, counting from 1.
func (r *Race) Run(n int) (*RaceRun, error) {
	if n < 1 || n > len(r.runs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRun, n)
	}
	return r.runs[n-1], nil
}

// Runs returns all runs in order.
func (r *Race) Runs() []*RaceRun {
	return slices.Clone(r.runs)
}

// AddParticipant registers p for the race and every run.
func (r *Race) AddParticipant(p *racedomain.Participant, startNumber uint, points float64) (*racedomain.RaceParticipant, error) {
	if r.ParticipantByID(p.ID) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.ID)
	}
	rp := &racedomain.RaceParticipant{Participant: p, StartNumber: startNumber, Points: points}
	r.participants = append(r.participants, rp)
	for _, run := range r.runs {
		run.register(rp)
	}
	r.publish(TopicParticipantAdded, rp)
	return rp, nil
}

// RemoveParticipant drops the participant and its results from every run.
func (r *Race) RemoveParticipant(id string) error {
	idx := slices.IndexFunc(r.participants, func(p *racedomain.RaceParticipant) bool { return p.ID() == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
	}
	rp := r.participants[idx]
	r.participants = slices.Delete(r.participants, idx, idx+1)
	for _, run := range r.runs {
		run.unregister(rp)
	}
	r.publish(TopicParticipantRemoved, rp)
	return nil
}

// SetStartNumber reassigns a start number. Duplicates are tolerated so that
// numbers can be swapped one at a time.
func (r *Race) SetStartNumber(id string, startNumber uint) error {
	return r.UpdateParticipant(id, func(rp *racedomain.RaceParticipant) {
		rp.StartNumber = startNumber
	})
}

// SetPoints replaces the pre-race points.
func (r *Race) SetPoints(id string, points float64) error {
	return r.UpdateParticipant(id, func(rp *racedomain.RaceParticipant) {
		rp.Points = points
	})
}

// UpdateParticipant applies fn and notifies subscribers.
func (r *Race) UpdateParticipant(id string, fn func(*racedomain.RaceParticipant)) error {
	rp := r.ParticipantByID(id)
	if rp == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
	}
	fn(rp)
	r.publish(TopicParticipantUpdated, rp)
	return nil
}

// ClassificationChanged announces edits to classes, groups or categories
// shared by many participants.
func (r *Race) ClassificationChanged() {
	r.publish(TopicClassificationChanged, nil)
}

func (r *Race) publish(topic Topic, rp *racedomain.RaceParticipant) {
	r.hub.Publish(Event{Topic: topic, Publisher: r.PublisherID(), Participant: rp})
}
