package racenotify

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	watermillutil "github.com/Black-And-White-Club/slalom-timing/internal/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	// TopicResultChangedV1 carries one message per changed result field.
	TopicResultChangedV1 = "race.result.changed.v1"
	// TopicRosterChangedV1 carries roster additions, removals and updates.
	TopicRosterChangedV1 = "race.roster.changed.v1"

	DefaultOutboxSize = 1024
)

// ResultChangedPayload describes a single changed field. Times use the race
// time notation, an empty Value means cleared.
type ResultChangedPayload struct {
	RaceID        string    `json:"race_id"`
	Run           int       `json:"run"`
	ParticipantID string    `json:"participant_id"`
	StartNumber   uint      `json:"start_number"`
	Field         string    `json:"field"`
	Value         string    `json:"value"`
	Sequence      uint64    `json:"sequence"`
	ChangedAt     time.Time `json:"changed_at"`
}

// RosterChangedPayload announces a roster change.
type RosterChangedPayload struct {
	RaceID        string    `json:"race_id"`
	Change        string    `json:"change"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Sequence      uint64    `json:"sequence"`
	ChangedAt     time.Time `json:"changed_at"`
}

type outgoing struct {
	topic   string
	payload any
}

// ResultPublisher forwards hub notifications to the message bus. Hub
// callbacks only enqueue; Run does the publishing so the model context never
// waits for the bus.
type ResultPublisher struct {
	race      *raceservice.Race
	publisher message.Publisher
	logger    *slog.Logger
	outbox    chan outgoing
	now       func() time.Time

	seq     uint64
	dropped atomic.Uint64
	subs    []raceservice.SubscriptionID
}

func NewResultPublisher(race *raceservice.Race, publisher message.Publisher, logger *slog.Logger, outboxSize int) *ResultPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &ResultPublisher{
		race:      race,
		publisher: publisher,
		logger:    logger,
		outbox:    make(chan outgoing, outboxSize),
		now:       time.Now,
	}
}

// Attach subscribes to the race hub. Call it from the model context.
func (p *ResultPublisher) Attach() {
	hub := p.race.Hub()
	p.subs = append(p.subs, hub.Subscribe(raceservice.TopicRunResultChanged, "", p.onResult))
	for topic, change := range map[raceservice.Topic]string{
		raceservice.TopicParticipantAdded:      "added",
		raceservice.TopicParticipantRemoved:    "removed",
		raceservice.TopicParticipantUpdated:    "updated",
		raceservice.TopicClassificationChanged: "classification",
	} {
		p.subs = append(p.subs, hub.Subscribe(topic, p.race.PublisherID(), func(ev raceservice.Event) {
			p.seq++
			p.enqueue(TopicRosterChangedV1, RosterChangedPayload{
				RaceID:        p.race.ID(),
				Change:        change,
				ParticipantID: ev.ParticipantID(),
				Sequence:      p.seq,
				ChangedAt:     p.now(),
			})
		}))
	}
}

// Detach drops the hub subscriptions. Call it from the model context.
func (p *ResultPublisher) Detach() {
	p.race.Hub().Unsubscribe(p.subs...)
	p.subs = nil
}

func (p *ResultPublisher) onResult(ev raceservice.Event) {
	for _, f := range ev.Fields.Split() {
		p.seq++
		p.enqueue(TopicResultChangedV1, ResultChangedPayload{
			RaceID:        p.race.ID(),
			Run:           ev.Run,
			ParticipantID: ev.ParticipantID(),
			StartNumber:   ev.Participant.StartNumber,
			Field:         f.String(),
			Value:         fieldValue(ev.Result, f),
			Sequence:      p.seq,
			ChangedAt:     p.now(),
		})
	}
}

func fieldValue(r *racedomain.RunResult, f racedomain.Field) string {
	switch f {
	case racedomain.FieldStartTime:
		return racedomain.FormatOptionalRaceTime(r.StartTime())
	case racedomain.FieldFinishTime:
		return racedomain.FormatOptionalRaceTime(r.FinishTime())
	case racedomain.FieldRunTime:
		return racedomain.FormatOptionalRaceTime(r.ExplicitRunTime())
	case racedomain.FieldResultCode:
		return r.ResultCode().String()
	case racedomain.FieldDisqualText:
		return r.DisqualText()
	}
	return ""
}

func (p *ResultPublisher) enqueue(topic string, payload any) {
	select {
	case p.outbox <- outgoing{topic: topic, payload: payload}:
	default:
		if n := p.dropped.Add(1); n == 1 || n%100 == 0 {
			p.logger.Warn("Result outbox full, dropping notification",
				slog.String("topic", topic),
				slog.Uint64("dropped", n),
			)
		}
	}
}

// Dropped counts notifications lost to a full outbox.
func (p *ResultPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Run publishes queued notifications until ctx is cancelled.
func (p *ResultPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case out := <-p.outbox:
			if err := watermillutil.Publish(ctx, p.publisher, out.topic, out.payload); err != nil {
				p.logger.ErrorContext(ctx, "Failed to publish notification",
					slog.String("topic", out.topic),
					slog.Any("error", err),
				)
			}
		}
	}
}
