package raceservice

import (
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
)

// Topic names a kind of model change.
type Topic string

const (
	TopicParticipantAdded      Topic = "race.participant.added"
	TopicParticipantRemoved    Topic = "race.participant.removed"
	TopicParticipantUpdated    Topic = "race.participant.updated"
	TopicClassificationChanged Topic = "race.classification.changed"
	TopicRunResultChanged      Topic = "race.run.result.changed"
)

// Event is delivered to hub subscribers after the change has been applied.
type Event struct {
	Topic     Topic
	Publisher string
	// Run is 0 for race level events.
	Run         int
	Participant *racedomain.RaceParticipant
	// Fields is set for TopicRunResultChanged.
	Fields racedomain.Field
	// Result is the live result for TopicRunResultChanged. Subscribers must not
	// mutate it.
	Result *racedomain.RunResult
}

// ParticipantID returns the id of the affected participant, "" if none.
func (e Event) ParticipantID() string {
	if e.Participant == nil {
		return ""
	}
	return e.Participant.ID()
}

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id        SubscriptionID
	topic     Topic
	publisher string
	fn        func(Event)
}

// Hub dispatches model events to subscribers filtered by topic and publisher.
//
// A Hub belongs to the model context and is not safe for concurrent use.
type Hub struct {
	subs   []subscription
	nextID SubscriptionID
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers fn for topic. An empty publisher matches every
// publisher.
func (h *Hub) Subscribe(topic Topic, publisher string, fn func(Event)) SubscriptionID {
	h.nextID++
	h.subs = append(h.subs, subscription{id: h.nextID, topic: topic, publisher: publisher, fn: fn})
	return h.nextID
}

func (h *Hub) Unsubscribe(ids ...SubscriptionID) {
	for _, id := range ids {
		for i, s := range h.subs {
			if s.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers ev synchronously in subscription order.
func (h *Hub) Publish(ev Event) {
	subs := h.subs
	for _, s := range subs {
		if s.topic != ev.Topic {
			continue
		}
		if s.publisher != "" && s.publisher != ev.Publisher {
			continue
		}
		s.fn(ev)
	}
}

// Len reports the number of active subscriptions.
func (h *Hub) Len() int {
	return len(h.subs)
}
