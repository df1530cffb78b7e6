package raceviews

import (
	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
)

// subscribeRoster forwards roster changes of race to fn.
func subscribeRoster(race *raceservice.Race, fn func(ChangeKind, string)) []raceservice.SubscriptionID {
	hub := race.Hub()
	on := func(topic raceservice.Topic, kind ChangeKind) raceservice.SubscriptionID {
		return hub.Subscribe(topic, race.PublisherID(), func(ev raceservice.Event) {
			fn(kind, ev.ParticipantID())
		})
	}
	return []raceservice.SubscriptionID{
		on(raceservice.TopicParticipantAdded, ChangeAdded),
		on(raceservice.TopicParticipantRemoved, ChangeRemoved),
		on(raceservice.TopicParticipantUpdated, ChangeUpdated),
		on(raceservice.TopicClassificationChanged, ChangeRegrouped),
	}
}

// subscribeResults forwards result changes of run to fn.
func subscribeResults(run *raceservice.RaceRun, fn func(ChangeKind, string)) raceservice.SubscriptionID {
	return run.Race().Hub().Subscribe(raceservice.TopicRunResultChanged, run.PublisherID(), func(ev raceservice.Event) {
		fn(ChangeResult, ev.ParticipantID())
	})
}
