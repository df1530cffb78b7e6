package racenotify

import (
	"context"
	"sync"
	"testing"
	"time"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	watermillutil "github.com/Black-And-White-Club/slalom-timing/internal/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakePublisher records published messages.
type FakePublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
	received chan struct{}
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{messages: map[string][]*message.Message{}, received: make(chan struct{}, 64)}
}

func (f *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	f.mu.Lock()
	f.messages[topic] = append(f.messages[topic], msgs...)
	f.mu.Unlock()
	for range msgs {
		f.received <- struct{}{}
	}
	return nil
}

func (f *FakePublisher) Close() error { return nil }

func (f *FakePublisher) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.received:
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of %d messages", i, n)
		}
	}
}

func (f *FakePublisher) results(t *testing.T) []ResultChangedPayload {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ResultChangedPayload
	for _, msg := range f.messages[TopicResultChangedV1] {
		var p ResultChangedPayload
		require.NoError(t, watermillutil.Marshaler.Unmarshal(msg, &p))
		out = append(out, p)
	}
	return out
}

func TestResultPublisher_OneMessagePerField(t *testing.T) {
	race := raceservice.NewRace("r1", 1, nil)
	rp, err := race.AddParticipant(&racedomain.Participant{ID: "p1", Name: "Name 1"}, 7, racedomain.NoPoints)
	require.NoError(t, err)

	pub := NewFakePublisher()
	p := NewResultPublisher(race, pub, nil, 16)
	fixed := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }
	p.Attach()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	run, _ := race.Run(1)
	start := 10 * time.Second
	require.NoError(t, run.SetStartTime(rp, &start))
	pub.wait(t, 2)

	got := pub.results(t)
	require.Len(t, got, 2)
	assert.True(t, fixed.Equal(got[0].ChangedAt))
	got[0].ChangedAt = time.Time{}
	assert.Equal(t, ResultChangedPayload{
		RaceID: "r1", Run: 1, ParticipantID: "p1", StartNumber: 7,
		Field: "start_time", Value: "10.00", Sequence: 1,
	}, got[0])
	assert.Equal(t, "result_code", got[1].Field)
	assert.Equal(t, "Normal", got[1].Value)
	assert.Equal(t, uint64(2), got[1].Sequence)

	p.Detach()
	require.NoError(t, run.SetStartTime(rp, nil))
	assert.Zero(t, race.Hub().Len())
}

func TestResultPublisher_RosterAndOverflow(t *testing.T) {
	race := raceservice.NewRace("r1", 1, nil)
	pub := NewFakePublisher()
	p := NewResultPublisher(race, pub, nil, 1)
	p.Attach()

	_, err := race.AddParticipant(&racedomain.Participant{ID: "p1"}, 1, racedomain.NoPoints)
	require.NoError(t, err)
	_, err = race.AddParticipant(&racedomain.Participant{ID: "p2"}, 2, racedomain.NoPoints)
	require.NoError(t, err)

	// Nothing drains the outbox yet.
	assert.Equal(t, uint64(1), p.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()
	pub.wait(t, 1)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.messages[TopicRosterChangedV1], 1)
	var payload RosterChangedPayload
	require.NoError(t, watermillutil.Marshaler.Unmarshal(pub.messages[TopicRosterChangedV1][0], &payload))
	assert.Equal(t, "added", payload.Change)
	assert.Equal(t, "p1", payload.ParticipantID)
}

func TestResultPublisher_BusDeliversInSequence(t *testing.T) {
	race := raceservice.NewRace("r1", 1, nil)
	rp, err := race.AddParticipant(&racedomain.Participant{ID: "p1"}, 1, racedomain.NoPoints)
	require.NoError(t, err)

	ps := watermillutil.NewPubSub(nil, 0)
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := ps.Subscribe(ctx, TopicResultChangedV1)
	require.NoError(t, err)

	p := NewResultPublisher(race, ps, nil, 64)
	p.Attach()
	go func() { _ = p.Run(ctx) }()

	run, _ := race.Run(1)
	start := 10 * time.Second
	require.NoError(t, run.SetStartTime(rp, &start))
	for _, s := range []int{70, 71, 72} {
		finish := time.Duration(s) * time.Second
		require.NoError(t, run.SetFinishTime(rp, &finish))
	}
	total := p.seq

	var got []ResultChangedPayload
	for uint64(len(got)) < total {
		select {
		case msg := <-messages:
			var payload ResultChangedPayload
			require.NoError(t, watermillutil.Marshaler.Unmarshal(msg, &payload))
			msg.Ack()
			got = append(got, payload)
		case <-ctx.Done():
			t.Fatalf("received %d of %d notifications", len(got), total)
		}
	}

	var lastFinish string
	for i, payload := range got {
		assert.Equal(t, uint64(i+1), payload.Sequence)
		if payload.Field == racedomain.FieldFinishTime.String() {
			lastFinish = payload.Value
		}
	}
	assert.Equal(t, "1:12.00", lastFinish)
}
