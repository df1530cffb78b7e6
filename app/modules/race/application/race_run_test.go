package raceservice

import (
	"testing"
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceRun_MutationsPublishChangedFields(t *testing.T) {
	race := newTestRace(2, 2)
	run, err := race.Run(1)
	require.NoError(t, err)
	rec := &eventRecorder{}
	race.Hub().Subscribe(TopicRunResultChanged, run.PublisherID(), rec.record)
	rp := race.ParticipantByID("p1")

	require.NoError(t, run.SetStartTime(rp, dp(10*time.Second)))
	require.NoError(t, run.SetFinishTime(rp, dp(72*time.Second+340*time.Millisecond)))
	// Unchanged value, no event.
	require.NoError(t, run.SetFinishTime(rp, dp(72*time.Second+340*time.Millisecond)))

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, racedomain.FieldStartTime|racedomain.FieldResultCode, events[0].Fields)
	assert.Equal(t, racedomain.FieldFinishTime, events[1].Fields)
	assert.Equal(t, 1, events[1].Run)
	assert.Equal(t, dp(62*time.Second+340*time.Millisecond), events[1].Result.RunTime())
}

func TestRaceRun_SetStartFinishTimeSingleNotification(t *testing.T) {
	race := newTestRace(1, 1)
	run, _ := race.Run(1)
	rec := &eventRecorder{}
	race.Hub().Subscribe(TopicRunResultChanged, "", rec.record)

	require.NoError(t, run.SetStartFinishTime(race.ParticipantByID("p1"), dp(time.Second), dp(3*time.Second)))

	events := rec.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].Fields.Has(racedomain.FieldStartTime))
	assert.True(t, events[0].Fields.Has(racedomain.FieldFinishTime))
}

func TestRaceRun_UnknownParticipant(t *testing.T) {
	race := newTestRace(1, 1)
	run, _ := race.Run(1)
	stranger := &racedomain.RaceParticipant{Participant: newParticipant(9), StartNumber: 9}

	assert.ErrorIs(t, run.SetStartTime(stranger, dp(time.Second)), ErrParticipantNotInRun)
	assert.ErrorIs(t, run.SetStartTime(nil, dp(time.Second)), ErrParticipantNotInRun)
}

func TestRaceRun_UpdateAndDelete(t *testing.T) {
	race := newTestRace(1, 2)
	run, _ := race.Run(1)
	rp := race.ParticipantByID("p2")

	next := run.Result("p2").Clone()
	next.SetRunTime(dp(45*time.Second), true)
	require.NoError(t, run.UpdateRunResult(next))
	assert.Equal(t, dp(45*time.Second), run.Result("p2").RunTime())
	assert.True(t, run.HasResults())

	other := racedomain.NewRunResult(race.ParticipantByID("p1"))
	other.SetRunTime(dp(time.Second), true)
	require.NoError(t, run.UpdateRunResult(other))
	assert.Equal(t, dp(time.Second), run.Result("p1").RunTime())

	require.NoError(t, run.DeleteRunResult(rp))
	assert.True(t, run.Result("p2").IsEmpty())

	rec := &eventRecorder{}
	race.Hub().Subscribe(TopicRunResultChanged, "", rec.record)
	run.DeleteRunResults()
	assert.False(t, run.HasResults())
	// Only p1 still held data.
	assert.Len(t, rec.Events(), 1)
}

func TestRaceRun_ResultCode(t *testing.T) {
	race := newTestRace(1, 1)
	run, _ := race.Run(1)
	rp := race.ParticipantByID("p1")

	require.NoError(t, run.SetResultCode(rp, racedomain.ResultCodeDisqualified, " gate 12 "))
	res := run.Result("p1")
	assert.Equal(t, racedomain.ResultCodeDisqualified, res.ResultCode())
	assert.Equal(t, "gate 12", res.DisqualText())
	assert.Nil(t, res.RunTime())
}
