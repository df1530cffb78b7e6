package raceviews

import (
	"testing"
	"time"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveRace holds six participants with 60.00, 61.00, 59.00, DNS, 59.99 and
// 60.00 in run 1. Participants 1-3 are in class 1, 4-6 in class 2.
func liveRace(t *testing.T) *raceservice.Race {
	t.Helper()
	race := raceservice.NewRace("r", 2, nil)
	for n := uint(1); n <= 6; n++ {
		class := class1
		if n > 3 {
			class = class2
		}
		add(t, race, n, class, racedomain.NoPoints)
	}
	setRunTime(t, race, 1, 1, secs(60))
	setRunTime(t, race, 1, 2, secs(61))
	setRunTime(t, race, 1, 3, secs(59))
	setCode(t, race, 1, 4, racedomain.ResultCodeNotStarted)
	setRunTime(t, race, 1, 5, secs(59.99))
	setRunTime(t, race, 1, 6, secs(60))
	return race
}

func TestRaceRunResultView_Ranking(t *testing.T) {
	race := liveRace(t)
	run1, _ := race.Run(1)
	v := NewRaceRunResultViewProvider(Options{})
	v.Init(run1)
	defer v.Close()

	list := v.GetViewList()
	assert.Equal(t, []uint{3, 5, 1, 6, 2, 4}, runStartNumbers(list))
	assert.Equal(t, []uint{1, 2, 3, 3, 5, 0}, positions(list))

	assert.Equal(t, dp(0), list[0].DiffToFirst)
	assert.Equal(t, dp(990*time.Millisecond), list[1].DiffToFirst)
	assert.InDelta(t, 990.0/59000.0*100, list[1].DiffToFirstPercentage, 1e-9)
	assert.Nil(t, list[5].DiffToFirst)
}

func TestRaceRunResultView_IncludesParticipantsWithoutResult(t *testing.T) {
	race := raceservice.NewRace("r", 1, nil)
	add(t, race, 1, nil, racedomain.NoPoints)
	add(t, race, 2, nil, racedomain.NoPoints)
	run1, _ := race.Run(1)
	v := NewRaceRunResultViewProvider(Options{})
	v.Init(run1)

	assert.Equal(t, []uint{1, 2}, runStartNumbers(v.GetViewList()))

	setRunTime(t, race, 1, 2, secs(30))
	assert.Equal(t, []uint{2, 1}, runStartNumbers(v.GetViewList()))
	assert.Equal(t, []uint{1, 0}, positions(v.GetViewList()))

	add(t, race, 3, nil, racedomain.NoPoints)
	assert.Equal(t, []uint{2, 1, 3}, runStartNumbers(v.GetViewList()))
	require.NoError(t, race.RemoveParticipant("p1"))
	assert.Equal(t, []uint{2, 3}, runStartNumbers(v.Snapshot()))
}

func TestRaceRunResultView_GroupLocalUpdate(t *testing.T) {
	race := liveRace(t)
	run1, _ := race.Run(1)
	v := NewRaceRunResultViewProvider(Options{Grouping: racedomain.GroupingClass})
	v.Init(run1)

	var reported [][]string
	v.addListener(func(ids []string, full bool) {
		assert.False(t, full)
		reported = append(reported, ids)
	})

	before := v.GetViewList()
	assert.Equal(t, []uint{3, 1, 2, 5, 6, 4}, runStartNumbers(before))
	assert.Equal(t, []uint{1, 2, 3, 1, 2, 0}, positions(before))

	setRunTime(t, race, 1, 6, secs(58))

	after := v.GetViewList()
	assert.Equal(t, []uint{3, 1, 2, 6, 5, 4}, runStartNumbers(after))
	assert.Equal(t, []uint{1, 2, 3, 1, 2, 0}, positions(after))
	for i := 0; i < 3; i++ {
		assert.True(t, before[i].Ranking.Equal(after[i].Ranking))
	}
	require.Len(t, reported, 1)
	assert.ElementsMatch(t, []string{"p5", "p6"}, reported[0])
}

func TestRaceRunResultView_ChangeGrouping(t *testing.T) {
	race := liveRace(t)
	run1, _ := race.Run(1)
	v := NewRaceRunResultViewProvider(Options{})
	v.Init(run1)

	v.ChangeGrouping(racedomain.GroupingClass)
	assert.Equal(t, []uint{3, 1, 2, 5, 6, 4}, runStartNumbers(v.GetViewList()))

	v.ChangeGrouping(racedomain.GroupingNone)
	assert.Equal(t, []uint{3, 5, 1, 6, 2, 4}, runStartNumbers(v.GetViewList()))
	assert.Len(t, v.GetViewList(), 6)
}

func TestRaceRunResultView_JustModified(t *testing.T) {
	race := liveRace(t)
	run1, _ := race.Run(1)
	sched := &FakeScheduler{}
	v := NewRaceRunResultViewProvider(Options{Scheduler: sched})
	v.Init(run1)

	flagged := func() []uint {
		var out []uint
		for _, e := range v.GetViewList() {
			if e.JustModified {
				out = append(out, e.Result.StartNumber())
			}
		}
		return out
	}
	assert.Empty(t, flagged())

	setRunTime(t, race, 1, 2, secs(58))
	assert.Equal(t, []uint{2}, flagged())
	assert.Equal(t, DefaultHighlightDuration, sched.timers[0].d)

	// A second change restarts the timer.
	setRunTime(t, race, 1, 2, secs(57))
	assert.Equal(t, 1, sched.Pending())

	sched.Fire()
	assert.Empty(t, flagged())
	assert.Empty(t, func() []uint {
		var out []uint
		for _, e := range v.Snapshot() {
			if e.JustModified {
				out = append(out, e.Result.StartNumber())
			}
		}
		return out
	}())
}

func TestRaceRunResultView_SnapshotIsDetached(t *testing.T) {
	race := liveRace(t)
	run1, _ := race.Run(1)
	v := NewRaceRunResultViewProvider(Options{})
	v.Init(run1)

	snap := v.Snapshot()
	setRunTime(t, race, 1, 4, secs(10))

	assert.Equal(t, uint(3), snap[0].Result.StartNumber())
	assert.Equal(t, uint(4), v.Snapshot()[0].Result.StartNumber())
	assert.Nil(t, snap[5].Result.RunTime())
}
