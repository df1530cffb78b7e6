package raceviews

import (
	"fmt"
	"math"
	"testing"
	"time"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	"github.com/stretchr/testify/require"
)

// FakeScheduler keeps scheduled functions until Fire is called.
type FakeScheduler struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (s *FakeScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.stopped = true }
}

// Pending counts timers that were neither stopped nor fired.
func (s *FakeScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Fire runs every pending timer as if its duration had elapsed.
func (s *FakeScheduler) Fire() {
	timers := s.timers
	s.timers = nil
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.fn()
		}
	}
}

var (
	class1 = &racedomain.Class{ID: "c1", Name: "Class 1", SortPos: 1}
	class2 = &racedomain.Class{ID: "c2", Name: "Class 2", SortPos: 2}
)

func dp(d time.Duration) *time.Duration { return &d }

func secs(s float64) *time.Duration {
	return dp(time.Duration(math.Round(s*1000)) * time.Millisecond)
}

func participant(n uint, class *racedomain.Class) *racedomain.Participant {
	return &racedomain.Participant{
		ID:        fmt.Sprintf("p%d", n),
		Name:      fmt.Sprintf("Name %d", n),
		Firstname: fmt.Sprintf("Firstname %d", n),
		Class:     class,
	}
}

func add(t *testing.T, race *raceservice.Race, n uint, class *racedomain.Class, points float64) *racedomain.RaceParticipant {
	t.Helper()
	rp, err := race.AddParticipant(participant(n, class), n, points)
	require.NoError(t, err)
	return rp
}

// setRunTime records start 0 and finish d for participant n.
func setRunTime(t *testing.T, race *raceservice.Race, run int, n uint, d *time.Duration) {
	t.Helper()
	rr, err := race.Run(run)
	require.NoError(t, err)
	rp, err := race.ParticipantByStartNumber(n)
	require.NoError(t, err)
	require.NoError(t, rr.SetStartFinishTime(rp, dp(0), d))
}

func setCode(t *testing.T, race *raceservice.Race, run int, n uint, code racedomain.ResultCode) {
	t.Helper()
	rr, err := race.Run(run)
	require.NoError(t, err)
	rp, err := race.ParticipantByStartNumber(n)
	require.NoError(t, err)
	require.NoError(t, rr.SetResultCode(rp, code, ""))
}

func startNumbers(entries []racedomain.StartListEntry) []uint {
	out := make([]uint, len(entries))
	for i, e := range entries {
		out[i] = e.StartNumber()
	}
	return out
}

func runStartNumbers(entries []racedomain.RunResultWithPosition) []uint {
	out := make([]uint, len(entries))
	for i, e := range entries {
		out[i] = e.Result.StartNumber()
	}
	return out
}

func positions(entries []racedomain.RunResultWithPosition) []uint {
	out := make([]uint, len(entries))
	for i, e := range entries {
		out[i] = e.Position
	}
	return out
}
