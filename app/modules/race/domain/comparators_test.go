package racedomain

import (
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

type sorterFixture struct {
	classM, classW *Class
	men, women     []*RaceParticipant
}

func newSorterFixture() sorterFixture {
	catM := &Category{Code: "M", SortPos: 0}
	catW := &Category{Code: "W", SortPos: 1}
	f := sorterFixture{
		classM: &Class{ID: "2M", Name: "2M (2010)", SortPos: 1, Category: catM},
		classW: &Class{ID: "2W", Name: "2W (2010)", SortPos: 2, Category: catW},
	}
	for i := uint(1); i <= 4; i++ {
		f.men = append(f.men, newTestParticipant(i, f.classM))
	}
	for i := uint(5); i <= 8; i++ {
		f.women = append(f.women, newTestParticipant(i, f.classW))
	}
	return f
}

func TestRuntimeSorter(t *testing.T) {
	f := newSorterFixture()

	rr1 := resultWith(f.men[0], hms(8, 0, 0), hms(8, 1, 0))
	rr2 := resultWith(f.men[1], hms(8, 1, 0), hms(8, 2, 1))
	rr3 := resultWith(f.men[2], hms(8, 2, 0), hms(8, 2, 59))
	rr4 := resultWith(f.men[3], hms(8, 3, 0), hms(8, 4, 0))
	rr3w := resultWith(f.women[2], hms(8, 2, 0), hms(8, 2, 59))

	rs := NewRuntimeSorter()

	assert.Equal(t, -1, rs.Compare(rr1, rr2))
	assert.Equal(t, 1, rs.Compare(rr2, rr1))

	assert.Equal(t, -1, rs.Compare(rr3, rr1))
	assert.Equal(t, -1, rs.Compare(rr3, rr2))

	assert.Equal(t, 0, rs.Compare(rr1, rr1))

	assert.Equal(t, rr1.RunTime(), rr4.RunTime())
	assert.Equal(t, -1, rs.Compare(rr1, rr4), "equal time, lower start number first")

	t.Run("normal with time beats every flagged result", func(t *testing.T) {
		for _, code := range []ResultCode{ResultCodeNotStarted, ResultCodeNotFinished, ResultCodeDisqualified, ResultCodeNotQualified, ResultCodeNotSet} {
			flagged := resultWith(f.men[1], hms(8, 0, 0), hms(8, 0, 30))
			flagged.SetResultCode(code, "")
			assert.Equal(t, -1, rs.Compare(rr1, flagged), code.String())
			assert.Equal(t, 1, rs.Compare(flagged, rr1), code.String())
		}
	})

	t.Run("missing times", func(t *testing.T) {
		dns1 := NewRunResult(f.men[0])
		dns1.SetResultCode(ResultCodeNotStarted, "")
		dns2 := NewRunResult(f.men[1])
		dns2.SetResultCode(ResultCodeNotStarted, "")
		dns4 := NewRunResult(f.men[3])
		dns4.SetResultCode(ResultCodeDisqualified, "")
		open3 := NewRunResult(f.men[2])

		assert.Equal(t, -1, rs.Compare(dns1, dns2), "start number decides")
		assert.Equal(t, -1, rs.Compare(dns4, open3), "decided status before NotSet")

		plain := &RuntimeSorter{}
		assert.Equal(t, 1, plain.Compare(dns4, open3), "start number only without the policy")
	})

	t.Run("grouping", func(t *testing.T) {
		assert.Equal(t, -1, rs.Compare(rr3w, rr1))
		rs.SetGrouping(GroupingClass)
		assert.Equal(t, 1, rs.Compare(rr3w, rr1))
		rs.SetGrouping(GroupingNone)
		assert.Equal(t, -1, rs.Compare(rr3w, rr1))
	})
}

func TestRuntimeSorter_LiveRankingOrder(t *testing.T) {
	f := newSorterFixture()
	var ps []*RaceParticipant
	for i := uint(1); i <= 6; i++ {
		ps = append(ps, newTestParticipant(i, f.classM))
	}
	results := []*RunResult{
		resultWith(ps[0], hms(8, 0, 0), hms(8, 1, 0)),
		resultWith(ps[1], hms(8, 1, 0), hms(8, 2, 1)),
		resultWith(ps[2], hms(8, 2, 0), hms(8, 2, 59)),
		NewRunResult(ps[3]),
		resultWith(ps[4], hms(8, 3, 0), hms(8, 3, 59)+990*time.Millisecond),
		resultWith(ps[5], hms(8, 4, 0), hms(8, 5, 0)),
	}
	results[3].SetResultCode(ResultCodeNotStarted, "")

	rs := NewRuntimeSorter()
	rs.SetGrouping(GroupingClass)
	slices.SortFunc(results, rs.Compare)

	var got []uint
	for _, r := range results {
		got = append(got, r.StartNumber())
	}
	if diff := cmp.Diff([]uint{3, 5, 1, 6, 2, 4}, got); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestTotalTimeSorter(t *testing.T) {
	f := newSorterFixture()
	a := NewRaceResultItem(f.men[0])
	a.TotalTime = dp(2 * time.Minute)
	b := NewRaceResultItem(f.men[1])
	b.TotalTime = dp(2*time.Minute - time.Second)
	c := NewRaceResultItem(f.men[2])
	c.ResultCode = ResultCodeDisqualified
	d := NewRaceResultItem(f.women[0])
	d.TotalTime = dp(time.Minute)

	s := NewTotalTimeSorter()
	items := []*RaceResultItem{a, c, d, b}
	slices.SortFunc(items, s.Compare)
	assert.Equal(t, []*RaceResultItem{d, b, a, c}, items)

	s.SetGrouping(GroupingCategory)
	slices.SortFunc(items, s.Compare)
	assert.Equal(t, []*RaceResultItem{b, a, c, d}, items)
}

func TestStartListEntryComparer(t *testing.T) {
	f := newSorterFixture()
	entries := []*StartListEntry{
		{Participant: f.women[0]},
		{Participant: f.men[2]},
		{Participant: f.men[0]},
	}

	c := &StartListEntryComparer{}
	slices.SortFunc(entries, c.Compare)
	assert.Equal(t, []uint{1, 3, 5}, []uint{entries[0].StartNumber(), entries[1].StartNumber(), entries[2].StartNumber()})

	f.women[0].StartNumber = 0
	c.SetGrouping(GroupingClass)
	slices.SortFunc(entries, c.Compare)
	assert.Equal(t, []uint{1, 3, 0}, []uint{entries[0].StartNumber(), entries[1].StartNumber(), entries[2].StartNumber()})
}

func TestCompareStartNumbersNeverEqualForDistinctParticipants(t *testing.T) {
	a := newTestParticipant(7, nil)
	b := newTestParticipant(8, nil)
	b.StartNumber = 7

	assert.NotZero(t, CompareStartNumbers(a, b))
	assert.Equal(t, -CompareStartNumbers(a, b), CompareStartNumbers(b, a))
}
