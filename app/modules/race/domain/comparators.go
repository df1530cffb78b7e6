package racedomain

import (
	"cmp"
	"time"
)

// SortDirection orders start lists by a previous ranking.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// RuntimeSorter ranks run results: group, effective time (entries without time
// last), then start number, then identity.
//
// NotSetLast ranks any decided status ahead of NotSet when both results lack
// a time. Some timing devices never report a status for participants that
// are still underway, so the policy is switchable.
type RuntimeSorter struct {
	selector   GroupSelector
	NotSetLast bool
}

// NewRuntimeSorter returns a sorter without grouping and NotSetLast enabled.
func NewRuntimeSorter() *RuntimeSorter {
	return &RuntimeSorter{NotSetLast: true}
}

// SetGrouping switches the partition criterion.
func (s *RuntimeSorter) SetGrouping(g Grouping) { s.selector = g.Selector() }

// SetGroupSelector installs a custom partition criterion.
func (s *RuntimeSorter) SetGroupSelector(sel GroupSelector) { s.selector = sel }

// GroupSelector returns the active criterion.
func (s *RuntimeSorter) GroupSelector() GroupSelector { return s.selector }

// Compare returns -1, 0 or 1; 0 only for results of the same participant.
func (s *RuntimeSorter) Compare(a, b *RunResult) int {
	return compareRanked(s.selector, s.NotSetLast,
		a.participant, a.RunTime(), a.resultCode,
		b.participant, b.RunTime(), b.resultCode)
}

// TotalTimeSorter ranks race result items like RuntimeSorter does with run
// results, using the total time and the overall status.
type TotalTimeSorter struct {
	selector   GroupSelector
	NotSetLast bool
}

// NewTotalTimeSorter returns a sorter without grouping and NotSetLast enabled.
func NewTotalTimeSorter() *TotalTimeSorter {
	return &TotalTimeSorter{NotSetLast: true}
}

func (s *TotalTimeSorter) SetGrouping(g Grouping)             { s.selector = g.Selector() }
func (s *TotalTimeSorter) SetGroupSelector(sel GroupSelector) { s.selector = sel }
func (s *TotalTimeSorter) GroupSelector() GroupSelector       { return s.selector }

func (s *TotalTimeSorter) Compare(a, b *RaceResultItem) int {
	return compareRanked(s.selector, s.NotSetLast,
		a.Participant, a.TotalTime, a.ResultCode,
		b.Participant, b.TotalTime, b.ResultCode)
}

// StartListEntryComparer orders start list entries by group, then start
// number.
type StartListEntryComparer struct {
	selector GroupSelector
}

func (c *StartListEntryComparer) SetGrouping(g Grouping)             { c.selector = g.Selector() }
func (c *StartListEntryComparer) SetGroupSelector(sel GroupSelector) { c.selector = sel }

func (c *StartListEntryComparer) Compare(a, b *StartListEntry) int {
	if r := CompareGroupKeys(KeyOf(c.selector, a.Participant), KeyOf(c.selector, b.Participant)); r != 0 {
		return r
	}
	return CompareStartNumbers(a.Participant, b.Participant)
}

// CompareStartNumbers orders by start number, falling back to identity so
// that distinct participants never compare equal.
func CompareStartNumbers(a, b *RaceParticipant) int {
	return cmp.Or(
		cmp.Compare(a.StartNumber, b.StartNumber),
		cmp.Compare(a.ID(), b.ID()),
	)
}

func compareRanked(
	sel GroupSelector, notSetLast bool,
	pa *RaceParticipant, ta *time.Duration, ca ResultCode,
	pb *RaceParticipant, tb *time.Duration, cb ResultCode,
) int {
	if pa.ID() == pb.ID() {
		return 0
	}
	if r := CompareGroupKeys(KeyOf(sel, pa), KeyOf(sel, pb)); r != 0 {
		return r
	}

	switch {
	case ta != nil && tb != nil:
		if r := cmp.Compare(*ta, *tb); r != 0 {
			return r
		}
	case ta != nil:
		return -1
	case tb != nil:
		return 1
	case notSetLast:
		if r := cmp.Compare(missingRank(ca), missingRank(cb)); r != 0 {
			return r
		}
	}

	return CompareStartNumbers(pa, pb)
}

func missingRank(c ResultCode) int {
	if c == ResultCodeNotSet {
		return 1
	}
	return 0
}
