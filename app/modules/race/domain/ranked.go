package racedomain

import "time"

// Ranking holds the derived decoration of a ranked entry.
type Ranking struct {
	// Position is 0 for entries without a valid time.
	Position              uint
	DiffToFirst           *time.Duration
	DiffToFirstPercentage float64
}

// Equal compares two decorations.
func (r Ranking) Equal(o Ranking) bool {
	return r.Position == o.Position &&
		equalDuration(r.DiffToFirst, o.DiffToFirst) &&
		r.DiffToFirstPercentage == o.DiffToFirstPercentage
}

// RankAgainst derives diff values for t relative to the leader's time.
func RankAgainst(position uint, t, leader *time.Duration) Ranking {
	rk := Ranking{Position: position}
	if t == nil || leader == nil {
		rk.Position = 0
		return rk
	}
	rk.DiffToFirst = durationPtr(*t - *leader)
	if *leader > 0 {
		rk.DiffToFirstPercentage = float64(*t-*leader) / float64(*leader) * 100
	}
	return rk
}

// RunResultWithPosition is a run result as shown in a ranked list.
type RunResultWithPosition struct {
	Ranking
	Result       *RunResult
	JustModified bool
}

// Copy detaches the entry from the list that owns it.
func (r *RunResultWithPosition) Copy() RunResultWithPosition {
	return RunResultWithPosition{
		Ranking:      r.Ranking.copy(),
		Result:       r.Result.Clone(),
		JustModified: r.JustModified,
	}
}

func (r Ranking) copy() Ranking {
	r.DiffToFirst = copyDuration(r.DiffToFirst)
	return r
}

// SubResult is the contribution of one run to a race result.
type SubResult struct {
	Ranking
	RunTime     *time.Duration
	ResultCode  ResultCode
	DisqualText string
}

// RaceResultItem is one line of the overall race result.
type RaceResultItem struct {
	Ranking
	Participant  *RaceParticipant
	SubResults   map[int]SubResult
	TotalTime    *time.Duration
	ResultCode   ResultCode
	DisqualText  string
	JustModified bool
}

// NewRaceResultItem returns an item without run data.
func NewRaceResultItem(p *RaceParticipant) *RaceResultItem {
	return &RaceResultItem{
		Participant: p,
		SubResults:  map[int]SubResult{},
		ResultCode:  ResultCodeNotSet,
	}
}

// SetRunResult stores the run's contribution and reports whether the time or
// the status of that run changed.
func (i *RaceResultItem) SetRunResult(run int, rr *RunResultWithPosition) bool {
	old, had := i.SubResults[run]
	if rr == nil {
		delete(i.SubResults, run)
		return had
	}
	sub := SubResult{
		Ranking:     rr.Ranking.copy(),
		RunTime:     rr.Result.RunTime(),
		ResultCode:  rr.Result.ResultCode(),
		DisqualText: rr.Result.DisqualText(),
	}
	i.SubResults[run] = sub
	return !had || !equalDuration(old.RunTime, sub.RunTime) || old.ResultCode != sub.ResultCode
}

// Copy detaches the item from the list that owns it.
func (i *RaceResultItem) Copy() RaceResultItem {
	c := *i
	c.Ranking = i.Ranking.copy()
	c.TotalTime = copyDuration(i.TotalTime)
	c.SubResults = make(map[int]SubResult, len(i.SubResults))
	for k, v := range i.SubResults {
		v.Ranking = v.Ranking.copy()
		v.RunTime = copyDuration(v.RunTime)
		c.SubResults[k] = v
	}
	return c
}

// TotalTimePolicy combines the sub results of the given runs into a total
// time and an overall status.
type TotalTimePolicy func(subs map[int]SubResult, runs []int) (*time.Duration, ResultCode, string)

// SumOfRuns adds up all runs. The first non-Normal run decides the status; a
// missing run leaves the total open. Without data in any run the status is
// NotSet.
func SumOfRuns(subs map[int]SubResult, runs []int) (*time.Duration, ResultCode, string) {
	var total time.Duration
	complete, touched := true, false
	for _, run := range runs {
		sub, ok := subs[run]
		if !ok || sub.ResultCode == ResultCodeNotSet {
			complete = false
			continue
		}
		touched = true
		if sub.ResultCode != ResultCodeNormal {
			return nil, sub.ResultCode, sub.DisqualText
		}
		if sub.RunTime == nil {
			complete = false
			continue
		}
		total += *sub.RunTime
	}
	if !touched {
		return nil, ResultCodeNotSet, ""
	}
	if !complete {
		return nil, ResultCodeNormal, ""
	}
	return &total, ResultCodeNormal, ""
}

// BestOfRuns takes the fastest valid run. Without any valid run the first
// non-Normal status is reported, NotSet if there is none.
func BestOfRuns(subs map[int]SubResult, runs []int) (*time.Duration, ResultCode, string) {
	var best *time.Duration
	code, text := ResultCodeNotSet, ""
	for _, run := range runs {
		sub, ok := subs[run]
		if !ok || sub.ResultCode == ResultCodeNotSet {
			continue
		}
		if sub.ResultCode == ResultCodeNormal {
			if sub.RunTime != nil && (best == nil || *sub.RunTime < *best) {
				best = copyDuration(sub.RunTime)
			}
			if code == ResultCodeNotSet {
				code = ResultCodeNormal
			}
			continue
		}
		if code == ResultCodeNotSet || code == ResultCodeNormal {
			code, text = sub.ResultCode, sub.DisqualText
		}
	}
	if best != nil {
		return best, ResultCodeNormal, ""
	}
	return nil, code, text
}

// MeasurementColor marks start list entries for manual measurement.
type MeasurementColor int

const (
	NoColor MeasurementColor = iota
	Red
	Blue
)

// StartListEntry is one line of a start list.
type StartListEntry struct {
	Participant *RaceParticipant
	Started     bool
	Marker      MeasurementColor
	// PreviousRun is the participant's result in the previous run, nil for the
	// first run.
	PreviousRun *RunResult
}

// StartNumber is a shortcut to the participant's start number.
func (e *StartListEntry) StartNumber() uint {
	return e.Participant.StartNumber
}

// Copy detaches the entry from the list that owns it.
func (e *StartListEntry) Copy() StartListEntry {
	c := *e
	if e.PreviousRun != nil {
		c.PreviousRun = e.PreviousRun.Clone()
	}
	return c
}
