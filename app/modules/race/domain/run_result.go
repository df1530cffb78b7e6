package racedomain

import (
	"strings"
	"time"
)

// Field is a bit set of RunResult attributes.
type Field uint8

const (
	FieldStartTime Field = 1 << iota
	FieldFinishTime
	FieldRunTime
	FieldResultCode
	FieldDisqualText

	FieldNone Field = 0
	FieldAll        = FieldStartTime | FieldFinishTime | FieldRunTime | FieldResultCode | FieldDisqualText
)

var fieldNames = []struct {
	f    Field
	name string
}{
	{FieldStartTime, "start_time"},
	{FieldFinishTime, "finish_time"},
	{FieldRunTime, "run_time"},
	{FieldResultCode, "result_code"},
	{FieldDisqualText, "disqual_text"},
}

// Has reports whether any bit of o is set in f.
func (f Field) Has(o Field) bool { return f&o != 0 }

// Split returns the single fields contained in f, in a stable order.
func (f Field) Split() []Field {
	var out []Field
	for _, fn := range fieldNames {
		if f.Has(fn.f) {
			out = append(out, fn.f)
		}
	}
	return out
}

func (f Field) String() string {
	var names []string
	for _, fn := range fieldNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// RunResult is the result of one participant in one run.
//
// Times are time-of-day offsets as reported by the timing device. Mutators
// return the set of fields that actually changed.
type RunResult struct {
	participant *RaceParticipant

	startTime   *time.Duration
	finishTime  *time.Duration
	runTime     *time.Duration
	resultCode  ResultCode
	disqualText string
}

// NewRunResult returns an empty result for p.
func NewRunResult(p *RaceParticipant) *RunResult {
	return &RunResult{participant: p, resultCode: ResultCodeNotSet}
}

func (r *RunResult) Participant() *RaceParticipant { return r.participant }
func (r *RunResult) ParticipantID() string         { return r.participant.ID() }
func (r *RunResult) StartNumber() uint             { return r.participant.StartNumber }
func (r *RunResult) StartTime() *time.Duration     { return copyDuration(r.startTime) }
func (r *RunResult) FinishTime() *time.Duration    { return copyDuration(r.finishTime) }
func (r *RunResult) ResultCode() ResultCode        { return r.resultCode }
func (r *RunResult) DisqualText() string           { return r.disqualText }

// DisqualifyReason returns the text part of the disqualification.
func (r *RunResult) DisqualifyReason() string {
	reason, _ := SplitDisqualifyText(r.disqualText)
	return reason
}

// DisqualifyGate returns the gate part of the disqualification, if any.
func (r *RunResult) DisqualifyGate() string {
	_, gate := SplitDisqualifyText(r.disqualText)
	return gate
}

// SetStartTime stores t as start time. A start later than the stored finish
// drops the finish. Any explicitly set run time is cleared.
func (r *RunResult) SetStartTime(t *time.Duration, resetStatus bool) Field {
	before := r.snapshot()

	r.startTime = copyDuration(t)
	if r.startTime != nil && r.finishTime != nil && *r.startTime > *r.finishTime {
		r.finishTime = nil
	}
	r.runTime = nil
	r.settleCode(resetStatus)

	return before.diff(r)
}

// SetFinishTime stores t as finish time and clears any explicitly set run time.
func (r *RunResult) SetFinishTime(t *time.Duration, resetStatus bool) Field {
	before := r.snapshot()

	r.finishTime = copyDuration(t)
	r.runTime = nil
	r.settleCode(resetStatus)

	return before.diff(r)
}

// SetRunTime stores an externally measured run time. Start and finish stay
// untouched.
func (r *RunResult) SetRunTime(t *time.Duration, resetStatus bool) Field {
	before := r.snapshot()

	r.runTime = copyDuration(t)
	if resetStatus || r.resultCode == ResultCodeNotSet {
		r.resultCode = ResultCodeNormal
	}
	r.dropStaleDisqualText()

	return before.diff(r)
}

// SetResultCode sets the status and its disqualification text. The text is
// dropped for codes other than Disqualified and NotQualified.
func (r *RunResult) SetResultCode(code ResultCode, disqualText string) Field {
	before := r.snapshot()

	r.resultCode = code
	r.disqualText = strings.TrimSpace(disqualText)
	r.dropStaleDisqualText()

	return before.diff(r)
}

func (r *RunResult) dropStaleDisqualText() {
	switch r.resultCode {
	case ResultCodeDisqualified, ResultCodeNotQualified:
	default:
		r.disqualText = ""
	}
}

// settleCode applies the status rules shared by start and finish updates.
// Equal start and finish is how the devices report a missed finish impulse.
func (r *RunResult) settleCode(resetStatus bool) {
	if resetStatus || r.resultCode == ResultCodeNotSet {
		r.resultCode = ResultCodeNormal
	}
	if r.startTime != nil && r.finishTime != nil && *r.startTime == *r.finishTime {
		r.resultCode = ResultCodeNotFinished
	}
	r.dropStaleDisqualText()
}

// GetRunTime returns the effective run time floored to 1/100 s. With
// considerStatus, only Normal results have a time.
func (r *RunResult) GetRunTime(calculateIfMissing, considerStatus bool) *time.Duration {
	if considerStatus && r.resultCode != ResultCodeNormal {
		return nil
	}
	if r.runTime != nil {
		return durationPtr(FloorToHundredths(*r.runTime))
	}
	if calculateIfMissing && r.startTime != nil && r.finishTime != nil {
		return durationPtr(FloorToHundredths(*r.finishTime - *r.startTime))
	}
	return nil
}

// RunTime is the time used for ranking.
func (r *RunResult) RunTime() *time.Duration {
	return r.GetRunTime(true, true)
}

// ExplicitRunTime is the stored run time without derivation.
func (r *RunResult) ExplicitRunTime() *time.Duration {
	return copyDuration(r.runTime)
}

// UpdateRunResult copies every field from other, or resets the result when
// other is nil. Results of different participants are never merged.
func (r *RunResult) UpdateRunResult(other *RunResult) (Field, error) {
	if other != nil && !sameParticipant(r.participant, other.participant) {
		return FieldNone, ErrIdentityMismatch
	}

	before := r.snapshot()
	if other == nil {
		r.startTime, r.finishTime, r.runTime = nil, nil, nil
		r.resultCode = ResultCodeNotSet
		r.disqualText = ""
	} else {
		r.startTime = copyDuration(other.startTime)
		r.finishTime = copyDuration(other.finishTime)
		r.runTime = copyDuration(other.runTime)
		r.resultCode = other.resultCode
		r.disqualText = other.disqualText
	}
	return before.diff(r), nil
}

// Reset clears the result back to its freshly created state.
func (r *RunResult) Reset() Field {
	changed, _ := r.UpdateRunResult(nil)
	return changed
}

// IsEmpty reports whether nothing has been recorded.
func (r *RunResult) IsEmpty() bool {
	return r.startTime == nil && r.finishTime == nil && r.runTime == nil &&
		r.disqualText == "" && r.resultCode == ResultCodeNotSet
}

// HasStarted reports whether the participant is known to have started.
func (r *RunResult) HasStarted() bool {
	return r.startTime != nil || r.finishTime != nil || r.resultCode != ResultCodeNotSet
}

// Clone returns a detached copy bound to the same participant.
func (r *RunResult) Clone() *RunResult {
	c := NewRunResult(r.participant)
	_, _ = c.UpdateRunResult(r)
	return c
}

func sameParticipant(a, b *RaceParticipant) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b || a.ID() == b.ID()
}

type runResultState struct {
	startTime, finishTime, runTime *time.Duration
	resultCode                     ResultCode
	disqualText                    string
}

func (r *RunResult) snapshot() runResultState {
	return runResultState{
		startTime:   copyDuration(r.startTime),
		finishTime:  copyDuration(r.finishTime),
		runTime:     copyDuration(r.runTime),
		resultCode:  r.resultCode,
		disqualText: r.disqualText,
	}
}

func (s runResultState) diff(r *RunResult) Field {
	var f Field
	if !equalDuration(s.startTime, r.startTime) {
		f |= FieldStartTime
	}
	if !equalDuration(s.finishTime, r.finishTime) {
		f |= FieldFinishTime
	}
	if !equalDuration(s.runTime, r.runTime) {
		f |= FieldRunTime
	}
	if s.resultCode != r.resultCode {
		f |= FieldResultCode
	}
	if s.disqualText != r.disqualText {
		f |= FieldDisqualText
	}
	return f
}
