package racedomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunResult_NewIsEmpty(t *testing.T) {
	r := NewRunResult(newTestParticipant(1, nil))

	assert.True(t, r.IsEmpty())
	assert.False(t, r.HasStarted())
	assert.Equal(t, ResultCodeNotSet, r.ResultCode())
	assert.Nil(t, r.RunTime())
}

func TestRunResult_SetStartTime(t *testing.T) {
	tests := []struct {
		name        string
		prepare     func(r *RunResult)
		start       *time.Duration
		resetStatus bool
		wantCode    ResultCode
		wantFinish  *time.Duration
		wantChanged Field
	}{
		{
			name:        "empty result becomes normal",
			start:       dp(hms(8, 0, 0)),
			resetStatus: false,
			wantCode:    ResultCodeNormal,
			wantChanged: FieldStartTime | FieldResultCode,
		},
		{
			name: "reset overrides disqualification",
			prepare: func(r *RunResult) {
				r.SetResultCode(ResultCodeDisqualified, "gate 3")
			},
			start:       dp(hms(8, 0, 0)),
			resetStatus: true,
			wantCode:    ResultCodeNormal,
			wantChanged: FieldStartTime | FieldResultCode | FieldDisqualText,
		},
		{
			name: "keeps status without reset",
			prepare: func(r *RunResult) {
				r.SetResultCode(ResultCodeNotFinished, "")
			},
			start:       dp(hms(8, 0, 0)),
			resetStatus: false,
			wantCode:    ResultCodeNotFinished,
			wantChanged: FieldStartTime,
		},
		{
			name: "later start drops finish",
			prepare: func(r *RunResult) {
				r.SetFinishTime(dp(hms(8, 1, 0)), true)
			},
			start:       dp(hms(8, 2, 0)),
			resetStatus: true,
			wantCode:    ResultCodeNormal,
			wantChanged: FieldStartTime | FieldFinishTime,
		},
		{
			name: "equal start and finish means not finished",
			prepare: func(r *RunResult) {
				r.SetFinishTime(dp(hms(8, 1, 0)), true)
			},
			start:       dp(hms(8, 1, 0)),
			resetStatus: true,
			wantCode:    ResultCodeNotFinished,
			wantFinish:  dp(hms(8, 1, 0)),
			wantChanged: FieldStartTime | FieldResultCode,
		},
		{
			name: "clears explicit run time",
			prepare: func(r *RunResult) {
				r.SetRunTime(dp(61*time.Second), true)
			},
			start:       dp(hms(8, 0, 0)),
			resetStatus: true,
			wantCode:    ResultCodeNormal,
			wantChanged: FieldStartTime | FieldRunTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunResult(newTestParticipant(1, nil))
			if tt.prepare != nil {
				tt.prepare(r)
			}

			changed := r.SetStartTime(tt.start, tt.resetStatus)

			assert.Equal(t, tt.wantChanged, changed, "changed fields %s", changed)
			assert.Equal(t, tt.wantCode, r.ResultCode())
			assert.Equal(t, tt.start, r.StartTime())
			assert.Equal(t, tt.wantFinish, r.FinishTime())
			assert.Nil(t, r.ExplicitRunTime())
		})
	}
}

func TestRunResult_SetFinishTime(t *testing.T) {
	r := NewRunResult(newTestParticipant(1, nil))
	r.SetStartTime(dp(hms(8, 0, 0)), true)
	r.SetRunTime(dp(10*time.Second), false)

	changed := r.SetFinishTime(dp(hms(8, 1, 0)+123*time.Millisecond), true)

	assert.Equal(t, FieldFinishTime|FieldRunTime, changed)
	require.NotNil(t, r.RunTime())
	assert.Equal(t, 60*time.Second+120*time.Millisecond, *r.RunTime())

	r.SetFinishTime(dp(hms(8, 0, 0)), false)
	assert.Equal(t, ResultCodeNotFinished, r.ResultCode())
}

func TestRunResult_RunTimeIsFloored(t *testing.T) {
	r := resultWith(newTestParticipant(1, nil), hms(8, 3, 0), hms(8, 3, 59)+999*time.Millisecond)

	require.NotNil(t, r.RunTime())
	assert.Equal(t, 59*time.Second+990*time.Millisecond, *r.RunTime())
}

func TestRunResult_SetRunTimeKeepsStartAndFinish(t *testing.T) {
	r := resultWith(newTestParticipant(1, nil), hms(8, 0, 0), hms(8, 1, 0))

	changed := r.SetRunTime(dp(59*time.Second+5*time.Millisecond), false)

	assert.Equal(t, FieldRunTime, changed)
	assert.NotNil(t, r.StartTime())
	assert.NotNil(t, r.FinishTime())
	require.NotNil(t, r.RunTime())
	assert.Equal(t, 59*time.Second, *r.RunTime())
}

func TestRunResult_GetRunTime(t *testing.T) {
	r := resultWith(newTestParticipant(1, nil), hms(8, 0, 0), hms(8, 1, 0))
	r.SetResultCode(ResultCodeDisqualified, "Torfehler 7")

	assert.Nil(t, r.GetRunTime(true, true), "non-normal status has no time")
	assert.Equal(t, dp(time.Minute), r.GetRunTime(true, false))
	assert.Nil(t, r.GetRunTime(false, false), "no stored run time")
	assert.Equal(t, "Torfehler", r.DisqualifyReason())
	assert.Equal(t, "7", r.DisqualifyGate())
}

func TestRunResult_SetResultCodeDropsTextForOtherCodes(t *testing.T) {
	r := NewRunResult(newTestParticipant(1, nil))

	assert.Equal(t, FieldResultCode|FieldDisqualText, r.SetResultCode(ResultCodeDisqualified, "Torfehler 3"))
	assert.Equal(t, FieldResultCode|FieldDisqualText, r.SetResultCode(ResultCodeNotStarted, "ignored"))
	assert.Empty(t, r.DisqualText())
	assert.Equal(t, FieldNone, r.SetResultCode(ResultCodeNotStarted, ""))
}

func TestRunResult_UpdateRunResult(t *testing.T) {
	p := newTestParticipant(1, nil)
	src := resultWith(p, hms(8, 0, 0), hms(8, 1, 0))
	src.SetResultCode(ResultCodeDisqualified, "Torfehler")

	dst := NewRunResult(p)
	changed, err := dst.UpdateRunResult(src)
	require.NoError(t, err)
	assert.Equal(t, FieldStartTime|FieldFinishTime|FieldResultCode|FieldDisqualText, changed)
	assert.Equal(t, src.StartTime(), dst.StartTime())
	assert.Equal(t, "Torfehler", dst.DisqualText())

	changed, err = dst.UpdateRunResult(src)
	require.NoError(t, err)
	assert.Equal(t, FieldNone, changed, "same content changes nothing")

	changed, err = dst.UpdateRunResult(nil)
	require.NoError(t, err)
	assert.True(t, dst.IsEmpty())
	assert.Equal(t, FieldStartTime|FieldFinishTime|FieldResultCode|FieldDisqualText, changed)
}

func TestRunResult_UpdateRunResultRejectsOtherParticipant(t *testing.T) {
	dst := resultWith(newTestParticipant(1, nil), hms(8, 0, 0), hms(8, 1, 0))
	other := resultWith(newTestParticipant(2, nil), hms(9, 0, 0), hms(9, 1, 0))

	changed, err := dst.UpdateRunResult(other)

	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, FieldNone, changed)
	assert.Equal(t, dp(hms(8, 0, 0)), dst.StartTime())
}

func TestRunResult_ConsistencyAfterAnySequence(t *testing.T) {
	p := newTestParticipant(1, nil)
	ops := []func(r *RunResult){
		func(r *RunResult) { r.SetStartTime(dp(hms(8, 0, 0)), true) },
		func(r *RunResult) { r.SetFinishTime(dp(hms(8, 1, 1)+7*time.Millisecond), true) },
		func(r *RunResult) { r.SetStartTime(dp(hms(8, 0, 30)), false) },
		func(r *RunResult) { r.SetFinishTime(dp(hms(8, 0, 45)), false) },
		func(r *RunResult) { r.SetStartTime(dp(hms(8, 2, 0)), true) },
		func(r *RunResult) { r.SetFinishTime(dp(hms(8, 2, 0)), true) },
	}

	r := NewRunResult(p)
	for i, op := range ops {
		op(r)
		start, finish := r.StartTime(), r.FinishTime()
		if start == nil || finish == nil {
			continue
		}
		if *start == *finish {
			assert.Equal(t, ResultCodeNotFinished, r.ResultCode(), "step %d", i)
			continue
		}
		if r.ResultCode() == ResultCodeNormal {
			require.NotNil(t, r.RunTime(), "step %d", i)
			assert.Equal(t, FloorToHundredths(*finish-*start), *r.RunTime(), "step %d", i)
		}
	}
}

func TestRunResult_ResetClearsStarted(t *testing.T) {
	r := NewRunResult(newTestParticipant(1, nil))
	r.SetResultCode(ResultCodeNotStarted, "")
	assert.True(t, r.HasStarted())

	r.Reset()
	assert.False(t, r.HasStarted())
	assert.True(t, r.IsEmpty())
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "none", FieldNone.String())
	assert.Equal(t, "start_time|result_code", (FieldStartTime | FieldResultCode).String())
	assert.Equal(t, []Field{FieldFinishTime, FieldDisqualText}, (FieldDisqualText | FieldFinishTime).Split())
}
