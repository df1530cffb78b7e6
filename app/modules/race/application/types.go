package raceservice

import (
	"context"
	"time"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	"github.com/Black-And-White-Club/slalom-timing/app/modules/race/timing"
)

// Service applies timing input to the race through the model loop.
type Service interface {
	ApplyTimingEvent(ctx context.Context, ev timing.Event) error
	ProcessEvents(ctx context.Context, events <-chan timing.Event) error
	ApplyManualEntry(ctx context.Context, entry ManualEntry) error
	SetCurrentRun(ctx context.Context, run int) error
	CurrentRun() int
}

// ManualEntry is an operator correction. Empty text fields are left
// untouched; times use the race time notation.
type ManualEntry struct {
	StartNumber uint   `json:"start_number"`
	Run         int    `json:"run,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	FinishTime  string `json:"finish_time,omitempty"`
	RunTime     string `json:"run_time,omitempty"`
	ResultCode  string `json:"result_code,omitempty"`
	DisqualText string `json:"disqual_text,omitempty"`
	Delete      bool   `json:"delete,omitempty"`
}

type parsedEntry struct {
	start, finish, runTime *time.Duration
	code                   *racedomain.ResultCode
}

// parse validates every field before anything is mutated.
func (e ManualEntry) parse() (parsedEntry, error) {
	var p parsedEntry
	var err error
	if p.start, err = parseOptionalTime(e.StartTime); err != nil {
		return p, err
	}
	if p.finish, err = parseOptionalTime(e.FinishTime); err != nil {
		return p, err
	}
	if p.runTime, err = parseOptionalTime(e.RunTime); err != nil {
		return p, err
	}
	if e.ResultCode != "" {
		code, err := racedomain.ParseResultCode(e.ResultCode)
		if err != nil {
			return p, err
		}
		p.code = &code
	}
	if !e.Delete && p.start == nil && p.finish == nil && p.runTime == nil && p.code == nil {
		return p, ErrEmptyManualEntry
	}
	return p, nil
}

func parseOptionalTime(text string) (*time.Duration, error) {
	if text == "" {
		return nil, nil
	}
	d, err := racedomain.ParseRaceTime(text)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
