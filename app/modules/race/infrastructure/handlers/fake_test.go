package racehandlers

import (
	"context"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	"github.com/Black-And-White-Club/slalom-timing/app/modules/race/timing"
)

// FakeService implements raceservice.Service for handler testing.
type FakeService struct {
	trace []string

	ApplyManualEntryFunc func(ctx context.Context, entry raceservice.ManualEntry) error
	SetCurrentRunFunc    func(ctx context.Context, run int) error
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	return f.trace
}

func (f *FakeService) ApplyTimingEvent(ctx context.Context, ev timing.Event) error {
	f.record("ApplyTimingEvent")
	return nil
}

func (f *FakeService) ProcessEvents(ctx context.Context, events <-chan timing.Event) error {
	f.record("ProcessEvents")
	return nil
}

func (f *FakeService) ApplyManualEntry(ctx context.Context, entry raceservice.ManualEntry) error {
	f.record("ApplyManualEntry")
	if f.ApplyManualEntryFunc != nil {
		return f.ApplyManualEntryFunc(ctx, entry)
	}
	return nil
}

func (f *FakeService) SetCurrentRun(ctx context.Context, run int) error {
	f.record("SetCurrentRun")
	if f.SetCurrentRunFunc != nil {
		return f.SetCurrentRunFunc(ctx, run)
	}
	return nil
}

func (f *FakeService) CurrentRun() int {
	f.record("CurrentRun")
	return 1
}

var _ raceservice.Service = (*FakeService)(nil)
