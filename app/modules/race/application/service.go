package raceservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	"github.com/Black-And-White-Club/slalom-timing/app/modules/race/timing"
	"go.opentelemetry.io/otel/trace"
)

// TimingService implements the Service interface.
type TimingService struct {
	race       *Race
	loop       *Loop
	logger     *slog.Logger
	tracer     trace.Tracer
	currentRun atomic.Int32
}

// NewTimingService creates a new TimingService starting at run 1.
func NewTimingService(race *Race, loop *Loop, logger *slog.Logger, tracer trace.Tracer) *TimingService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TimingService{
		race:   race,
		loop:   loop,
		logger: logger,
		tracer: tracer,
	}
	s.currentRun.Store(1)
	return s
}

// CurrentRun is the run device events are applied to.
func (s *TimingService) CurrentRun() int {
	return int(s.currentRun.Load())
}

func (s *TimingService) SetCurrentRun(ctx context.Context, run int) error {
	return s.loop.Do(ctx, "SetCurrentRun", func(ctx context.Context) error {
		if _, err := s.race.Run(run); err != nil {
			return err
		}
		s.currentRun.Store(int32(run))
		s.logger.InfoContext(ctx, "Current run changed", slog.Int("run", run))
		return nil
	})
}

// ApplyTimingEvent applies one device event to the current run.
func (s *TimingService) ApplyTimingEvent(ctx context.Context, ev timing.Event) error {
	return s.loop.Do(ctx, "ApplyTimingEvent", func(ctx context.Context) error {
		return s.applyTimingEvent(ctx, ev)
	})
}

func (s *TimingService) applyTimingEvent(ctx context.Context, ev timing.Event) error {
	stamp := ev.Header()
	run, err := s.race.Run(s.CurrentRun())
	if err != nil {
		return err
	}
	rp, err := s.race.ParticipantByStartNumber(stamp.StartNumber)
	if err != nil {
		return err
	}

	switch ev.(type) {
	case timing.StartTimeEvent:
		err = run.SetStartTime(rp, stamp.Time)
	case timing.FinishTimeEvent:
		err = run.SetFinishTime(rp, stamp.Time)
	case timing.RunTimeEvent:
		err = run.SetRunTime(rp, stamp.Time)
	default:
		return fmt.Errorf("unsupported timing event %T", ev)
	}
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "Timing event applied",
		slog.String("channel", timing.ChannelOf(ev).String()),
		slog.Uint64("start_number", uint64(stamp.StartNumber)),
		slog.Int("run", run.Number()),
		slog.String("time", racedomain.FormatOptionalRaceTime(stamp.Time)),
	)
	return nil
}

// ProcessEvents applies events until the channel closes or ctx ends.
// Events that cannot be attributed to a participant are logged and dropped.
func (s *TimingService) ProcessEvents(ctx context.Context, events <-chan timing.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			err := s.ApplyTimingEvent(ctx, ev)
			switch {
			case err == nil:
			case errors.Is(err, ErrLoopStopped), errors.Is(err, context.Canceled):
				return nil
			default:
				s.logger.WarnContext(ctx, "Dropping timing event",
					slog.String("raw", ev.Header().Raw),
					slog.Any("error", err),
				)
			}
		}
	}
}

// ApplyManualEntry validates entry and applies it as a single result update.
func (s *TimingService) ApplyManualEntry(ctx context.Context, entry ManualEntry) error {
	parsed, err := entry.parse()
	if err != nil {
		return fmt.Errorf("manual entry for %d: %w", entry.StartNumber, err)
	}

	return s.loop.Do(ctx, "ApplyManualEntry", func(ctx context.Context) error {
		runNumber := entry.Run
		if runNumber == 0 {
			runNumber = s.CurrentRun()
		}
		run, err := s.race.Run(runNumber)
		if err != nil {
			return err
		}
		rp, err := s.race.ParticipantByStartNumber(entry.StartNumber)
		if err != nil {
			return err
		}
		if entry.Delete {
			return run.DeleteRunResult(rp)
		}

		current := run.Result(rp.ID())
		if current == nil {
			return fmt.Errorf("%w: %s", ErrParticipantNotInRun, rp.ID())
		}
		next := current.Clone()
		switch {
		case parsed.start != nil || parsed.finish != nil:
			if parsed.start != nil {
				next.SetStartTime(parsed.start, true)
			}
			if parsed.finish != nil {
				next.SetFinishTime(parsed.finish, true)
			}
		case parsed.runTime != nil:
			next.SetRunTime(parsed.runTime, true)
		}
		if parsed.code != nil {
			next.SetResultCode(*parsed.code, entry.DisqualText)
		}

		if err := run.UpdateRunResult(next); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "Manual entry applied",
			slog.Uint64("start_number", uint64(entry.StartNumber)),
			slog.Int("run", runNumber),
		)
		return nil
	})
}
