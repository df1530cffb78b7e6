package racehandlers

import (
	"context"
	"errors"
	"log/slog"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
)

const (
	TopicManualEntryRequestedV1 = "race.manual.entry.requested.v1"
	TopicCurrentRunRequestedV1  = "race.current.run.requested.v1"
)

// CurrentRunRequestedPayload switches the run device events are applied to.
type CurrentRunRequestedPayload struct {
	Run int `json:"run"`
}

// Handlers process operator commands received over the bus.
type Handlers interface {
	HandleManualEntryRequested(ctx context.Context, payload *raceservice.ManualEntry) error
	HandleCurrentRunRequested(ctx context.Context, payload *CurrentRunRequestedPayload) error
}

// RaceHandlers handles race commands.
type RaceHandlers struct {
	service raceservice.Service
	logger  *slog.Logger
}

func NewRaceHandlers(service raceservice.Service, logger *slog.Logger) Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RaceHandlers{service: service, logger: logger}
}

func (h *RaceHandlers) HandleManualEntryRequested(ctx context.Context, payload *raceservice.ManualEntry) error {
	err := h.service.ApplyManualEntry(ctx, *payload)
	return h.settle(ctx, "manual entry", err,
		slog.Uint64("start_number", uint64(payload.StartNumber)),
		slog.Int("run", payload.Run),
	)
}

func (h *RaceHandlers) HandleCurrentRunRequested(ctx context.Context, payload *CurrentRunRequestedPayload) error {
	err := h.service.SetCurrentRun(ctx, payload.Run)
	return h.settle(ctx, "current run", err, slog.Int("run", payload.Run))
}

// settle acknowledges rejected commands; redelivery would fail the same way.
// Only an unavailable model is returned so the message is retried.
func (h *RaceHandlers) settle(ctx context.Context, command string, err error, attrs ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, raceservice.ErrLoopStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	h.logger.WarnContext(ctx, "Rejected "+command,
		append(attrs, slog.Any("error", err))...,
	)
	return nil
}
