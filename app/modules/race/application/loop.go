package raceservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	racemetrics "github.com/Black-And-White-Club/slalom-timing/internal/metrics/race"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const loopService = "ModelLoop"

// CommandFunc runs inside the model context.
type CommandFunc func(ctx context.Context) error

type command struct {
	ctx  context.Context
	name string
	fn   CommandFunc
	done chan error
}

// Loop is the single execution context owning the race model. Commands are
// executed one at a time in submission order.
type Loop struct {
	commands chan command
	stopped  chan struct{}
	stopOnce sync.Once

	logger  *slog.Logger
	metrics racemetrics.RaceMetrics
	tracer  trace.Tracer
}

// NewLoop creates a loop with a command buffer of the given size.
func NewLoop(buffer int, logger *slog.Logger, metrics racemetrics.RaceMetrics, tracer trace.Tracer) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = racemetrics.NoOpMetrics{}
	}
	return &Loop{
		commands: make(chan command, buffer),
		stopped:  make(chan struct{}),
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// Run executes commands until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	l.logger.InfoContext(ctx, "Model loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "Model loop stopped")
			return nil
		case cmd := <-l.commands:
			err := l.execute(cmd)
			if cmd.done != nil {
				cmd.done <- err
			}
		}
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}

func (l *Loop) stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}

// Do runs fn in the model context and waits for its result.
func (l *Loop) Do(ctx context.Context, name string, fn CommandFunc) error {
	cmd := command{ctx: ctx, name: name, fn: fn, done: make(chan error, 1)}
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	select {
	case l.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// Post queues fn without waiting. It reports false if the loop has stopped.
func (l *Loop) Post(name string, fn CommandFunc) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.commands <- command{ctx: context.Background(), name: name, fn: fn}:
		return true
	case <-l.stopped:
		return false
	}
}

// AfterFunc posts fn to the loop once d has elapsed. The returned function
// cancels a pending call.
func (l *Loop) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	timer := time.AfterFunc(d, func() {
		l.Post("scheduled", func(context.Context) error {
			fn()
			return nil
		})
	})
	return func() { timer.Stop() }
}

// execute wraps a command with tracing, metrics, and panic recovery.
func (l *Loop) execute(cmd command) (err error) {
	ctx := cmd.ctx
	var span trace.Span
	if l.tracer != nil {
		ctx, span = l.tracer.Start(ctx, cmd.name, trace.WithAttributes(
			attribute.String("operation", cmd.name),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	l.metrics.RecordOperationAttempt(ctx, cmd.name, loopService)

	startTime := time.Now()
	defer func() {
		l.metrics.RecordOperationDuration(ctx, cmd.name, loopService, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = &CommandPanicError{Command: cmd.name, Value: r}
			l.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", cmd.name),
				slog.Any("error", err),
			)
			l.metrics.RecordOperationFailure(ctx, cmd.name, loopService)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	l.logger.DebugContext(ctx, "Operation triggered", slog.String("operation", cmd.name))

	if err = cmd.fn(ctx); err != nil {
		l.logger.WarnContext(ctx, "Operation failed with error",
			slog.String("operation", cmd.name),
			slog.Any("error", err),
		)
		l.metrics.RecordOperationFailure(ctx, cmd.name, loopService)
		span.RecordError(err)
		return err
	}

	l.metrics.RecordOperationSuccess(ctx, cmd.name, loopService)
	return nil
}
