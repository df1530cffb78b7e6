package racerouter

import (
	"context"
	"fmt"
	"log/slog"

	racehandlers "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/handlers"
	watermillutil "github.com/Black-And-White-Club/slalom-timing/internal/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RaceRouter binds race command topics to their handlers.
type RaceRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewRaceRouter creates a new instance of the router. A nil registry disables
// router metrics.
func NewRaceRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	tracer trace.Tracer,
	prometheusRegistry prometheus.Registerer,
) *RaceRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}
	return &RaceRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure sets up the middlewares and registers the race handlers.
func (r *RaceRouter) Configure(ctx context.Context, handlers racehandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.logger.InfoContext(ctx, "Adding Prometheus router metrics middleware for Race")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	return r.RegisterHandlers(ctx, handlers)
}

type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandler decodes the payload of topic into T and calls handler.
func registerHandler[T any](deps handlerDeps, topic string, handler func(context.Context, *T) error) {
	handlerName := "race." + topic
	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		func(msg *message.Message) error {
			ctx, span := deps.tracer.Start(msg.Context(), handlerName, trace.WithAttributes(
				attribute.String("message.uuid", msg.UUID),
				attribute.String("correlation_id", middleware.MessageCorrelationID(msg)),
			))
			defer span.End()

			var payload T
			if err := watermillutil.Marshaler.Unmarshal(msg, &payload); err != nil {
				// Undecodable messages never succeed; drop them.
				deps.logger.ErrorContext(ctx, "Failed to decode payload",
					slog.String("handler", handlerName),
					slog.Any("error", err),
				)
				span.SetStatus(codes.Error, err.Error())
				return nil
			}
			if err := handler(ctx, &payload); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return fmt.Errorf("%s: %w", handlerName, err)
			}
			return nil
		},
	)
}

// RegisterHandlers binds the command topics.
func (r *RaceRouter) RegisterHandlers(ctx context.Context, handlers racehandlers.Handlers) error {
	r.logger.InfoContext(ctx, "Registering Race Command Handlers")

	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, racehandlers.TopicManualEntryRequestedV1, handlers.HandleManualEntryRequested)
	registerHandler(deps, racehandlers.TopicCurrentRunRequestedV1, handlers.HandleCurrentRunRequested)

	return nil
}

// Close stops the router.
func (r *RaceRouter) Close() error {
	return r.Router.Close()
}
