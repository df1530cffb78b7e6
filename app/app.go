package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Black-And-White-Club/slalom-timing/app/modules/race"
	raceroster "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/roster"
	"github.com/Black-And-White-Club/slalom-timing/config"
	racemetrics "github.com/Black-And-White-Club/slalom-timing/internal/metrics/race"
	watermillutil "github.com/Black-And-White-Club/slalom-timing/internal/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName         = "slalom-timing"
	metricsNamespace    = "slalom"
	routerCloseTimeout  = 5 * time.Second
	metricsReadTimeout  = 5 * time.Second
	metricsShutdownWait = 5 * time.Second
)

// App holds the shared infrastructure and the race module.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registry   *prometheus.Registry
	PubSub     *watermillutil.PubSub
	Router     *message.Router
	RaceModule *race.Module

	wg sync.WaitGroup
}

// NewLogger builds the slog logger described by cfg.
func NewLogger(cfg config.ObservabilityConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler).With(slog.String("service", serviceName))
	if cfg.Environment != "" {
		logger = logger.With(slog.String("env", cfg.Environment))
	}
	return logger
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, roster *raceroster.Roster) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := racemetrics.NewPrometheusMetrics(registry, metricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to register race metrics: %w", err)
	}

	pubsub := watermillutil.NewPubSub(logger, watermillutil.DefaultOutputBuffer)
	router, err := pubsub.NewRouter(routerCloseTimeout)
	if err != nil {
		return nil, err
	}

	raceModule, err := race.NewRaceModule(ctx, cfg, race.Dependencies{
		Logger:   logger,
		Metrics:  metrics,
		Tracer:   otel.Tracer(serviceName),
		Bus:      pubsub,
		Router:   router,
		Registry: registry,
	}, roster)
	if err != nil {
		_ = router.Close()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to initialize race module: %w", err)
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		PubSub:     pubsub,
		Router:     router,
		RaceModule: raceModule,
	}, nil
}

// Run starts the race module, the message router and, when configured, the
// metrics endpoint. It blocks until ctx is cancelled or the router fails.
func (app *App) Run(ctx context.Context) error {
	app.wg.Add(1)
	go app.RaceModule.Run(ctx, &app.wg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Router.Run(ctx); err != nil {
			return fmt.Errorf("router stopped: %w", err)
		}
		return nil
	})

	if addr := app.Config.Observability.MetricsAddress; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           app.metricsHandler(),
			ReadHeaderTimeout: metricsReadTimeout,
		}
		g.Go(func() error {
			app.Logger.InfoContext(ctx, "Serving metrics", slog.String("address", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownWait)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	select {
	case <-app.Router.Running():
		app.Logger.InfoContext(ctx, "Application started", slog.String("race_id", app.Config.Race.ID))
	case <-ctx.Done():
	}
	return g.Wait()
}

func (app *App) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{Registry: app.Registry}))
	return mux
}

// Close shuts everything down in reverse start order.
func (app *App) Close() error {
	var errs []error
	if err := app.Router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("router: %w", err))
	}
	if err := app.RaceModule.Close(); err != nil {
		errs = append(errs, fmt.Errorf("race module: %w", err))
	}
	app.wg.Wait()
	if err := app.PubSub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("pubsub: %w", err))
	}
	app.Logger.Info("Application shut down")
	return errors.Join(errs...)
}
