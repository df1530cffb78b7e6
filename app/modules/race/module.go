package race

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	raceservice "github.com/Black-And-White-Club/slalom-timing/app/modules/race/application"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	racehandlers "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/handlers"
	racenotify "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/notify"
	raceroster "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/roster"
	racerouter "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/router"
	"github.com/Black-And-White-Club/slalom-timing/app/modules/race/timing"
	raceviews "github.com/Black-And-White-Club/slalom-timing/app/modules/race/views"
	"github.com/Black-And-White-Club/slalom-timing/config"
	racemetrics "github.com/Black-And-White-Club/slalom-timing/internal/metrics/race"
	watermillutil "github.com/Black-And-White-Club/slalom-timing/internal/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// commandBuffer bounds the commands waiting for the model loop.
const commandBuffer = 64

// Module represents the race module.
type Module struct {
	Race        *raceservice.Race
	Loop        *raceservice.Loop
	RaceService raceservice.Service
	Views       *Views
	RaceRouter  *racerouter.RaceRouter

	config    *config.Config
	publisher *racenotify.ResultPublisher
	armed     *timing.ArmedMap

	logger  *slog.Logger
	metrics racemetrics.RaceMetrics
	tracer  trace.Tracer

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// Views holds the live lists of the race. Index i of the slices belongs to
// run i+1. Views must only be touched in the model context; use Snapshot from
// anywhere else.
type Views struct {
	StartLists []raceviews.StartListView
	Remaining  []*raceviews.RemainingStartListViewProvider
	RunResults []*raceviews.RaceRunResultViewProvider
	Results    *raceviews.RaceResultViewProvider
}

// Dependencies are the shared components handed to the module. Bus and
// Router are optional: without them no notifications are published and no
// commands are received.
type Dependencies struct {
	Logger   *slog.Logger
	Metrics  racemetrics.RaceMetrics
	Tracer   trace.Tracer
	Bus      watermillutil.PubSuber
	Router   *message.Router
	Registry prometheus.Registerer
}

// NewRaceModule creates the race, loads the roster and builds the views.
// Until Run is called the caller is the model context.
func NewRaceModule(ctx context.Context, cfg *config.Config, deps Dependencies, roster *raceroster.Roster) (*Module, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = racemetrics.NoOpMetrics{}
	}

	logger.InfoContext(ctx, "race.NewRaceModule called",
		slog.String("race_id", cfg.Race.ID),
		slog.Int("runs", cfg.Race.Runs),
	)

	race := raceservice.NewRace(cfg.Race.ID, cfg.Race.Runs, raceservice.NewHub())
	if roster != nil {
		if err := roster.Apply(race); err != nil {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}
	}

	loop := raceservice.NewLoop(commandBuffer, logger, metrics, deps.Tracer)
	service := raceservice.NewTimingService(race, loop, logger, deps.Tracer)

	views, err := newViews(race, cfg.Views, cfg.Race.TotalTime, raceviews.Options{
		Scheduler:         loop,
		HighlightDuration: cfg.Views.HighlightDuration,
		Logger:            logger,
		Metrics:           metrics,
	})
	if err != nil {
		return nil, err
	}

	module := &Module{
		Race:        race,
		Loop:        loop,
		RaceService: service,
		Views:       views,
		config:      cfg,
		armed:       timing.NewArmedMap(),
		logger:      logger,
		metrics:     metrics,
		tracer:      deps.Tracer,
	}

	if deps.Bus != nil {
		module.publisher = racenotify.NewResultPublisher(race, deps.Bus, logger, racenotify.DefaultOutboxSize)
		module.publisher.Attach()
	}

	if deps.Router != nil && deps.Bus != nil {
		module.RaceRouter = racerouter.NewRaceRouter(logger, deps.Router, deps.Bus, deps.Tracer, deps.Registry)
		if err := module.RaceRouter.Configure(ctx, racehandlers.NewRaceHandlers(service, logger)); err != nil {
			views.close()
			return nil, fmt.Errorf("failed to configure race router: %w", err)
		}
	}

	return module, nil
}

func newViews(race *raceservice.Race, cfg config.ViewsConfig, totalTime string, opts raceviews.Options) (*Views, error) {
	grouping, err := racedomain.ParseGrouping(cfg.Grouping)
	if err != nil {
		return nil, err
	}
	opts.Grouping = grouping

	direction := racedomain.Descending
	if strings.EqualFold(cfg.SecondRunOrder, "keep") {
		direction = racedomain.Ascending
	}

	v := &Views{}
	for _, run := range race.Runs() {
		var list raceviews.StartListView
		switch {
		case run.Number() > 1:
			previous, err := race.Run(run.Number() - 1)
			if err != nil {
				return nil, err
			}
			p := raceviews.NewSimpleSecondRunStartListViewProvider(direction, opts)
			p.Init(previous)
			list = p
		case cfg.SeededStarters > 0:
			p := raceviews.NewSeededFirstRunStartListViewProvider(cfg.SeededStarters, opts)
			p.Init(race)
			list = p
		default:
			p := raceviews.NewFirstRunStartListViewProvider(opts)
			p.Init(race)
			list = p
		}
		v.StartLists = append(v.StartLists, list)

		remaining := raceviews.NewRemainingStartListViewProvider(run)
		remaining.Init(list)
		v.Remaining = append(v.Remaining, remaining)

		results := raceviews.NewRaceRunResultViewProvider(opts)
		results.Init(run)
		v.RunResults = append(v.RunResults, results)
	}

	policy := racedomain.SumOfRuns
	if strings.EqualFold(totalTime, "best") {
		policy = racedomain.BestOfRuns
	}
	v.Results = raceviews.NewRaceResultViewProvider(policy, opts)
	if err := v.Results.Init(race); err != nil {
		v.close()
		return nil, err
	}
	return v, nil
}

// ChangeGrouping regroups every list. Call it from the model context.
func (v *Views) ChangeGrouping(g racedomain.Grouping) {
	for _, l := range v.StartLists {
		l.ChangeGrouping(g)
	}
	for _, r := range v.RunResults {
		r.ChangeGrouping(g)
	}
	if v.Results != nil {
		v.Results.ChangeGrouping(g)
	}
}

func (v *Views) close() {
	if v.Results != nil {
		v.Results.Close()
	}
	for _, r := range v.RunResults {
		r.Close()
	}
	for _, r := range v.Remaining {
		r.Close()
	}
	for _, l := range v.StartLists {
		l.Close()
	}
}

// Armed returns the channel mapping shared by every attached device.
func (m *Module) Armed() *timing.ArmedMap {
	return m.armed
}

// Run starts the model loop and the notification outbox and blocks until ctx
// is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting race module")

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancelFunc = cancel
	m.mu.Unlock()
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Loop.Run(ctx) })
	if m.publisher != nil {
		g.Go(func() error { return m.publisher.Run(ctx) })
	}
	if err := g.Wait(); err != nil {
		m.logger.ErrorContext(ctx, "Race module stopped with error", slog.Any("error", err))
	}
	m.logger.InfoContext(ctx, "Race module goroutine stopped")
}

// AttachDevice decodes frames from device and applies them to the current
// run. It blocks until the device is exhausted or ctx is cancelled and every
// decoded event went through the model loop. The module must be running.
func (m *Module) AttachDevice(ctx context.Context, device timing.Device) error {
	decoder := timing.NewDecoder(device, timing.DecoderOptions{
		Armed:     m.armed,
		QueueSize: m.config.Timing.QueueSize,
		Logger:    m.logger,
		Metrics:   m.metrics,
	})

	// The pump must run on its own context: it drains what the decoder
	// queued even after the decoder stopped.
	g := new(errgroup.Group)
	g.Go(func() error { return decoder.Run(ctx) })
	g.Go(func() error {
		return m.RaceService.ProcessEvents(context.WithoutCancel(ctx), decoder.Events())
	})
	err := g.Wait()
	if dropped := decoder.Dropped(); dropped > 0 {
		m.logger.WarnContext(ctx, "Timing events dropped", slog.Uint64("dropped", dropped))
	}
	return err
}

// Do runs fn in the model context, for callers that need to read the views.
func (m *Module) Do(ctx context.Context, name string, fn func(ctx context.Context, views *Views) error) error {
	return m.Loop.Do(ctx, name, func(ctx context.Context) error {
		return fn(ctx, m.Views)
	})
}

// Close stops the race module and cleans up resources. The router is owned
// by the caller and is not closed here.
func (m *Module) Close() error {
	m.closeOnce.Do(func() {
		m.logger.Info("Stopping race module")
		m.mu.Lock()
		cancel := m.cancelFunc
		m.mu.Unlock()
		if cancel != nil {
			cancel()
			// Views are owned by the model loop; release them once it is gone.
			<-m.Loop.Stopped()
		}
		if m.publisher != nil {
			m.publisher.Detach()
		}
		m.Views.close()
		m.logger.Info("Race module stopped")
	})
	return nil
}
