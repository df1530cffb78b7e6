package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Black-And-White-Club/slalom-timing/app"
	"github.com/Black-And-White-Club/slalom-timing/app/modules/race"
	racedomain "github.com/Black-And-White-Club/slalom-timing/app/modules/race/domain"
	raceexport "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/export"
	raceroster "github.com/Black-And-White-Club/slalom-timing/app/modules/race/infrastructure/roster"
	"github.com/Black-And-White-Club/slalom-timing/app/modules/race/timing"
	"github.com/Black-And-White-Club/slalom-timing/config"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
)

func main() {
	cliApp := &cli.App{
		Name:  "slalomtiming",
		Usage: "live timing and ranking for ski races",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
		},
		Commands: []*cli.Command{
			newReplayCommand(),
			newLiveCommand(),
			newParseTimeCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadSetup(c *cli.Context) (*config.Config, *slog.Logger, *raceroster.Roster, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("roster") {
		cfg.Race.Roster = c.String("roster")
	}
	if c.IsSet("grouping") {
		cfg.Views.Grouping = c.String("grouping")
	}
	logger := app.NewLogger(cfg.Observability, os.Stderr)

	var roster *raceroster.Roster
	if cfg.Race.Roster != "" {
		if roster, err = raceroster.Load(cfg.Race.Roster); err != nil {
			return nil, nil, nil, err
		}
	}
	return cfg, logger, roster, nil
}

var (
	rosterFlag   = &cli.StringFlag{Name: "roster", Usage: "YAML roster file"}
	groupingFlag = &cli.StringFlag{Name: "grouping", Usage: "none, class, group or category"}
)

func newReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "apply a recorded device log and print the ranked lists",
		ArgsUsage: "<device log>",
		Flags: []cli.Flag{
			rosterFlag,
			groupingFlag,
			&cli.StringFlag{Name: "xlsx", Usage: "also write the lists to this workbook"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("replay needs exactly one device log", 2)
			}
			cfg, logger, roster, err := loadSetup(c)
			if err != nil {
				return err
			}

			module, err := race.NewRaceModule(c.Context, cfg, race.Dependencies{
				Logger: logger,
				Tracer: otel.Tracer("slalomtiming"),
			}, roster)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()
			done := make(chan struct{})
			go func() {
				defer close(done)
				module.Run(ctx, nil)
			}()
			defer func() {
				cancel()
				<-done
				_ = module.Close()
			}()

			device, err := timing.Open(ctx, c.Args().First())
			if err != nil {
				return err
			}
			if err := module.AttachDevice(ctx, device); err != nil {
				return err
			}

			return module.Do(ctx, "replay.print", func(_ context.Context, views *race.Views) error {
				grouping, _ := racedomain.ParseGrouping(cfg.Views.Grouping)
				printLists(c.App.Writer, views, grouping.Selector())
				if path := c.String("xlsx"); path != "" {
					return exportLists(path, views, grouping.Selector())
				}
				return nil
			})
		},
	}
}

func newLiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "time a race from a connected device",
		Flags: []cli.Flag{
			rosterFlag,
			groupingFlag,
			&cli.StringFlag{Name: "device", Usage: "device path or tcp://host:port"},
			&cli.StringFlag{Name: "metrics", Usage: "address serving /metrics"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, roster, err := loadSetup(c)
			if err != nil {
				return err
			}
			if c.IsSet("device") {
				cfg.Timing.Device = c.String("device")
			}
			if c.IsSet("metrics") {
				cfg.Observability.MetricsAddress = c.String("metrics")
			}
			if cfg.Timing.Device == "" {
				return cli.Exit("no timing device configured", 2)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.NewApp(ctx, cfg, logger, roster)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Error("Error during shutdown", slog.Any("error", err))
				}
			}()

			runErr := make(chan error, 1)
			go func() { runErr <- application.Run(ctx) }()

			device, err := timing.Open(ctx, cfg.Timing.Device)
			if err != nil {
				stop()
				<-runErr
				return err
			}
			go func() {
				if err := application.RaceModule.AttachDevice(ctx, device); err != nil {
					logger.ErrorContext(ctx, "Timing device failed", slog.Any("error", err))
				}
			}()

			err = <-runErr
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newParseTimeCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse-time",
		Usage:     "validate manual time text and print it normalized",
		ArgsUsage: "<time>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("parse-time needs at least one time", 2)
			}
			var failed bool
			for _, text := range c.Args().Slice() {
				d, err := racedomain.ParseRaceTime(text)
				if err != nil {
					fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", text, err)
					failed = true
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", text, racedomain.FormatRaceTime(d), d.Round(time.Millisecond))
			}
			if failed {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func exportLists(path string, views *race.Views, sel racedomain.GroupSelector) error {
	wb, err := raceexport.NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	for i, remaining := range views.Remaining {
		if err := wb.AddStartList(fmt.Sprintf("Start list %d", i+1), remaining.GetViewList(), sel); err != nil {
			return err
		}
	}
	for i, rv := range views.RunResults {
		if err := wb.AddRunResults(fmt.Sprintf("Run %d", i+1), rv.GetViewList(), sel); err != nil {
			return err
		}
	}
	if err := wb.AddRaceResults("Results", views.Results.GetViewList(), sel); err != nil {
		return err
	}
	return wb.SaveAs(path)
}
