package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Race          RaceConfig          `yaml:"race"`
	Timing        TimingConfig        `yaml:"timing"`
	Views         ViewsConfig         `yaml:"views"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// RaceConfig describes the race being timed.
type RaceConfig struct {
	ID   string `yaml:"id"`
	Runs int    `yaml:"runs"`
	// TotalTime is "sum" or "best".
	TotalTime string `yaml:"total_time"`
	Roster    string `yaml:"roster"`
}

// TimingConfig holds the timing device settings.
type TimingConfig struct {
	// Device is a serial device path, a log file, or tcp://host:port.
	Device    string `yaml:"device"`
	QueueSize int    `yaml:"queue_size"`
}

// ViewsConfig holds the live list settings.
type ViewsConfig struct {
	Grouping       string `yaml:"grouping"`
	SeededStarters int    `yaml:"seeded_starters"`
	// SecondRunOrder is "reverse" or "keep".
	SecondRunOrder    string        `yaml:"second_run_order"`
	HighlightDuration time.Duration `yaml:"highlight_duration"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"` // json|text
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// Default returns the configuration used for anything left unset.
func Default() Config {
	return Config{
		Race: RaceConfig{
			ID:        "race",
			Runs:      2,
			TotalTime: "sum",
		},
		Timing: TimingConfig{
			QueueSize: 256,
		},
		Views: ViewsConfig{
			Grouping:          "none",
			SeededStarters:    15,
			SecondRunOrder:    "reverse",
			HighlightDuration: 5 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// LoadConfig loads the configuration from a YAML file. Environment variables
// override file values.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("RACE_ID"); v != "" {
		cfg.Race.ID = v
	}
	if v := os.Getenv("RACE_RUNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RACE_RUNS value: %w", err)
		}
		cfg.Race.Runs = n
	}
	if v := os.Getenv("RACE_TOTAL_TIME"); v != "" {
		cfg.Race.TotalTime = v
	}
	if v := os.Getenv("RACE_ROSTER"); v != "" {
		cfg.Race.Roster = v
	}
	if v := os.Getenv("TIMING_DEVICE"); v != "" {
		cfg.Timing.Device = v
	}
	if v := os.Getenv("TIMING_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TIMING_QUEUE_SIZE value: %w", err)
		}
		cfg.Timing.QueueSize = n
	}
	if v := os.Getenv("VIEWS_GROUPING"); v != "" {
		cfg.Views.Grouping = v
	}
	if v := os.Getenv("VIEWS_SEEDED_STARTERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VIEWS_SEEDED_STARTERS value: %w", err)
		}
		cfg.Views.SeededStarters = n
	}
	if v := os.Getenv("VIEWS_SECOND_RUN_ORDER"); v != "" {
		cfg.Views.SecondRunOrder = v
	}
	if v := os.Getenv("VIEWS_HIGHLIGHT_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid VIEWS_HIGHLIGHT_DURATION value: %w", err)
		}
		cfg.Views.HighlightDuration = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	return nil
}

// Validate rejects values the race module cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Race.Runs < 1 {
		errs = append(errs, fmt.Errorf("race.runs must be at least 1, got %d", c.Race.Runs))
	}
	switch strings.ToLower(c.Race.TotalTime) {
	case "sum", "best":
	default:
		errs = append(errs, fmt.Errorf("race.total_time must be sum or best, got %q", c.Race.TotalTime))
	}
	if c.Timing.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("timing.queue_size must be positive, got %d", c.Timing.QueueSize))
	}
	if c.Views.SeededStarters < 0 {
		errs = append(errs, fmt.Errorf("views.seeded_starters must not be negative, got %d", c.Views.SeededStarters))
	}
	switch strings.ToLower(c.Views.SecondRunOrder) {
	case "reverse", "keep":
	default:
		errs = append(errs, fmt.Errorf("views.second_run_order must be reverse or keep, got %q", c.Views.SecondRunOrder))
	}
	if c.Views.HighlightDuration < 0 {
		errs = append(errs, fmt.Errorf("views.highlight_duration must not be negative"))
	}
	switch strings.ToLower(c.Observability.LogFormat) {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("observability.log_format must be json or text, got %q", c.Observability.LogFormat))
	}
	return errors.Join(errs...)
}
