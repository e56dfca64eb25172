// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, then an optional YAML file,
// then SNNV_ environment variables.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/snnvision/internal/domain/dataset"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the processing job queue and the number of runs
	// waiting on their timers.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of workers running processing jobs.
	WorkerCount int `koanf:"worker_count"`

	// MaxSessions caps the number of page sessions held in memory.
	MaxSessions int `koanf:"max_sessions"`

	// EventCount is the size of each synthetic event batch.
	EventCount int `koanf:"event_count"`

	// EventsDelayMS is the delay between a trigger and the event refresh.
	EventsDelayMS int `koanf:"events_delay_ms"`

	// PredictionDelayMS is the delay between a trigger and the mock prediction.
	PredictionDelayMS int `koanf:"prediction_delay_ms"`

	// DefaultDataset is selected for new sessions.
	DefaultDataset string `koanf:"default_dataset"`

	// SessionCookie names the cookie carrying the session id.
	SessionCookie string `koanf:"session_cookie"`

	// WSPingIntervalMS is the WebSocket keepalive period.
	WSPingIntervalMS int `koanf:"ws_ping_interval_ms"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		QueueSize:         1024,
		WorkerCount:       runtime.NumCPU() * 4,
		MaxSessions:       10_000,
		EventCount:        500,
		EventsDelayMS:     1500,
		PredictionDelayMS: 3000,
		DefaultDataset:    string(dataset.DVSGesture),
		SessionCookie:     "snnv_session",
		WSPingIntervalMS:  30_000,
	}
}

// EventsDelay returns EventsDelayMS as a duration.
func (c *Config) EventsDelay() time.Duration {
	return time.Duration(c.EventsDelayMS) * time.Millisecond
}

// PredictionDelay returns PredictionDelayMS as a duration.
func (c *Config) PredictionDelay() time.Duration {
	return time.Duration(c.PredictionDelayMS) * time.Millisecond
}

// WSPingInterval returns WSPingIntervalMS as a duration.
func (c *Config) WSPingInterval() time.Duration {
	return time.Duration(c.WSPingIntervalMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxSessions < 1:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.EventCount < 1:
		return fmt.Errorf("%w: event_count must be positive", ErrInvalidConfig)
	case c.EventsDelayMS < 0 || c.PredictionDelayMS < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	case c.EventsDelayMS > c.PredictionDelayMS:
		return fmt.Errorf("%w: events_delay_ms must not exceed prediction_delay_ms", ErrInvalidConfig)
	case c.SessionCookie == "":
		return fmt.Errorf("%w: session_cookie must not be empty", ErrInvalidConfig)
	case c.WSPingIntervalMS < 1:
		return fmt.Errorf("%w: ws_ping_interval_ms must be positive", ErrInvalidConfig)
	}
	if _, err := dataset.Parse(c.DefaultDataset); err != nil {
		return fmt.Errorf("%w: default_dataset: %w", ErrInvalidConfig, err)
	}
	return nil
}
