package config

import (
	"errors"
	"time"
)

// Config holds everything the sequenceengine binary needs to start a run.
type Config struct {
	SequencePath string // a single .seq.hcl file or a directory of them

	LogFormat string // "text" or "json"
	LogLevel  string // "debug", "info", "warn", "error"

	HealthcheckPort int // 0 disables the health/metrics server
	Workers         int
	DefaultTimeout  time.Duration
	// DrainDeadline bounds how long a cancelled run waits for in-flight
	// nodes to finish before the scheduler gives up. 0 waits indefinitely.
	DrainDeadline time.Duration
}

// New validates cfg and returns it, mirroring the teacher's app.NewConfig.
func New(cfg Config) (*Config, error) {
	if cfg.SequencePath == "" {
		return nil, errors.New("SequencePath is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("LogFormat must be 'text' or 'json'")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("LogLevel must be 'debug', 'info', 'warn', or 'error'")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("Workers must be a positive integer")
	}
	return &cfg, nil
}
