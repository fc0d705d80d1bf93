package config

import (
	"errors"
	"fmt"
)

// ErrInvalid marks configuration and argument errors. The CLI reports these
// with usage text and a distinct exit code.
var ErrInvalid = errors.New("invalid configuration")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.RescanInterval < 1 {
		return fmt.Errorf("%w: invalid rescan delay %d (must be at least 1 second)", ErrInvalid, c.Supervisor.RescanInterval)
	}
	if c.Supervisor.ShutdownGrace < 0 {
		return fmt.Errorf("%w: supervisor.shutdown_grace must not be negative", ErrInvalid)
	}
	if len(c.Supervisor.Devices) == 0 {
		return fmt.Errorf("%w: no devices specified", ErrInvalid)
	}
	seen := make(map[string]int, len(c.Supervisor.Devices))
	for i, device := range c.Supervisor.Devices {
		if device == "" {
			return fmt.Errorf("%w: device %d is empty", ErrInvalid, i)
		}
		if prev, ok := seen[device]; ok {
			return fmt.Errorf("%w: device %s listed twice (positions %d and %d)", ErrInvalid, device, prev, i)
		}
		seen[device] = i
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be auto, console, or json (got %q)", ErrInvalid, c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn, or error (got %q)", ErrInvalid, c.Logging.Level)
	}
	return nil
}
