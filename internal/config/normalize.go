package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeSupervisor()
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSupervisor() {
	c.Supervisor.Handler = strings.TrimSpace(c.Supervisor.Handler)
	if c.Supervisor.Handler == "" {
		c.Supervisor.Handler = defaultHandler
	}

	devices := make([]string, 0, len(c.Supervisor.Devices))
	for _, device := range c.Supervisor.Devices {
		devices = append(devices, strings.TrimSpace(device))
	}
	c.Supervisor.Devices = devices
}

func (c *Config) normalizeDaemon() error {
	var err error

	c.Daemon.PIDFile = strings.TrimSpace(c.Daemon.PIDFile)
	if c.Daemon.PIDFile == "" && c.Daemonize() {
		c.Daemon.PIDFile = defaultPIDFile
	}
	if c.Daemon.PIDFile, err = expandPath(c.Daemon.PIDFile); err != nil {
		return fmt.Errorf("daemon.pid_file: %w", err)
	}

	c.Daemon.Output = strings.TrimSpace(c.Daemon.Output)
	if c.Daemon.Output == "" {
		c.Daemon.Output = os.DevNull
	}
	if c.Daemon.Output, err = expandPath(c.Daemon.Output); err != nil {
		return fmt.Errorf("daemon.output: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
