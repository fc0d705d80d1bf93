package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Supervisor contains the poll loop and handler settings.
type Supervisor struct {
	// RescanInterval is the pause between full poll passes, in seconds.
	RescanInterval int `toml:"rescan_interval"`
	// Handler is the command launched per slot when media is detected.
	Handler string `toml:"handler"`
	// Devices is the ordered list of drive paths; index equals slot number.
	Devices []string `toml:"devices"`
	// ClassifyMedia appends the media type label to the handler argv.
	ClassifyMedia bool `toml:"classify_media"`
	// StrictReap makes an exited pid that matches no slot fatal.
	StrictReap bool `toml:"strict_reap"`
	// ShutdownGrace bounds how long shutdown waits for signalled handlers,
	// in seconds. Zero exits without waiting.
	ShutdownGrace int `toml:"shutdown_grace"`
	// Udev wakes the loop early on kernel media-change events.
	Udev bool `toml:"udev"`
}

// Daemon contains process lifecycle settings.
type Daemon struct {
	Foreground bool   `toml:"foreground"`
	PIDFile    string `toml:"pid_file"`
	// Output receives stdout/stderr of the detached process and its handlers.
	Output string `toml:"output"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for discjockey.
type Config struct {
	Supervisor Supervisor `toml:"supervisor"`
	Daemon     Daemon     `toml:"daemon"`
	Logging    Logging    `toml:"logging"`
}

// Override mutates a freshly decoded Config before normalization. Command-line
// flags are applied through overrides so they win over file values.
type Override func(*Config)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates and parses a configuration file, applies overrides, then
// normalizes and validates the result. A missing file is not an error.
func Load(path string, overrides ...Override) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: parse config %s: %v", ErrInvalid, resolvedPath, err)
		}
	}

	for _, override := range overrides {
		if override != nil {
			override(&cfg)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("%w: config file %s does not exist", ErrInvalid, expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("%w: config path %s is a directory", ErrInvalid, expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Daemonize reports whether the supervisor detaches from its session.
func (c *Config) Daemonize() bool {
	return !c.Daemon.Foreground
}

// RescanDuration returns the poll interval as a duration.
func (c *Config) RescanDuration() time.Duration {
	return time.Duration(c.Supervisor.RescanInterval) * time.Second
}

// GraceDuration returns the bounded shutdown wait as a duration.
func (c *Config) GraceDuration() time.Duration {
	return time.Duration(c.Supervisor.ShutdownGrace) * time.Second
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
