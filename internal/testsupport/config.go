// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"discjockey/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a foreground config with one device, a pidfile under a
// unique temp directory, and quiet JSON logging. Options are applied in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Supervisor.Devices = []string{"/dev/sr0"}
	cfgVal.Daemon.Foreground = true
	cfgVal.Daemon.PIDFile = filepath.Join(base, "run", "discjockey.pid")
	cfgVal.Daemon.Output = os.DevNull
	cfgVal.Logging.Format = "json"
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDevices replaces the device list.
func WithDevices(devices ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Supervisor.Devices = devices
	}
}

// WithoutPIDFile clears the pidfile path.
func WithoutPIDFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.PIDFile = ""
	}
}

// WithHandlerScript writes an executable shell script with the given body
// and configures it as the handler by absolute path.
func WithHandlerScript(body string) ConfigOption {
	return func(b *configBuilder) {
		target := filepath.Join(b.baseDir, "bin", "handler")
		WriteExecutable(b.t, target, "#!/bin/sh\n"+body+"\n")
		b.cfg.Supervisor.Handler = target
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default handler is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{config.DefaultHandler}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteExecutable(b.t, filepath.Join(binDir, name), "#!/bin/sh\nexit 0\n")
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}
