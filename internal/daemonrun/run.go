package daemonrun

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"discjockey/internal/config"
	"discjockey/internal/daemonize"
	"discjockey/internal/deps"
	"discjockey/internal/logging"
	"discjockey/internal/supervisor"
)

// Options configures supervisor process runtime behavior.
type Options struct {
	Development bool
	// Supervisor options appended after the runtime's own, mostly for tests.
	Supervisor []supervisor.Option
}

// Run detaches when configured, records the pidfile, and runs the supervisor
// loop until shutdown. In the launching parent of a daemonized run it returns
// nil as soon as the detached copy has started.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	if cfg.Daemonize() {
		child, err := daemonize.Detach(daemonize.Options{Output: cfg.Daemon.Output})
		if err != nil {
			return err
		}
		if child != nil {
			return nil
		}
	}

	runID := uuid.NewString()
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: opts.Development,
		RunID:       runID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidFile, err := daemonize.AcquirePIDFile(cfg.Daemon.PIDFile)
	if err != nil {
		logging.ErrorWithContext(logger, "pid file unavailable", "pidfile_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check pid_file permissions or stop the running instance"),
		)
		return err
	}
	defer releasePIDFile(pidFile, logger)

	relay := supervisor.InstallRelay()
	defer relay.Close()

	supOpts := []supervisor.Option{supervisor.WithRelay(relay)}
	if cfg.Supervisor.Udev {
		monitor := supervisor.NewMediaMonitor(cfg.Supervisor.Devices, logger)
		if err := monitor.Start(ctx); err != nil {
			return err
		}
		defer monitor.Stop()
		supOpts = append(supOpts, supervisor.WithNudge(monitor.Events()))
	}
	supOpts = append(supOpts, opts.Supervisor...)

	logger.Info("discjockey starting",
		logging.String(logging.FieldEventType, "runtime_started"),
		logging.Bool("detached", daemonize.Detached()),
		logging.String("pid_file", pidFile.Path()),
	)

	logDependencySnapshot(logger, cfg)

	return supervisor.New(cfg, logger, supOpts...).Run(ctx)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	for _, status := range deps.CheckBinaries([]deps.Requirement{deps.HandlerRequirement(cfg.Supervisor.Handler)}) {
		if status.Available {
			logger.Info("dependency snapshot",
				logging.String(logging.FieldEventType, "dependency_snapshot"),
				logging.String("dependency", status.Name),
				logging.String("path", status.Path),
			)
			continue
		}
		logging.WarnWithContext(logger, "handler not found", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("command", status.Command),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, "install the handler or set supervisor.handler to its full path"),
			logging.String(logging.FieldImpact, "launches fail and are retried every pass"),
		)
	}
}

func releasePIDFile(pidFile *daemonize.PIDFile, logger *slog.Logger) {
	if err := pidFile.Release(); err != nil {
		logging.WarnWithContext(logger, "failed to remove pid file", "pidfile_remove_failed",
			logging.Error(err),
			logging.String("pid_file", pidFile.Path()),
			logging.String(logging.FieldImpact, "stale pid file left behind"),
		)
	}
}
