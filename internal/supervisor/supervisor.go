package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"
	"time"

	"discjockey/internal/config"
	"discjockey/internal/disc"
	"discjockey/internal/logging"
)

// State is the supervisor lifecycle phase.
type State int

const (
	StateRunning State = iota
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const defaultGraceTick = 100 * time.Millisecond

// Supervisor owns the slot table and drives the poll/sleep/reap cycle.
type Supervisor struct {
	logger   *slog.Logger
	table    *SlotTable
	prober   disc.Prober
	spawner  *spawner
	reaper   *reaper
	relay    *Relay
	nudge    <-chan struct{}
	classify bool
	interval time.Duration
	grace    time.Duration

	graceTick time.Duration
	state     State
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithProber replaces the ioctl prober.
func WithProber(p disc.Prober) Option {
	return func(s *Supervisor) { s.prober = p }
}

// WithLauncher replaces the os/exec launcher.
func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) { s.spawner.launcher = l }
}

// WithWaiter replaces the wait4 reaper backend.
func WithWaiter(w Waiter) Option {
	return func(s *Supervisor) { s.reaper.waiter = w }
}

// WithRelay sets the signal source. Without one the loop only stops when
// its context is cancelled.
func WithRelay(r *Relay) Option {
	return func(s *Supervisor) { s.relay = r }
}

// WithNudge sets a channel that ends the current sleep early.
func WithNudge(ch <-chan struct{}) Option {
	return func(s *Supervisor) { s.nudge = ch }
}

// New builds a supervisor with one idle slot per configured device.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Supervisor {
	logger = logging.NewComponentLogger(logger, "supervisor")
	table := NewSlotTable(cfg.Supervisor.Devices)

	s := &Supervisor{
		logger:   logger,
		table:    table,
		prober:   disc.NewProber(),
		classify: cfg.Supervisor.ClassifyMedia,
		interval: cfg.RescanDuration(),
		grace:    cfg.GraceDuration(),
		spawner: &spawner{
			handler:  cfg.Supervisor.Handler,
			classify: cfg.Supervisor.ClassifyMedia,
			launcher: NewExecLauncher(os.Stdin, os.Stdout, os.Stderr),
			table:    table,
			logger:   logger,
		},
		reaper: &reaper{
			waiter: NewWaiter(),
			table:  table,
			strict: cfg.Supervisor.StrictReap,
			logger: logger,
		},
		graceTick: defaultGraceTick,
		state:     StateRunning,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// State returns the current lifecycle phase.
func (s *Supervisor) State() State {
	return s.state
}

// Slots returns a snapshot of every slot in index order.
func (s *Supervisor) Slots() []Slot {
	slots := make([]Slot, s.table.Len())
	for i := range slots {
		slots[i] = s.table.Slot(i)
	}
	return slots
}

// Run polls, sleeps, and reaps until a termination signal arrives or ctx is
// cancelled, then waits up to the shutdown grace for signalled handlers. A
// fatal fault returns immediately with the error; live handlers are left
// running.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("supervisor started",
		logging.Strings("devices", s.devices()),
		logging.String("handler", s.spawner.handler),
		logging.Duration("rescan_interval", s.interval),
		logging.Bool("classify_media", s.classify),
		logging.String(logging.FieldEventType, "supervisor_started"),
	)

	for s.state == StateRunning {
		if err := s.PollOnce(); err != nil {
			s.logFatal(err)
			return err
		}
		s.sleep(ctx)
		if _, err := s.reaper.drain(); err != nil {
			s.logFatal(err)
			return err
		}
	}

	if err := s.awaitHandlers(); err != nil {
		s.logFatal(err)
		return err
	}
	s.state = StateTerminated
	s.logger.Info("supervisor stopped",
		logging.Int("handlers_remaining", s.table.ActiveCount()),
		logging.String(logging.FieldEventType, "supervisor_stopped"),
	)
	return nil
}

// PollOnce probes every idle slot and launches a handler for each drive that
// reports media. Busy slots are skipped without touching the drive.
func (s *Supervisor) PollOnce() error {
	for i := 0; i < s.table.Len(); i++ {
		slot := s.table.Slot(i)
		if slot.Busy() {
			continue
		}

		status, err := s.prober.DriveStatus(slot.Device)
		if err != nil {
			var openErr *disc.OpenError
			if errors.As(err, &openErr) || errors.Is(err, disc.ErrEmptyDevice) {
				return &DeviceError{Slot: i, Device: slot.Device, Err: err}
			}
			logging.WarnWithContext(s.logger, "drive status probe failed",
				"probe_failed",
				logging.Int(logging.FieldSlot, i),
				logging.String(logging.FieldDevice, slot.Device),
				logging.Error(&ProbeError{Slot: i, Device: slot.Device, Err: err}),
				logging.String(logging.FieldErrorHint, "verify the path is an optical drive"),
				logging.String(logging.FieldImpact, "slot treated as empty this pass"),
			)
			continue
		}
		if !status.MediaPresent() {
			s.logger.Debug("no media",
				logging.Int(logging.FieldSlot, i),
				logging.String(logging.FieldDevice, slot.Device),
				logging.String("drive_status", status.String()),
			)
			continue
		}

		media := disc.MediaUnknown
		if s.classify {
			if media, err = s.prober.MediaType(slot.Device); err != nil {
				media = disc.MediaUnknown
				s.logger.Debug("media classification failed",
					logging.Int(logging.FieldSlot, i),
					logging.String(logging.FieldDevice, slot.Device),
					logging.Error(err),
				)
			}
		}

		if err := s.spawner.spawn(i, media); err != nil {
			var execErr *ExecError
			if errors.As(err, &execErr) {
				logging.WarnWithContext(s.logger, "handler could not be executed",
					"handler_exec_failed",
					logging.Int(logging.FieldSlot, i),
					logging.String(logging.FieldDevice, slot.Device),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the handler path and permissions"),
					logging.String(logging.FieldImpact, "launch retried next pass"),
				)
				continue
			}
			return err
		}
	}
	return nil
}

// sleep waits one rescan interval. A termination signal or cancelled context
// starts shutdown; a udev nudge ends the wait early.
func (s *Supervisor) sleep(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
	case sig := <-s.relay.C():
		s.shutdown(sig)
	case <-ctx.Done():
		s.shutdown(syscall.SIGTERM)
	case <-s.nudge:
		s.logger.Debug("woken by media event")
	}
}

// shutdown relays sig to every live handler and stops further launches.
func (s *Supervisor) shutdown(sig os.Signal) {
	s.state = StateShuttingDown
	sent := forward(s.table, sig, s.logger)
	s.logger.Info("shutdown requested",
		logging.String("signal", sig.String()),
		logging.Int("handlers_signalled", sent),
		logging.String(logging.FieldEventType, "shutdown_requested"),
	)
}

// awaitHandlers reaps signalled handlers until none remain or the grace
// period ends. Repeated signals are relayed again.
func (s *Supervisor) awaitHandlers() error {
	if s.table.ActiveCount() == 0 {
		return nil
	}
	if s.grace <= 0 {
		s.warnAbandoned()
		return nil
	}

	deadline := time.NewTimer(s.grace)
	defer deadline.Stop()
	tick := time.NewTicker(s.graceTick)
	defer tick.Stop()

	for s.table.ActiveCount() > 0 {
		select {
		case <-deadline.C:
			s.warnAbandoned()
			return nil
		case sig := <-s.relay.C():
			forward(s.table, sig, s.logger)
		case <-tick.C:
			if _, err := s.reaper.drain(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Supervisor) warnAbandoned() {
	for _, slot := range s.table.Active() {
		logging.WarnWithContext(s.logger, "handler still running at exit",
			"handler_abandoned",
			logging.Int(logging.FieldSlot, slot.Index),
			logging.String(logging.FieldDevice, slot.Device),
			logging.Int(logging.FieldPID, slot.PID()),
			logging.String(logging.FieldErrorHint, "raise supervisor.shutdown_grace if handlers need longer to stop"),
			logging.String(logging.FieldImpact, "handler continues unsupervised"),
		)
	}
}

func (s *Supervisor) logFatal(err error) {
	logging.ErrorWithContext(s.logger, "supervisor stopped on fatal error",
		"supervisor_fatal",
		logging.Error(err),
		logging.Int("handlers_running", s.table.ActiveCount()),
	)
}

func (s *Supervisor) devices() []string {
	devices := make([]string, s.table.Len())
	for i := range devices {
		devices[i] = s.table.Slot(i).Device
	}
	return devices
}
