package supervisor

import (
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sys/unix"

	"discjockey/internal/logging"
)

// Exit describes one collected child.
type Exit struct {
	PID    int
	Status unix.WaitStatus
}

// Waiter collects exited children without blocking. ok is false once no
// exited child remains, including when the process has no children at all.
type Waiter interface {
	Reap() (exit Exit, ok bool, err error)
}

type wait4Waiter struct{}

// NewWaiter returns a Waiter backed by wait4(-1, WNOHANG).
func NewWaiter() Waiter {
	return wait4Waiter{}
}

func (wait4Waiter) Reap() (Exit, bool, error) {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return Exit{}, false, nil
		case err != nil:
			return Exit{}, false, err
		case pid <= 0:
			return Exit{}, false, nil
		}
		return Exit{PID: pid, Status: ws}, true, nil
	}
}

type reaper struct {
	waiter Waiter
	table  *SlotTable
	strict bool
	logger *slog.Logger
}

// drain collects every exited child and frees its slot. It returns the
// number of slots released.
func (r *reaper) drain() (int, error) {
	released := 0
	for {
		exit, ok, err := r.waiter.Reap()
		if err != nil {
			return released, &WaitError{Err: err}
		}
		if !ok {
			return released, nil
		}

		slot, found := r.table.Release(exit.PID)
		if !found {
			if r.strict {
				return released, &ReapInconsistencyError{PID: exit.PID}
			}
			logging.WarnWithContext(r.logger, "reaped process without a slot",
				"reap_unknown_pid",
				logging.Int(logging.FieldPID, exit.PID),
				logging.String(logging.FieldErrorHint, "enable strict_reap to treat this as fatal"),
				logging.String(logging.FieldImpact, "none; exit status discarded"),
			)
			continue
		}

		released++
		r.logger.Info("handler exited",
			logging.Int(logging.FieldSlot, slot.Index),
			logging.String(logging.FieldDevice, slot.Device),
			logging.Int(logging.FieldPID, exit.PID),
			logging.String("status", describeStatus(exit.Status)),
			logging.String(logging.FieldEventType, "handler_exited"),
		)
	}
}

func describeStatus(ws unix.WaitStatus) string {
	switch {
	case ws.Exited():
		return "exit " + strconv.Itoa(ws.ExitStatus())
	case ws.Signaled():
		return "signal " + unix.SignalName(ws.Signal())
	default:
		return "unknown"
	}
}
