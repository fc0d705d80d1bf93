package supervisor

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"discjockey/internal/logging"
)

// Relay receives termination signals for the supervisor. Signals are queued
// on a channel and handled by the poll loop, never in signal context.
type Relay struct {
	ch   chan os.Signal
	stop func()
}

// InstallRelay subscribes to SIGTERM and SIGINT. Call Close to restore the
// default disposition.
func InstallRelay() *Relay {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	return &Relay{ch: ch, stop: func() { signal.Stop(ch) }}
}

// C returns the channel on which termination signals arrive.
func (r *Relay) C() <-chan os.Signal {
	if r == nil {
		return nil
	}
	return r.ch
}

// Close unsubscribes from signal delivery.
func (r *Relay) Close() {
	if r == nil || r.stop == nil {
		return
	}
	r.stop()
	r.stop = nil
}

// forward sends sig to every busy slot's handler. Delivery is best effort: a
// handler that already exited but is not yet reaped is skipped silently.
func forward(table *SlotTable, sig os.Signal, logger *slog.Logger) int {
	sent := 0
	for _, slot := range table.Active() {
		if err := slot.handle.Signal(sig); err != nil {
			logger.Debug("signal delivery failed",
				logging.Int(logging.FieldSlot, slot.Index),
				logging.Int(logging.FieldPID, slot.PID()),
				logging.String("signal", sig.String()),
				logging.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}
