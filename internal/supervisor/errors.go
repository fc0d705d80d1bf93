package supervisor

import (
	"fmt"
	"strings"
)

// DeviceError reports a drive that could not be opened. It aborts the loop
// because the configured path is almost certainly wrong.
type DeviceError struct {
	Slot   int
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("slot %d: cannot open %s: %v", e.Slot, e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// ProbeError reports an ioctl failure on an open drive. The slot is treated
// as empty for the pass.
type ProbeError struct {
	Slot   int
	Device string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("slot %d: probe %s: %v", e.Slot, e.Device, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// SpawnError reports a process-creation failure caused by resource
// exhaustion. It is fatal.
type SpawnError struct {
	Slot   int
	Device string
	Argv   []string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("slot %d (%s): spawn %s: %v", e.Slot, e.Device, strings.Join(e.Argv, " "), e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExecError reports that the handler program could not be executed. The slot
// stays idle and the launch is retried on the next pass.
type ExecError struct {
	Slot   int
	Device string
	Argv   []string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("slot %d (%s): exec %s: %v", e.Slot, e.Device, strings.Join(e.Argv, " "), e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// WaitError reports an unexpected failure while collecting child exits.
type WaitError struct {
	Err error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("wait for handlers: %v", e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// ReapInconsistencyError reports an exited child whose pid matches no slot.
// It is only returned under the strict reap policy.
type ReapInconsistencyError struct {
	PID int
}

func (e *ReapInconsistencyError) Error() string {
	return fmt.Sprintf("reaped pid %d does not belong to any slot", e.PID)
}
