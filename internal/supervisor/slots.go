package supervisor

import (
	"fmt"
	"os"
)

// Handle is a running handler process.
type Handle interface {
	PID() int
	Signal(sig os.Signal) error
	// Release frees resources held for the process once it has been reaped.
	Release() error
}

type osHandle struct {
	proc *os.Process
}

func (h osHandle) PID() int                   { return h.proc.Pid }
func (h osHandle) Signal(sig os.Signal) error { return h.proc.Signal(sig) }
func (h osHandle) Release() error             { return h.proc.Release() }

// Slot is a snapshot of one drive's position in the table.
type Slot struct {
	Index  int
	Device string
	handle Handle
}

// Busy reports whether a handler is running for the slot.
func (s Slot) Busy() bool {
	return s.handle != nil
}

// PID returns the bound handler pid, or 0 when idle.
func (s Slot) PID() int {
	if s.handle == nil {
		return 0
	}
	return s.handle.PID()
}

// SlotTable maps drives to their running handlers. The device list is fixed
// at construction and every pid is bound to at most one slot.
type SlotTable struct {
	slots []Slot
	byPID map[int]int
}

// NewSlotTable creates an idle table with one slot per device, in order.
func NewSlotTable(devices []string) *SlotTable {
	slots := make([]Slot, len(devices))
	for i, device := range devices {
		slots[i] = Slot{Index: i, Device: device}
	}
	return &SlotTable{
		slots: slots,
		byPID: make(map[int]int, len(devices)),
	}
}

// Len returns the number of slots.
func (t *SlotTable) Len() int {
	return len(t.slots)
}

// Slot returns a snapshot of slot i.
func (t *SlotTable) Slot(i int) Slot {
	return t.slots[i]
}

// Bind records h as the handler for slot i.
func (t *SlotTable) Bind(i int, h Handle) error {
	if i < 0 || i >= len(t.slots) {
		return fmt.Errorf("slot %d out of range", i)
	}
	if t.slots[i].Busy() {
		return fmt.Errorf("slot %d already bound to pid %d", i, t.slots[i].PID())
	}
	pid := h.PID()
	if owner, ok := t.byPID[pid]; ok {
		return fmt.Errorf("pid %d already bound to slot %d", pid, owner)
	}
	t.slots[i].handle = h
	t.byPID[pid] = i
	return nil
}

// Release clears the slot bound to pid and returns its previous state.
func (t *SlotTable) Release(pid int) (Slot, bool) {
	i, ok := t.byPID[pid]
	if !ok {
		return Slot{}, false
	}
	prev := t.slots[i]
	delete(t.byPID, pid)
	t.slots[i].handle = nil
	if prev.handle != nil {
		_ = prev.handle.Release()
	}
	return prev, true
}

// Active returns the busy slots in index order.
func (t *SlotTable) Active() []Slot {
	active := make([]Slot, 0, len(t.byPID))
	for _, slot := range t.slots {
		if slot.Busy() {
			active = append(active, slot)
		}
	}
	return active
}

// ActiveCount returns the number of busy slots.
func (t *SlotTable) ActiveCount() int {
	return len(t.byPID)
}
