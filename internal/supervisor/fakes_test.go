package supervisor

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"discjockey/internal/config"
	"discjockey/internal/disc"
	"discjockey/internal/logging"
)

type probeResult struct {
	status disc.DriveStatus
	media  disc.MediaType
	err    error
}

type stubProber struct {
	results map[string]probeResult
	calls   map[string]int
}

func newStubProber() *stubProber {
	return &stubProber{results: map[string]probeResult{}, calls: map[string]int{}}
}

func (p *stubProber) set(device string, status disc.DriveStatus, media disc.MediaType) {
	p.results[device] = probeResult{status: status, media: media}
}

func (p *stubProber) DriveStatus(device string) (disc.DriveStatus, error) {
	p.calls[device]++
	r := p.results[device]
	return r.status, r.err
}

func (p *stubProber) MediaType(device string) (disc.MediaType, error) {
	r := p.results[device]
	if r.media == "" {
		return disc.MediaUnknown, errors.New("no classification")
	}
	return r.media, nil
}

type stubHandle struct {
	pid      int
	signals  []os.Signal
	released bool
	// onSignal runs after each delivered signal.
	onSignal func(h *stubHandle, sig os.Signal)
}

func (h *stubHandle) PID() int { return h.pid }

func (h *stubHandle) Signal(sig os.Signal) error {
	h.signals = append(h.signals, sig)
	if h.onSignal != nil {
		h.onSignal(h, sig)
	}
	return nil
}

func (h *stubHandle) Release() error {
	h.released = true
	return nil
}

type stubLauncher struct {
	nextPID  int
	argvs    [][]string
	handles  []*stubHandle
	errs     []error
	onSignal func(h *stubHandle, sig os.Signal)
}

func (l *stubLauncher) Launch(argv []string) (Handle, error) {
	l.argvs = append(l.argvs, argv)
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if l.nextPID == 0 {
		l.nextPID = 1000
	}
	h := &stubHandle{pid: l.nextPID, onSignal: l.onSignal}
	l.nextPID++
	l.handles = append(l.handles, h)
	return h, nil
}

type stubWaiter struct {
	exits []Exit
	err   error
}

func (w *stubWaiter) exit(pid int, code int) {
	w.exits = append(w.exits, Exit{PID: pid, Status: unix.WaitStatus(code << 8)})
}

func (w *stubWaiter) kill(pid int, sig syscall.Signal) {
	w.exits = append(w.exits, Exit{PID: pid, Status: unix.WaitStatus(sig)})
}

func (w *stubWaiter) Reap() (Exit, bool, error) {
	if w.err != nil {
		return Exit{}, false, w.err
	}
	if len(w.exits) == 0 {
		return Exit{}, false, nil
	}
	e := w.exits[0]
	w.exits = w.exits[1:]
	return e, true, nil
}

func testConfig(devices ...string) *config.Config {
	cfg := config.Default()
	cfg.Supervisor.Devices = devices
	cfg.Supervisor.Handler = "rip"
	cfg.Supervisor.RescanInterval = 1
	cfg.Supervisor.ShutdownGrace = 1
	return &cfg
}

type harness struct {
	sup      *Supervisor
	prober   *stubProber
	launcher *stubLauncher
	waiter   *stubWaiter
	relay    *Relay
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	h := &harness{
		prober:   newStubProber(),
		launcher: &stubLauncher{},
		waiter:   &stubWaiter{},
		relay:    &Relay{ch: make(chan os.Signal, 4)},
	}
	h.sup = New(cfg, logging.NewNop(),
		WithProber(h.prober),
		WithLauncher(h.launcher),
		WithWaiter(h.waiter),
		WithRelay(h.relay),
	)
	h.sup.graceTick = 5 * time.Millisecond
	return h
}
