package supervisor

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"discjockey/internal/logging"
)

// MediaMonitor listens for udev media-change events on the configured drives
// and wakes the poll loop early. Polling remains authoritative; a missed or
// unavailable event stream only delays detection until the next pass.
type MediaMonitor struct {
	logger  *slog.Logger
	devices map[string]struct{}
	events  chan struct{}

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMediaMonitor creates a monitor for devices. It returns nil when there is
// nothing to watch.
func NewMediaMonitor(devices []string, logger *slog.Logger) *MediaMonitor {
	set := make(map[string]struct{}, len(devices))
	for _, device := range devices {
		device = strings.TrimSpace(device)
		if device != "" {
			set[device] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return &MediaMonitor{
		logger:  logging.NewComponentLogger(logger, "udev"),
		devices: set,
		events:  make(chan struct{}, 1),
	}
}

// Events delivers a coalesced wake-up for each burst of matching events.
func (m *MediaMonitor) Events() <-chan struct{} {
	if m == nil {
		return nil
	}
	return m.events
}

// Start connects to the kernel uevent socket. Connection failures are logged
// and leave the monitor inactive.
func (m *MediaMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket",
			"udev_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the supervisor may open netlink sockets"),
			logging.String(logging.FieldImpact, "media detection relies on polling only"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("udev monitor started",
		logging.String(logging.FieldEventType, "udev_monitor_started"),
		logging.Int("devices", len(m.devices)),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *MediaMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Debug("udev monitor stopped",
		logging.String(logging.FieldEventType, "udev_monitor_stopped"),
	)
}

// Running reports whether the monitor is connected.
func (m *MediaMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *MediaMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "udev monitor error",
				"udev_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "media detection relies on polling only"),
			)
		}
	}
}

// buildMatcher matches block-device media changes on optical drives.
func (m *MediaMonitor) buildMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func (m *MediaMonitor) handleEvent(uevent netlink.UEvent) bool {
	devname := extractDeviceName(uevent)
	if devname == "" {
		return false
	}
	if _, ok := m.devices[devname]; !ok {
		m.logger.Debug("ignoring media event for unconfigured device",
			logging.String(logging.FieldDevice, devname),
		)
		return false
	}

	m.logger.Debug("media change event",
		logging.String(logging.FieldDevice, devname),
		logging.String("action", string(uevent.Action)),
		logging.String(logging.FieldEventType, "udev_media_change"),
	)
	select {
	case m.events <- struct{}{}:
	default:
	}
	return true
}

func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return "/dev/" + last
}
