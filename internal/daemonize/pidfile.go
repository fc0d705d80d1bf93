package daemonize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another live process holds the pidfile.
var ErrAlreadyRunning = errors.New("another instance holds the pid file")

// pidFileMode keeps the pidfile readable by unprivileged tooling. The lock
// creates the file, so the mode must be set there.
const pidFileMode = 0o644

// PIDFile is an exclusively locked pidfile holding "<pid>\n".
type PIDFile struct {
	path string
	lock *flock.Flock
}

// AcquirePIDFile locks path and records the current pid in it. An empty path
// returns a nil PIDFile, which is safe to Release.
func AcquirePIDFile(path string) (*PIDFile, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create pid directory: %w", err)
	}

	lock := flock.New(path, flock.SetPermissions(pidFileMode))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock pid file %s: %w", path, err)
	}
	if !ok {
		if pid, readErr := ReadPID(path); readErr == nil {
			return nil, fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, path, pid)
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
	}

	value := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(path, []byte(value), pidFileMode); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &PIDFile{path: path, lock: lock}, nil
}

// Path returns the pidfile location.
func (p *PIDFile) Path() string {
	if p == nil {
		return ""
	}
	return p.path
}

// Release removes the pidfile and drops the lock.
func (p *PIDFile) Release() error {
	if p == nil || p.lock == nil {
		return nil
	}
	removeErr := os.Remove(p.path)
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	unlockErr := p.lock.Unlock()
	p.lock = nil
	return errors.Join(removeErr, unlockErr)
}

// WritePID writes "<pid>\n" to path without locking. Helpers that only
// advertise their pid use this.
func WritePID(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), pidFileMode)
}

// ReadPID parses the pid recorded at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	return pid, nil
}
