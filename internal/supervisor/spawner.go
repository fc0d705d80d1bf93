package supervisor

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"unicode/utf8"

	"discjockey/internal/disc"
	"discjockey/internal/logging"
)

// Launcher starts a handler process without waiting for it.
type Launcher interface {
	Launch(argv []string) (Handle, error)
}

type execLauncher struct {
	stdin  *os.File
	stdout *os.File
	stderr *os.File
}

// NewExecLauncher returns a Launcher that starts handlers with os/exec. The
// child inherits the given streams directly; a nil stream is connected to
// the null device. Streams must be files so no copy goroutines are needed.
func NewExecLauncher(stdin, stdout, stderr *os.File) Launcher {
	return execLauncher{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (l execLauncher) Launch(argv []string) (Handle, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if l.stdin != nil {
		cmd.Stdin = l.stdin
	}
	if l.stdout != nil {
		cmd.Stdout = l.stdout
	}
	if l.stderr != nil {
		cmd.Stderr = l.stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return osHandle{proc: cmd.Process}, nil
}

// HandlerArgs builds the handler argv: handler, device, the final character
// of the device path, and the media label when classification is enabled.
func HandlerArgs(handler, device string, media disc.MediaType, classify bool) []string {
	argv := []string{handler, device, lastChar(device)}
	if classify {
		argv = append(argv, string(media))
	}
	return argv
}

func lastChar(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeLastRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s[len(s)-1:]
	}
	return s[len(s)-size:]
}

// resourceExhausted reports whether a start failure stems from the system
// being out of processes, memory, or descriptors.
func resourceExhausted(err error) bool {
	for _, errno := range []syscall.Errno{syscall.EAGAIN, syscall.ENOMEM, syscall.ENFILE, syscall.EMFILE} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

type spawner struct {
	handler  string
	classify bool
	launcher Launcher
	table    *SlotTable
	logger   *slog.Logger
}

// spawn launches the handler for slot i and binds it. Resource exhaustion
// returns *SpawnError; any other start failure returns *ExecError.
func (s *spawner) spawn(i int, media disc.MediaType) error {
	slot := s.table.Slot(i)
	argv := HandlerArgs(s.handler, slot.Device, media, s.classify)

	handle, err := s.launcher.Launch(argv)
	if err != nil {
		if resourceExhausted(err) {
			return &SpawnError{Slot: i, Device: slot.Device, Argv: argv, Err: err}
		}
		return &ExecError{Slot: i, Device: slot.Device, Argv: argv, Err: err}
	}
	if err := s.table.Bind(i, handle); err != nil {
		return err
	}

	s.logger.Info("handler started",
		logging.Int(logging.FieldSlot, i),
		logging.String(logging.FieldDevice, slot.Device),
		logging.Int(logging.FieldPID, handle.PID()),
		logging.String("media", string(media)),
		logging.Strings("argv", argv),
		logging.String(logging.FieldEventType, "handler_started"),
	)
	return nil
}
