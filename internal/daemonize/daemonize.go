package daemonize

import (
	"fmt"
	"os"

	"github.com/sevlyar/go-daemon"
)

// Options configures the detached process.
type Options struct {
	// Output receives the detached process's stdout and stderr, which handler
	// processes inherit. Empty means the null device.
	Output string
	// WorkDir is entered by the detached process once it has started. The
	// re-executed copy first runs in the caller's directory so relative
	// arguments resolve the same way in both processes. Defaults to "/".
	WorkDir string
	// Umask for the detached process. Zero selects 022 rather than keeping
	// the launcher's mask.
	Umask int
}

var detached bool

// Detached reports whether this process is the re-executed daemon copy.
func Detached() bool {
	return detached || daemon.WasReborn()
}

// Detach re-executes the current binary in a new session with stdin on the
// null device and stdout/stderr on opts.Output. It returns the child process
// in the parent, which should exit successfully, and nil in the child.
func Detach(opts Options) (*os.Process, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "/"
	}
	output := opts.Output
	if output == "" {
		output = os.DevNull
	}
	umask := opts.Umask
	if umask == 0 {
		umask = 0o022
	}

	ctx := &daemon.Context{
		LogFileName: output,
		LogFilePerm: 0o640,
		Umask:       umask,
		Args:        os.Args,
	}
	child, err := ctx.Reborn()
	if err != nil {
		return nil, fmt.Errorf("detach: %w", err)
	}
	if child != nil {
		return child, nil
	}
	if err := enterChild(workDir); err != nil {
		return nil, fmt.Errorf("detach: %w", err)
	}
	return nil, nil
}

// enterChild finishes setup in the re-executed copy. The reborn marker is
// removed from the environment so handlers built on go-daemon detach
// normally instead of believing they were already re-executed.
func enterChild(workDir string) error {
	detached = true
	if err := os.Unsetenv(daemon.MARK_NAME); err != nil {
		return fmt.Errorf("clear %s: %w", daemon.MARK_NAME, err)
	}
	if err := os.Chdir(workDir); err != nil {
		return fmt.Errorf("enter %s: %w", workDir, err)
	}
	return nil
}
