package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"discjockey/internal/daemonize"
)

// runMainEnv makes the test binary behave as discjockey so the detach path
// can re-execute it.
const runMainEnv = "DISCJOCKEY_TEST_RUN_MAIN"

func TestMain(m *testing.M) {
	if os.Getenv(runMainEnv) == "1" {
		main()
		return
	}
	os.Exit(m.Run())
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDaemonizedRunPIDFileRoundTrip(t *testing.T) {
	if _, err := os.Stat("/proc/self/cwd"); err != nil {
		t.Skip("procfs not available")
	}
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "discjockey.pid")
	logPath := filepath.Join(dir, "discjockey.log")

	launcher := exec.Command(os.Args[0],
		"-p", pidPath, "-o", logPath, "-d", "1", "--log-format", "json", "/dev/null")
	launcher.Env = append(os.Environ(), runMainEnv+"=1", "HOME="+dir)
	launcher.Dir = dir
	if out, err := launcher.CombinedOutput(); err != nil {
		t.Fatalf("launcher failed: %v\n%s", err, out)
	}

	readLog := func() string {
		data, _ := os.ReadFile(logPath)
		return string(data)
	}
	waitFor(t, "supervisor start", func() bool {
		return strings.Contains(readLog(), `"event_type":"supervisor_started"`)
	})

	pid, err := daemonize.ReadPID(pidPath)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	stopped := false
	t.Cleanup(func() {
		if !stopped {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	})
	if pid == launcher.Process.Pid {
		t.Fatalf("pid file holds the launcher pid %d, want the detached pid", pid)
	}
	if cwd, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid)); err != nil || cwd != "/" {
		t.Fatalf("detached cwd = %q (%v), want /", cwd, err)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}
	stopped = true
	waitFor(t, "pid file removal", func() bool {
		_, err := os.Stat(pidPath)
		return os.IsNotExist(err)
	})
	waitFor(t, "shutdown log", func() bool {
		return strings.Contains(readLog(), `"event_type":"supervisor_stopped"`)
	})
	if !strings.Contains(readLog(), `"event_type":"shutdown_requested"`) {
		t.Fatalf("expected shutdown_requested in log:\n%s", readLog())
	}
}
