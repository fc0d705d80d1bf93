package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"discjockey/internal/disc"
	"discjockey/internal/logging"
	"discjockey/internal/testsupport"
)

func TestRelayNilSafety(t *testing.T) {
	var r *Relay
	if r.C() != nil {
		t.Fatal("nil relay should have no channel")
	}
	r.Close()
}

func TestTerminateSignalReachesRunningHandler(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	dir := t.TempDir()
	handlerLog := filepath.Join(dir, "handler.log")
	script := filepath.Join(dir, "handler")
	testsupport.WriteExecutable(t, script, "#!/bin/sh\n"+
		"trap 'echo got TERM >> "+handlerLog+"; exit 0' TERM\n"+
		"echo \"args: $*\" > "+handlerLog+"\n"+
		"while :; do sleep 1 & wait $!; done\n")

	cfg := testConfig("/dev/sr5")
	cfg.Supervisor.Handler = script
	cfg.Supervisor.ShutdownGrace = 5

	prober := newStubProber()
	prober.set("/dev/sr5", disc.DriveStatusDiscOK, disc.MediaAudio)

	relay := InstallRelay()
	defer relay.Close()

	sup := New(cfg, logging.NewNop(),
		WithProber(prober),
		WithLauncher(NewExecLauncher(nil, nil, nil)),
		WithRelay(relay),
	)

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if data, err := os.ReadFile(handlerLog); err == nil && strings.HasPrefix(string(data), "args:") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("handler did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not stop after SIGTERM")
	}

	if sup.State() != StateTerminated {
		t.Fatalf("state = %s, want terminated", sup.State())
	}
	if n := sup.table.ActiveCount(); n != 0 {
		t.Fatalf("%d handlers still bound after shutdown", n)
	}
	data, err := os.ReadFile(handlerLog)
	if err != nil {
		t.Fatalf("read handler log: %v", err)
	}
	if got, want := string(data), "args: /dev/sr5 5 audio\ngot TERM\n"; got != want {
		t.Fatalf("handler log = %q, want %q", got, want)
	}
}
