package daemonize

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
)

func TestAcquirePIDFileWritesAndRemoves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "discjockey.pid")

	pf, err := AcquirePIDFile(path)
	if err != nil {
		t.Fatalf("AcquirePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	want := strconv.Itoa(os.Getpid()) + "\n"
	if string(data) != want {
		t.Fatalf("pid file contents %q, want %q", data, want)
	}
	if pf.Path() != path {
		t.Fatalf("Path = %q", pf.Path())
	}

	if err := pf.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pid file should be removed, stat err %v", err)
	}
	if err := pf.Release(); err != nil {
		t.Fatalf("second Release should be a no-op: %v", err)
	}
}

func TestAcquirePIDFileIsWorldReadable(t *testing.T) {
	old := syscall.Umask(0o022)
	defer syscall.Umask(old)

	path := filepath.Join(t.TempDir(), "discjockey.pid")
	pf, err := AcquirePIDFile(path)
	if err != nil {
		t.Fatalf("AcquirePIDFile: %v", err)
	}
	defer pf.Release()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat pid file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o644 {
		t.Fatalf("pid file mode = %o, want 644", mode)
	}
}

func TestAcquirePIDFileRefusesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discjockey.pid")

	first, err := AcquirePIDFile(path)
	if err != nil {
		t.Fatalf("AcquirePIDFile: %v", err)
	}
	defer first.Release()

	_, err = AcquirePIDFile(path)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestAcquirePIDFileEmptyPath(t *testing.T) {
	pf, err := AcquirePIDFile("")
	if err != nil || pf != nil {
		t.Fatalf("expected nil pid file for empty path, got %v, %v", pf, err)
	}
	if err := pf.Release(); err != nil {
		t.Fatalf("Release on nil: %v", err)
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pid")
	if err := os.WriteFile(good, []byte(" 4321\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPID(good)
	if err != nil || pid != 4321 {
		t.Fatalf("ReadPID = %d, %v", pid, err)
	}

	bad := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPID(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWritePID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helper.pid")
	if err := WritePID(path); err != nil {
		t.Fatalf("WritePID: %v", err)
	}
	pid, err := ReadPID(path)
	if err != nil || pid != os.Getpid() {
		t.Fatalf("ReadPID = %d, %v", pid, err)
	}
}
