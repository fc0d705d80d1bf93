package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"discjockey/internal/disc"
)

type sequenceProber struct {
	statuses []disc.DriveStatus
	media    disc.MediaType
	openErr  error
	calls    int
	onCall   func(n int)
}

func (p *sequenceProber) DriveStatus(string) (disc.DriveStatus, error) {
	p.calls++
	if p.onCall != nil {
		p.onCall(p.calls)
	}
	if p.openErr != nil {
		return disc.DriveStatusNoInfo, p.openErr
	}
	if len(p.statuses) == 0 {
		return disc.DriveStatusNoDisc, nil
	}
	s := p.statuses[0]
	if len(p.statuses) > 1 {
		p.statuses = p.statuses[1:]
	}
	return s, nil
}

func (p *sequenceProber) MediaType(string) (disc.MediaType, error) {
	return p.media, nil
}

func execute(ctx context.Context, prober disc.Prober, args ...string) (string, error) {
	cmd := newRootCommand(prober, time.Millisecond)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestDiscwaitPrintsTypeOnceLoaded(t *testing.T) {
	prober := &sequenceProber{
		statuses: []disc.DriveStatus{disc.DriveStatusNoDisc, disc.DriveStatusTrayOpen, disc.DriveStatusNotReady, disc.DriveStatusDiscOK},
		media:    disc.MediaData,
	}
	out, err := execute(context.Background(), prober, "-d", "1", "/dev/sr0")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out) != "data" {
		t.Fatalf("output %q, want data", out)
	}
	if prober.calls < 4 {
		t.Fatalf("expected polling until disc_ok, got %d probes", prober.calls)
	}
}

func TestDiscwaitQuietWritesPIDFile(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "discwait.pid")
	var seen string
	prober := &sequenceProber{
		statuses: []disc.DriveStatus{disc.DriveStatusNoDisc, disc.DriveStatusDiscOK},
		media:    disc.MediaAudio,
		onCall: func(n int) {
			if n == 2 {
				data, _ := os.ReadFile(pidPath)
				seen = string(data)
			}
		},
	}
	out, err := execute(context.Background(), prober, "-q", "-d", "1", "-p", pidPath, "/dev/sr0")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "" {
		t.Fatalf("quiet mode printed %q", out)
	}
	if seen != strconv.Itoa(os.Getpid())+"\n" {
		t.Fatalf("pid file contents %q", seen)
	}
	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pid file should be removed, stat err %v", err)
	}
}

func TestDiscwaitTerminatedRemovesPIDFile(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "discwait.pid")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	prober := &sequenceProber{onCall: func(n int) {
		if n == 3 {
			cancel()
		}
	}}

	_, err := execute(ctx, prober, "-p", pidPath, "-d", "1", "/dev/sr0")
	if !errors.Is(err, errTerminated) {
		t.Fatalf("expected errTerminated, got %v", err)
	}
	var buf bytes.Buffer
	if code := reportError(&buf, err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pid file should be removed, stat err %v", err)
	}
}

func TestDiscwaitOpenFailureSkipsPIDFile(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "discwait.pid")
	prober := &sequenceProber{openErr: &disc.OpenError{Device: "/dev/sr7", Err: syscall.ENOENT}}

	_, err := execute(context.Background(), prober, "-p", pidPath, "/dev/sr7")
	var openErr *disc.OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected OpenError, got %v", err)
	}
	if _, statErr := os.Stat(pidPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("pid file must not be written when the device cannot be opened")
	}
	var buf bytes.Buffer
	if code := reportError(&buf, err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestDiscwaitUsageErrors(t *testing.T) {
	tests := [][]string{
		{},
		{"/dev/sr0", "/dev/sr1"},
		{"-d", "0", "/dev/sr0"},
		{"-x", "/dev/sr0"},
	}
	for _, args := range tests {
		_, err := execute(context.Background(), &sequenceProber{}, args...)
		if !errors.Is(err, errUsage) {
			t.Fatalf("args %v: expected usage error, got %v", args, err)
		}
	}
}
