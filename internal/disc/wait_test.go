package disc

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

type scriptedProber struct {
	statuses []DriveStatus
	errs     []error
	calls    int
}

func (p *scriptedProber) DriveStatus(string) (DriveStatus, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return DriveStatusNoInfo, p.errs[i]
	}
	if i >= len(p.statuses) {
		return p.statuses[len(p.statuses)-1], nil
	}
	return p.statuses[i], nil
}

func (p *scriptedProber) MediaType(string) (MediaType, error) {
	return MediaData, nil
}

func TestWaitForMediaReturnsOnDiscOK(t *testing.T) {
	prober := &scriptedProber{statuses: []DriveStatus{DriveStatusNoDisc, DriveStatusNotReady, DriveStatusDiscOK}}

	status, err := WaitForMedia(context.Background(), prober, "/dev/sr0", time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForMedia: %v", err)
	}
	if status != DriveStatusDiscOK {
		t.Fatalf("unexpected status %s", status)
	}
	if prober.calls != 3 {
		t.Fatalf("expected 3 polls, got %d", prober.calls)
	}
}

func TestWaitForMediaKeepsPollingThroughIoctlErrors(t *testing.T) {
	prober := &scriptedProber{
		statuses: []DriveStatus{DriveStatusNoInfo, DriveStatusDiscOK},
		errs:     []error{errors.New("ioctl failed")},
	}

	status, err := WaitForMedia(context.Background(), prober, "/dev/sr0", time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForMedia: %v", err)
	}
	if status != DriveStatusDiscOK {
		t.Fatalf("unexpected status %s", status)
	}
}

func TestWaitForMediaAbortsOnOpenError(t *testing.T) {
	openErr := &OpenError{Device: "/dev/sr9", Err: os.ErrNotExist}
	prober := &scriptedProber{statuses: []DriveStatus{DriveStatusNoInfo}, errs: []error{openErr}}

	_, err := WaitForMedia(context.Background(), prober, "/dev/sr9", time.Millisecond)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestWaitForMediaCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := &scriptedProber{statuses: []DriveStatus{DriveStatusNoDisc}}
	status, err := WaitForMedia(ctx, prober, "/dev/sr0", time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if status != DriveStatusNoDisc {
		t.Fatalf("expected last observed status, got %s", status)
	}
}
