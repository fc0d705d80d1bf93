package disc

import (
	"context"
	"errors"
	"time"
)

// WaitForMedia polls the drive every interval until it reports media present
// or ctx is cancelled. A device that cannot be opened aborts the wait; ioctl
// failures on an open device are treated as "not yet" and polling continues.
func WaitForMedia(ctx context.Context, prober Prober, devicePath string, interval time.Duration) (DriveStatus, error) {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastStatus := DriveStatusNoInfo
	for {
		status, err := prober.DriveStatus(devicePath)
		if err != nil {
			var openErr *OpenError
			if errors.As(err, &openErr) || errors.Is(err, ErrEmptyDevice) {
				return lastStatus, err
			}
		} else {
			lastStatus = status
			if status.MediaPresent() {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return lastStatus, ctx.Err()
		case <-ticker.C:
		}
	}
}
