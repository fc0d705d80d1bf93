package disc

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Linux ioctl numbers and selectors from <linux/cdrom.h>.
const (
	ioctlCDROMDriveStatus = 0x5326
	ioctlCDROMDiscStatus  = 0x5327
	cdslCurrent           = 0x7fffffff
)

// Disc status codes reported by CDROM_DISC_STATUS.
const (
	discStatusAudio = 100
	discStatusData1 = 101
	discStatusData2 = 102
	discStatusMixed = 105
)

// DriveStatus represents the result of a CDROM_DRIVE_STATUS ioctl call.
type DriveStatus int

const (
	DriveStatusNoInfo   DriveStatus = 0
	DriveStatusNoDisc   DriveStatus = 1
	DriveStatusTrayOpen DriveStatus = 2
	DriveStatusNotReady DriveStatus = 3
	DriveStatusDiscOK   DriveStatus = 4
)

// String returns a human-readable label for the drive status.
func (s DriveStatus) String() string {
	switch s {
	case DriveStatusNoInfo:
		return "no_info"
	case DriveStatusNoDisc:
		return "no_disc"
	case DriveStatusTrayOpen:
		return "tray_open"
	case DriveStatusNotReady:
		return "not_ready"
	case DriveStatusDiscOK:
		return "disc_ok"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MediaPresent reports whether the drive holds readable media. A drive that
// is still spinning up reports not_ready, which counts as absent.
func (s DriveStatus) MediaPresent() bool {
	return s == DriveStatusDiscOK
}

// MediaType is the coarse classification passed to handlers.
type MediaType string

const (
	MediaAudio   MediaType = "audio"
	MediaData    MediaType = "data"
	MediaMixed   MediaType = "mixed"
	MediaUnknown MediaType = "unknown"
)

func mediaTypeFromDiscStatus(code int) MediaType {
	switch code {
	case discStatusAudio:
		return MediaAudio
	case discStatusData1, discStatusData2:
		return MediaData
	case discStatusMixed:
		return MediaMixed
	default:
		return MediaUnknown
	}
}

// ErrEmptyDevice is returned when a probe is asked about an empty path.
var ErrEmptyDevice = errors.New("empty device path")

// OpenError reports that a device node could not be opened. It is distinct
// from an ioctl failure on an open device: a drive that cannot be opened at all
// usually means the configured path is wrong.
type OpenError struct {
	Device string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Prober queries drives for media presence and type.
type Prober interface {
	DriveStatus(device string) (DriveStatus, error)
	MediaType(device string) (MediaType, error)
}

type ioctlProber struct{}

// NewProber returns a Prober backed by the Linux CDROM ioctls.
func NewProber() Prober {
	return ioctlProber{}
}

func (ioctlProber) DriveStatus(device string) (DriveStatus, error) {
	return CheckDriveStatus(device)
}

func (ioctlProber) MediaType(device string) (MediaType, error) {
	return CheckMediaType(device)
}

// CheckDriveStatus queries the drive state using the CDROM_DRIVE_STATUS ioctl.
// Open failures are returned as *OpenError.
func CheckDriveStatus(devicePath string) (DriveStatus, error) {
	code, err := cdromIoctl(devicePath, ioctlCDROMDriveStatus, "CDROM_DRIVE_STATUS")
	if err != nil {
		return DriveStatusNoInfo, err
	}
	return DriveStatus(code), nil
}

// CheckMediaType classifies the loaded media using the CDROM_DISC_STATUS ioctl.
// Any status other than audio, data, or mixed maps to MediaUnknown.
func CheckMediaType(devicePath string) (MediaType, error) {
	code, err := cdromIoctl(devicePath, ioctlCDROMDiscStatus, "CDROM_DISC_STATUS")
	if err != nil {
		return MediaUnknown, err
	}
	return mediaTypeFromDiscStatus(code), nil
}

func cdromIoctl(devicePath string, request uintptr, name string) (int, error) {
	devicePath = strings.TrimSpace(devicePath)
	if devicePath == "" {
		return 0, ErrEmptyDevice
	}

	fd, err := unix.Open(devicePath, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, &OpenError{Device: devicePath, Err: err}
	}
	defer unix.Close(fd) //nolint:errcheck

	r1, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), request, uintptr(cdslCurrent))
	if errno != 0 {
		return 0, fmt.Errorf("ioctl %s on %s: %w", name, devicePath, errno)
	}
	return int(r1), nil
}
