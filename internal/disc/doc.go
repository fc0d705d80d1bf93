// Package disc interfaces with physical optical drives.
//
// It wraps the Linux CDROM_DRIVE_STATUS and CDROM_DISC_STATUS ioctls behind a
// small Prober interface so the supervisor can ask "is media present?" and
// "what kind of media is it?" without touching file descriptors itself.
// Devices are always opened non-blocking so a probe fails fast instead of
// stalling on a drive that is spinning up.
package disc
