// Package vsync throttles repaints to the display's vertical blank
// using the DRM vblank ioctl, with a no-op provider when no VSync
// backend is available or configured.
package vsync

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Provider waits for (or simulates) the next vertical blank.
type Provider interface {
	Wait() error
	Close() error
}

// noop never blocks; used when VSync is disabled in configuration or
// when the DRM device could not be opened.
type noop struct{}

func (noop) Wait() error  { return nil }
func (noop) Close() error { return nil }

// Noop returns a Provider that never waits, matching the original's
// behaviour of silently falling back to an unthrottled paint loop.
func Noop() Provider { return noop{} }

const drmDevice = "/dev/dri/card0"

// drmIoctlWaitVblank is DRM_IOWR(0x3a, drm_wait_vblank_t) from
// libdrm's xf86drm.h: direction READ|WRITE (3), type 'd' (0x64),
// number 0x3a, size 16 (the union of drm_wait_vblank_request and
// drm_wait_vblank_reply, each two uint32s plus one 8-byte field).
const drmIoctlWaitVblank = 0xc010643a

const drmVblankRelative = 0x1

// drmWaitVblank mirrors drm_wait_vblank_t's request variant: type,
// sequence, and an 8-byte field (signal on request, reply's
// tval_sec/tval_usec pair, same size either way).
type drmWaitVblank struct {
	vblType  uint32
	sequence uint32
	_        [8]byte
}

// DRM waits for vblank via the wait-vblank ioctl on an open DRM
// device, retrying on EINTR exactly like the original's do/while loop.
type DRM struct {
	fd int
}

// OpenDRM opens the first DRM card device for vblank waiting. A
// failure to open the device is not fatal to the caller: the engine
// falls back to Noop() and logs a warning, matching the original's
// "disabling VSync with DRM" behaviour.
func OpenDRM() (*DRM, error) {
	fd, err := unix.Open(drmDevice, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("vsync: opening %s: %w", drmDevice, err)
	}
	return &DRM{fd: fd}, nil
}

// Wait blocks until the next vertical blank. Each call starts a fresh
// relative request; when the ioctl is interrupted (EINTR) it is retried
// with the "relative" flag cleared, as the original does.
func (d *DRM) Wait() error {
	vbl := drmWaitVblank{vblType: drmVblankRelative, sequence: 1}
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), drmIoctlWaitVblank, uintptr(unsafe.Pointer(&vbl)))
		if errno == 0 {
			return nil
		}
		if errno != unix.EINTR {
			return fmt.Errorf("vsync: wait-vblank ioctl: %w", errno)
		}
		vbl.vblType &^= drmVblankRelative
	}
}

// Close closes the DRM device file descriptor.
func (d *DRM) Close() error {
	return unix.Close(d.fd)
}
