// Package camera manages the webcam capture session for the attendance kiosk.
// At most one capture session is active at a time; switching facing modes is
// modeled as stop-then-start so device handles are never layered or leaked.
package camera

import (
	"context"
	"errors"
	"fmt"
)

// CaptureQuality is the JPEG quality factor applied to every captured still.
const CaptureQuality = 80

// Sentinel errors callers can branch on.
var (
	// ErrUnknownFacingMode indicates the requested facing mode has no
	// configured device path.
	ErrUnknownFacingMode = errors.New("unknown facing mode")

	// ErrNoSession indicates an operation that requires an active capture
	// session was called without one.
	ErrNoSession = errors.New("no active camera session")
)

// DeviceAccessError indicates the camera device could not be opened or is
// unavailable. It is user-visible and recoverable: the user retries the
// start action once the device is back.
type DeviceAccessError struct {
	Device string
	Err    error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("camera device %s unavailable: %v", e.Device, e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// IsDeviceAccess returns true if the error chain contains a DeviceAccessError.
func IsDeviceAccess(err error) bool {
	var dae *DeviceAccessError
	return errors.As(err, &dae)
}

// Settings describes the capture parameters for a frame source.
type Settings struct {
	Width  int
	Height int
	FPS    int
}

// FrameSource produces JPEG frames from a capture device. A source is
// single-use: Start it once, Stop it once. The Manager creates a fresh
// source for every session.
type FrameSource interface {
	// Start begins streaming frames. It fails if the device cannot be opened.
	Start(ctx context.Context) error

	// Stop halts streaming and releases the device. Idempotent.
	Stop()

	// Latest returns the most recent complete frame, or false if no frame
	// has arrived yet.
	Latest() ([]byte, bool)

	// WaitReady blocks until the first frame is available or the context is done.
	WaitReady(ctx context.Context) error

	// Device returns the device path this source reads from.
	Device() string
}

// SourceFactory creates a FrameSource for a device. Tests inject fakes here.
type SourceFactory func(device string, settings Settings) FrameSource
