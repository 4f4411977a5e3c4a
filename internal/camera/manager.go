package camera

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"

	"github.com/Calendar-One/face-attendance-ui/internal/config"
)

// Manager owns the single active capture session. Starting a session while
// one is active stops the previous one first, so exactly one device stream
// exists at any time.
type Manager struct {
	cfg     *config.CameraConfig
	factory SourceFactory

	mu      sync.Mutex
	session *session
}

type session struct {
	facingMode string
	source     FrameSource
}

// NewManager creates a session manager. A nil factory defaults to the
// ffmpeg-backed frame source.
func NewManager(cfg *config.CameraConfig, factory SourceFactory) *Manager {
	if factory == nil {
		factory = NewFFmpegSource
	}
	return &Manager{cfg: cfg, factory: factory}
}

// Start acquires a capture stream for the given facing mode and makes it the
// active session. Any previously active session is stopped first.
func (m *Manager) Start(ctx context.Context, facingMode string) error {
	device := m.cfg.Device(facingMode)
	if device == "" {
		return &DeviceAccessError{
			Device: facingMode,
			Err:    fmt.Errorf("%w: %q", ErrUnknownFacingMode, facingMode),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.stopLocked()
	}

	src := m.factory(device, Settings{
		Width:  m.cfg.Width,
		Height: m.cfg.Height,
		FPS:    m.cfg.FPS,
	})

	if err := src.Start(ctx); err != nil {
		if IsDeviceAccess(err) {
			return err
		}
		return &DeviceAccessError{Device: device, Err: err}
	}

	m.session = &session{facingMode: facingMode, source: src}
	return nil
}

// Stop halts the active session and releases the device. Calling Stop with
// no active session is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.session == nil {
		return
	}
	s := m.session
	m.session = nil
	s.source.Stop()
}

// Active reports whether a capture session is currently running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// FacingMode returns the facing mode of the active session, or empty string.
func (m *Manager) FacingMode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.facingMode
}

// WaitReady blocks until the active session has produced its first frame.
func (m *Manager) WaitReady(ctx context.Context) error {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()

	if s == nil {
		return ErrNoSession
	}
	return s.source.WaitReady(ctx)
}

// Capture snapshots the current frame and re-encodes it as a JPEG still at
// the fixed capture quality. It returns (nil, nil) when no session is active
// or no frame is available yet: callers treat that as "capture skipped",
// not as a failure.
func (m *Manager) Capture() ([]byte, error) {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()

	if s == nil {
		return nil, nil
	}

	raw, ok := s.source.Latest()
	if !ok {
		return nil, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		// A torn or partial frame; skip this cycle rather than fail.
		return nil, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: CaptureQuality}); err != nil {
		return nil, fmt.Errorf("could not encode captured frame: %w", err)
	}
	return buf.Bytes(), nil
}

// LatestFrame returns the newest raw frame from the active session for the
// live preview stream. Returns false when no session or frame exists.
func (m *Manager) LatestFrame() ([]byte, bool) {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()

	if s == nil {
		return nil, false
	}
	return s.source.Latest()
}
