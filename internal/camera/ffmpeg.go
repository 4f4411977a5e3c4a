package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// probeTimeout bounds the single-frame test capture used to validate a
// device before streaming starts.
const probeTimeout = 10 * time.Second

// FFmpegSource reads an MJPEG stream from a V4L2 device by shelling out to
// ffmpeg and splitting the pipe output on JPEG frame markers.
type FFmpegSource struct {
	device   string
	settings Settings

	mu     sync.RWMutex
	latest []byte

	ready     chan struct{}
	readyOnce sync.Once

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFFmpegSource creates a frame source for the given V4L2 device.
func NewFFmpegSource(device string, settings Settings) FrameSource {
	return &FFmpegSource{
		device:   device,
		settings: settings,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Device returns the device path this source reads from.
func (s *FFmpegSource) Device() string { return s.device }

// Start validates the device with a single-frame probe, then launches the
// streaming ffmpeg process and the frame scanner goroutine. The caller's
// context bounds startup only; the stream itself runs until Stop.
func (s *FFmpegSource) Start(ctx context.Context) error {
	if err := s.probe(ctx); err != nil {
		return &DeviceAccessError{Device: s.device, Err: err}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	cmd := exec.CommandContext(runCtx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", s.settings.Width, s.settings.Height),
		"-r", strconv.Itoa(s.settings.FPS),
		"-i", s.device,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("could not create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return &DeviceAccessError{Device: s.device, Err: fmt.Errorf("could not start ffmpeg: %w", err)}
	}

	go func() {
		defer close(s.done)
		s.scanFrames(runCtx, stdout)
		// Error is expected here when the context is cancelled on Stop.
		_ = cmd.Wait()
	}()

	return nil
}

// probe captures a single frame to confirm the device is readable.
func (s *FFmpegSource) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", s.settings.Width, s.settings.Height),
		"-i", s.device,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("test capture failed: %w (stderr: %s)", err, stderr.String())
	}
	return nil
}

// scanFrames reads the MJPEG pipe and extracts complete JPEG frames by
// locating SOI (FF D8) and EOI (FF D9) markers.
func (s *FFmpegSource) scanFrames(ctx context.Context, pipe interface{ Read([]byte) (int, error) }) {
	buf := make([]byte, 1024*1024)
	var frameBuffer bytes.Buffer

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := pipe.Read(buf)
		if err != nil {
			return
		}
		frameBuffer.Write(buf[:n])

		for {
			data := frameBuffer.Bytes()
			start := bytes.Index(data, []byte{0xFF, 0xD8})
			if start == -1 {
				frameBuffer.Reset()
				break
			}
			end := bytes.Index(data[start+2:], []byte{0xFF, 0xD9})
			if end == -1 {
				// Incomplete frame, drop any junk before the SOI marker.
				if start > 0 {
					rest := append([]byte(nil), data[start:]...)
					frameBuffer.Reset()
					frameBuffer.Write(rest)
				}
				break
			}

			end += start + 2 + 2
			frame := append([]byte(nil), data[start:end]...)
			s.publish(frame)

			rest := append([]byte(nil), data[end:]...)
			frameBuffer.Reset()
			frameBuffer.Write(rest)
		}
	}
}

// publish stores the frame as the latest and signals readiness once.
func (s *FFmpegSource) publish(frame []byte) {
	s.mu.Lock()
	s.latest = frame
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
}

// Latest returns the most recent complete frame.
func (s *FFmpegSource) Latest() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	frame := make([]byte, len(s.latest))
	copy(frame, s.latest)
	return frame, true
}

// WaitReady blocks until the first frame arrives or the context is done.
func (s *FFmpegSource) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return &DeviceAccessError{Device: s.device, Err: fmt.Errorf("stream ended before first frame")}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the ffmpeg process and waits for the scanner to exit.
func (s *FFmpegSource) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}
