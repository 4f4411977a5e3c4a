package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

// DefaultPollInterval is the fixed period between capture/verify cycles.
const DefaultPollInterval = 2 * time.Second

// State of the verification poller.
type State string

// Poller states.
const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
)

// ErrPollerRunning indicates Start was called while the loop is already
// capturing.
var ErrPollerRunning = errors.New("verification loop already running")

// Camera is the slice of the camera session manager the flows depend on.
type Camera interface {
	Start(ctx context.Context, facingMode string) error
	Stop()
	WaitReady(ctx context.Context) error
	Capture() ([]byte, error)
}

// Verifier submits a still to the verification endpoint.
type Verifier interface {
	Verify(ctx context.Context, image []byte) (*faceapi.VerificationResult, error)
}

// Poller drives the fixed-interval capture/verify loop. It has two states:
// Idle and Capturing. A successful verification, an explicit Stop, or any
// camera/transport error returns it to Idle; recovery from errors always
// requires the user to start it again.
type Poller struct {
	camera   Camera
	verifier Verifier
	log      *Log
	notifier *Notifier
	interval time.Duration

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates an idle poller.
func NewPoller(cam Camera, verifier Verifier, log *Log, notifier *Notifier) *Poller {
	return &Poller{
		camera:   cam,
		verifier: verifier,
		log:      log,
		notifier: notifier,
		interval: DefaultPollInterval,
		state:    StateIdle,
	}
}

// State returns the current loop state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start transitions Idle -> Capturing: it starts the camera for the given
// facing mode, waits until the stream has produced its first frame, then
// arms the repeating capture/verify timer.
func (p *Poller) Start(ctx context.Context, facingMode string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateCapturing {
		return ErrPollerRunning
	}

	if err := p.camera.Start(ctx, facingMode); err != nil {
		p.notifier.Publish(Notice{Type: NoticeError, Message: err.Error()})
		return err
	}

	if err := p.camera.WaitReady(ctx); err != nil {
		p.camera.Stop()
		p.notifier.Publish(Notice{Type: NoticeError, Message: fmt.Sprintf("camera did not become ready: %v", err)})
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = StateCapturing

	p.wg.Add(1)
	go p.run(runCtx)

	return nil
}

// Stop is the explicit user command: Capturing -> Idle regardless of
// verification outcome. Idempotent. In-flight verify requests are cancelled
// through the loop context.
func (p *Poller) Stop() {
	if p.teardown() {
		p.wg.Wait()
	}
}

// teardown transitions to Idle, cancels the loop, and releases the camera.
// Returns false if the poller was already idle.
func (p *Poller) teardown() bool {
	p.mu.Lock()
	if p.state == StateIdle {
		p.mu.Unlock()
		return false
	}
	p.state = StateIdle
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.camera.Stop()
	return true
}

// run executes ticks until the loop is cancelled or a tick ends it. Each
// tick's capture/verify sequence completes before the next tick is taken,
// so verification requests never overlap.
func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tick(ctx) {
				p.teardown()
				return
			}
		}
	}
}

// tick runs one capture/verify cycle. It returns true when the loop should
// end: on a verified match or on any error.
func (p *Poller) tick(ctx context.Context) bool {
	frame, err := p.camera.Capture()
	if err != nil {
		p.notifier.Publish(Notice{Type: NoticeError, Message: fmt.Sprintf("capture failed: %v", err)})
		return true
	}
	if frame == nil {
		// No frame available; skip this cycle silently.
		return false
	}

	result, err := p.verifier.Verify(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			// The loop was stopped while the request was in flight.
			return true
		}
		p.notifier.Publish(Notice{Type: NoticeError, Message: err.Error()})
		return true
	}

	if result.Verified {
		rec := p.log.Add(result.SubjectID, result.Confidence)
		p.notifier.Publish(Notice{
			Type:       NoticeVerified,
			Message:    fmt.Sprintf("attendance recorded for %s", rec.SubjectID),
			SubjectID:  rec.SubjectID,
			Confidence: rec.ConfidencePercent(),
		})
		return true
	}

	message := result.Message
	if message == "" {
		message = "face not verified"
	}
	p.notifier.Publish(Notice{Type: NoticeUnverified, Message: message})
	return false
}
