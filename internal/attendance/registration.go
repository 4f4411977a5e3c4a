package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Calendar-One/face-attendance-ui/internal/camera"
	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

// MaxPendingImages caps how many captured stills may await registration.
const MaxPendingImages = 10

// thumbnailMaxDim bounds the preview thumbnail's longest side in pixels.
const thumbnailMaxDim = 320

// Registration flow errors callers branch on.
var (
	ErrPendingFull     = errors.New("capture limit reached")
	ErrSubjectRequired = errors.New("subject identifier is required")
	ErrNoPendingImages = errors.New("at least one captured image is required")
	ErrNoFrame         = errors.New("no frame available")
)

// Registrar submits one reference still to the registration endpoint.
type Registrar interface {
	Register(ctx context.Context, subjectID string, image []byte) error
}

// CapturedImage is one still awaiting registration. Its preview resource is
// released exactly once: when the image is removed or the pending set is
// cleared.
type CapturedImage struct {
	ID        string
	CreatedAt time.Time

	jpeg     []byte
	thumb    []byte
	released bool
}

// release frees the image buffers. Safe to call more than once; only the
// first call does anything.
func (img *CapturedImage) release() {
	if img.released {
		return
	}
	img.released = true
	img.jpeg = nil
	img.thumb = nil
}

// Released reports whether the image's buffers have been freed.
func (img *CapturedImage) Released() bool { return img.released }

// Registration accumulates a bounded set of captured stills for one subject
// and submits them to the registration endpoint in a concurrent fan-out.
// The whole operation fails if any single submission fails.
type Registration struct {
	camera    Camera
	registrar Registrar
	verifier  Verifier
	notifier  *Notifier
	thumbnail func(jpegData []byte, maxDim int) ([]byte, error)

	mu         sync.Mutex
	pending    []*CapturedImage
	lastResult *faceapi.VerificationResult
}

// NewRegistration creates an empty registration flow.
func NewRegistration(cam Camera, registrar Registrar, verifier Verifier, notifier *Notifier) *Registration {
	return &Registration{
		camera:    cam,
		registrar: registrar,
		verifier:  verifier,
		notifier:  notifier,
		thumbnail: camera.Thumbnail,
	}
}

// Capture snapshots one still from the live camera and appends it to the
// pending set. Beyond the cap it publishes a capacity notice and leaves the
// set unchanged. A nil image with nil error means the capture was skipped
// because no frame was available.
func (r *Registration) Capture() (*CapturedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) >= MaxPendingImages {
		r.notifier.Publish(Notice{
			Type:    NoticeCapacity,
			Message: fmt.Sprintf("maximum of %d images reached", MaxPendingImages),
		})
		return nil, ErrPendingFull
	}

	frame, err := r.camera.Capture()
	if err != nil {
		r.notifier.Publish(Notice{Type: NoticeError, Message: fmt.Sprintf("capture failed: %v", err)})
		return nil, err
	}
	if frame == nil {
		return nil, nil
	}

	thumb, err := r.thumbnail(frame, thumbnailMaxDim)
	if err != nil {
		// Preview degrades to the full-size still.
		thumb = frame
	}

	img := &CapturedImage{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		jpeg:      frame,
		thumb:     thumb,
	}
	r.pending = append(r.pending, img)
	return img, nil
}

// Remove deletes one pending image by id and releases its preview.
// Removing an unknown id leaves the set unchanged.
func (r *Registration) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, img := range r.pending {
		if img.ID == id {
			img.release()
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Images returns the pending images in capture order.
func (r *Registration) Images() []*CapturedImage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*CapturedImage, len(r.pending))
	copy(out, r.pending)
	return out
}

// Preview returns the thumbnail bytes for a pending image.
func (r *Registration) Preview(id string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.pending {
		if img.ID == id {
			return img.thumb, true
		}
	}
	return nil, false
}

// PendingCount returns the number of pending images.
func (r *Registration) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Register submits every pending image for the subject, all concurrently.
// Success requires every individual submission to succeed; any failure
// reports the whole operation as failed. On success the pending set is
// cleared and its previews released.
func (r *Registration) Register(ctx context.Context, subjectID string) error {
	if strings.TrimSpace(subjectID) == "" {
		return ErrSubjectRequired
	}

	// Snapshot the image data under the lock so a concurrent Remove cannot
	// release a buffer mid-flight.
	r.mu.Lock()
	stills := make([][]byte, 0, len(r.pending))
	for _, img := range r.pending {
		stills = append(stills, img.jpeg)
	}
	r.mu.Unlock()

	if len(stills) == 0 {
		return ErrNoPendingImages
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, data := range stills {
		data := data
		g.Go(func() error {
			return r.registrar.Register(ctx, subjectID, data)
		})
	}

	if err := g.Wait(); err != nil {
		r.notifier.Publish(Notice{Type: NoticeError, Message: fmt.Sprintf("registration failed: %v", err)})
		return fmt.Errorf("could not register subject %s: %w", subjectID, err)
	}

	r.clearPending()
	r.notifier.Publish(Notice{
		Type:      NoticeInfo,
		Message:   fmt.Sprintf("registered %d image(s) for %s", len(stills), subjectID),
		SubjectID: subjectID,
	})
	return nil
}

// Reset clears the pending set (releasing every preview) and any prior
// single-shot verification result.
func (r *Registration) Reset() {
	r.clearPending()
	r.mu.Lock()
	r.lastResult = nil
	r.mu.Unlock()
}

func (r *Registration) clearPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.pending {
		img.release()
	}
	r.pending = nil
}

// VerifyOnce captures one still and submits it to the verification endpoint,
// returning the single-shot result without engaging the polling loop.
func (r *Registration) VerifyOnce(ctx context.Context) (*faceapi.VerificationResult, error) {
	frame, err := r.camera.Capture()
	if err != nil {
		r.notifier.Publish(Notice{Type: NoticeError, Message: fmt.Sprintf("capture failed: %v", err)})
		return nil, err
	}
	if frame == nil {
		return nil, ErrNoFrame
	}

	result, err := r.verifier.Verify(ctx, frame)
	if err != nil {
		r.notifier.Publish(Notice{Type: NoticeError, Message: err.Error()})
		return nil, err
	}

	r.mu.Lock()
	r.lastResult = result
	r.mu.Unlock()
	return result, nil
}

// LastResult returns the most recent single-shot verification result, or nil.
func (r *Registration) LastResult() *faceapi.VerificationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastResult
}
