package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Calendar-One/face-attendance-ui/internal/config"
	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

// testCameraConfig creates a minimal camera config for testing
func testCameraConfig() *config.CameraConfig {
	return &config.CameraConfig{
		FacingModes: map[string]string{
			"front": "/dev/video0",
			"back":  "/dev/video2",
		},
		Width:  640,
		Height: 480,
		FPS:    15,
	}
}

// encodeTestJPEG produces a small valid JPEG frame
func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

// fakeSource is an in-memory frame source for camera.Manager tests
type fakeSource struct {
	device string

	mu      sync.Mutex
	frame   []byte
	started bool
}

func (f *fakeSource) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
}

func (f *fakeSource) Latest() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frame == nil {
		return nil, false
	}
	return f.frame, true
}

func (f *fakeSource) WaitReady(ctx context.Context) error { return nil }

func (f *fakeSource) Device() string { return f.device }

// fakeFlowCamera implements the capture side of the attendance flows
type fakeFlowCamera struct {
	mu         sync.Mutex
	frame      []byte
	startErr   error
	captureErr error
	active     bool
}

func (f *fakeFlowCamera) Start(ctx context.Context, facingMode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.active = true
	return nil
}

func (f *fakeFlowCamera) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = false
}

func (f *fakeFlowCamera) WaitReady(ctx context.Context) error { return nil }

func (f *fakeFlowCamera) Capture() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return f.frame, nil
}

// fakeBackend implements the register and verify sides of the backend client
type fakeBackend struct {
	mu          sync.Mutex
	verifyRes   *faceapi.VerificationResult
	verifyErr   error
	registerErr error
}

func (f *fakeBackend) Verify(ctx context.Context, image []byte) (*faceapi.VerificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyRes, nil
}

func (f *fakeBackend) Register(ctx context.Context, subjectID string, image []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registerErr
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
