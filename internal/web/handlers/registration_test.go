package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

func newTestRegistrationHandler(cam *fakeFlowCamera, backend *fakeBackend) (*RegistrationHandler, *attendance.Registration) {
	registration := attendance.NewRegistration(cam, backend, backend, attendance.NewNotifier())
	return NewRegistrationHandler(registration), registration
}

func TestRegistrationCapture_ReturnsImage(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, registration := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})

	recorder := httptest.NewRecorder()
	handler.Capture(recorder, httptest.NewRequest("POST", "/registration/capture", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Skipped bool         `json:"skipped"`
		Image   pendingImage `json:"image"`
		Pending int          `json:"pending"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Skipped {
		t.Error("expected capture not to be skipped")
	}
	if result.Image.ID == "" {
		t.Error("expected a non-empty image id")
	}
	if result.Pending != 1 {
		t.Errorf("expected 1 pending image, got %d", result.Pending)
	}
	if registration.PendingCount() != 1 {
		t.Errorf("expected 1 pending image in the flow, got %d", registration.PendingCount())
	}
}

func TestRegistrationCapture_SkippedWithoutFrame(t *testing.T) {
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{}, &fakeBackend{})

	recorder := httptest.NewRecorder()
	handler.Capture(recorder, httptest.NewRequest("POST", "/registration/capture", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["skipped"] != true {
		t.Errorf("expected skipped true, got %v", result["skipped"])
	}
}

func TestRegistrationCapture_EnforcesLimit(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})

	for i := 0; i < attendance.MaxPendingImages; i++ {
		recorder := httptest.NewRecorder()
		handler.Capture(recorder, httptest.NewRequest("POST", "/registration/capture", nil))
		assertStatusCode(t, recorder, http.StatusOK)
	}

	recorder := httptest.NewRecorder()
	handler.Capture(recorder, httptest.NewRequest("POST", "/registration/capture", nil))
	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestRegistrationList_ReportsLimit(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})

	handler.Capture(httptest.NewRecorder(), httptest.NewRequest("POST", "/registration/capture", nil))
	handler.Capture(httptest.NewRecorder(), httptest.NewRequest("POST", "/registration/capture", nil))

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/registration/images", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Images []pendingImage `json:"images"`
		Limit  int            `json:"limit"`
	}
	parseJSONResponse(t, recorder, &result)
	if len(result.Images) != 2 {
		t.Errorf("expected 2 images, got %d", len(result.Images))
	}
	if result.Limit != attendance.MaxPendingImages {
		t.Errorf("expected limit %d, got %d", attendance.MaxPendingImages, result.Limit)
	}
	for _, img := range result.Images {
		if img.PreviewURL == "" {
			t.Errorf("expected a preview URL for image %s", img.ID)
		}
	}
}

func TestRegistrationRemove_UnknownID(t *testing.T) {
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{}, &fakeBackend{})

	req := httptest.NewRequest("DELETE", "/registration/images/nope", nil)
	req = requestWithChiParams(req, map[string]string{"id": "nope"})
	recorder := httptest.NewRecorder()
	handler.Remove(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestRegistrationRemove_DeletesImage(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, registration := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})

	img, err := registration.Capture()
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/registration/images/"+img.ID, nil)
	req = requestWithChiParams(req, map[string]string{"id": img.ID})
	recorder := httptest.NewRecorder()
	handler.Remove(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if registration.PendingCount() != 0 {
		t.Errorf("expected 0 pending images, got %d", registration.PendingCount())
	}
}

func TestRegistrationPreview_ServesJPEG(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, registration := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})

	img, err := registration.Capture()
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/registration/images/"+img.ID+"/preview", nil)
	req = requestWithChiParams(req, map[string]string{"id": img.ID})
	recorder := httptest.NewRecorder()
	handler.Preview(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if ct := recorder.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected Content-Type 'image/jpeg', got '%s'", ct)
	}
	if recorder.Body.Len() == 0 {
		t.Error("expected a non-empty preview body")
	}
}

func TestRegistrationPreview_UnknownID(t *testing.T) {
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{}, &fakeBackend{})

	req := httptest.NewRequest("GET", "/registration/images/nope/preview", nil)
	req = requestWithChiParams(req, map[string]string{"id": "nope"})
	recorder := httptest.NewRecorder()
	handler.Preview(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestRegistrationRegister_RequiresSubject(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, registration := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})
	registration.Capture()

	req := jsonRequest(t, "POST", "/registration/register", map[string]string{"subject_id": "  "})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestRegistrationRegister_RequiresImages(t *testing.T) {
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{}, &fakeBackend{})

	req := jsonRequest(t, "POST", "/registration/register", map[string]string{"subject_id": "alice"})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestRegistrationRegister_BackendFailure(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	backend := &fakeBackend{
		registerErr: &faceapi.TransportError{Status: http.StatusInternalServerError, Body: "boom"},
	}
	handler, registration := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, backend)
	registration.Capture()
	registration.Capture()

	req := jsonRequest(t, "POST", "/registration/register", map[string]string{"subject_id": "alice"})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadGateway)

	// The pending set survives a failed registration so the user can retry.
	if registration.PendingCount() != 2 {
		t.Errorf("expected 2 pending images after failure, got %d", registration.PendingCount())
	}
}

func TestRegistrationRegister_Success(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, registration := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})
	registration.Capture()
	registration.Capture()
	registration.Capture()

	req := jsonRequest(t, "POST", "/registration/register", map[string]string{"subject_id": "alice"})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["subject_id"] != "alice" {
		t.Errorf("expected subject_id 'alice', got '%s'", result["subject_id"])
	}
	if registration.PendingCount() != 0 {
		t.Errorf("expected pending set cleared, got %d images", registration.PendingCount())
	}
}

func TestRegistrationReset_ClearsPending(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	handler, registration := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, &fakeBackend{})
	registration.Capture()

	recorder := httptest.NewRecorder()
	handler.Reset(recorder, httptest.NewRequest("POST", "/registration/reset", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if registration.PendingCount() != 0 {
		t.Errorf("expected 0 pending images after reset, got %d", registration.PendingCount())
	}
}

func TestRegistrationVerifyOnce_NoFrame(t *testing.T) {
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{}, &fakeBackend{})

	recorder := httptest.NewRecorder()
	handler.VerifyOnce(recorder, httptest.NewRequest("POST", "/registration/verify-once", nil))

	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestRegistrationVerifyOnce_BackendFailure(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	backend := &fakeBackend{
		verifyErr: &faceapi.TransportError{Status: http.StatusInternalServerError, Body: "boom"},
	}
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, backend)

	recorder := httptest.NewRecorder()
	handler.VerifyOnce(recorder, httptest.NewRequest("POST", "/registration/verify-once", nil))

	assertStatusCode(t, recorder, http.StatusBadGateway)
}

func TestRegistrationVerifyOnce_Verified(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	backend := &fakeBackend{
		verifyRes: &faceapi.VerificationResult{Verified: true, SubjectID: "alice", Confidence: 0.974},
	}
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, backend)

	recorder := httptest.NewRecorder()
	handler.VerifyOnce(recorder, httptest.NewRequest("POST", "/registration/verify-once", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["verified"] != true {
		t.Errorf("expected verified true, got %v", result["verified"])
	}
	if result["subject_id"] != "alice" {
		t.Errorf("expected subject_id 'alice', got %v", result["subject_id"])
	}
	if result["confidence"] != "97.4" {
		t.Errorf("expected confidence '97.4', got %v", result["confidence"])
	}
}

func TestRegistrationVerifyOnce_NotVerified(t *testing.T) {
	frame := encodeTestJPEG(t, 64, 48)
	backend := &fakeBackend{
		verifyRes: &faceapi.VerificationResult{Verified: false, Message: "face not recognized"},
	}
	handler, _ := newTestRegistrationHandler(&fakeFlowCamera{frame: frame}, backend)

	recorder := httptest.NewRecorder()
	handler.VerifyOnce(recorder, httptest.NewRequest("POST", "/registration/verify-once", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["verified"] != false {
		t.Errorf("expected verified false, got %v", result["verified"])
	}
	if _, ok := result["confidence"]; ok {
		t.Error("expected no confidence field for an unverified result")
	}
	if !bytes.Contains(recorder.Body.Bytes(), []byte("face not recognized")) {
		t.Errorf("expected the backend message in the response, got %s", recorder.Body.String())
	}
}
