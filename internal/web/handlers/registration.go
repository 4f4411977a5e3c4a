package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

// RegistrationHandler exposes the registration flow: capturing reference
// stills, managing the pending set, and submitting them to the backend.
type RegistrationHandler struct {
	registration *attendance.Registration
}

// NewRegistrationHandler creates a registration handler.
func NewRegistrationHandler(registration *attendance.Registration) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

type pendingImage struct {
	ID         string `json:"id"`
	CapturedAt string `json:"captured_at"`
	PreviewURL string `json:"preview_url"`
}

func toPendingImage(img *attendance.CapturedImage) pendingImage {
	return pendingImage{
		ID:         img.ID,
		CapturedAt: img.CreatedAt.Format(time.RFC3339),
		PreviewURL: "/api/v1/registration/images/" + img.ID + "/preview",
	}
}

// Capture snapshots one still into the pending set.
func (h *RegistrationHandler) Capture(w http.ResponseWriter, r *http.Request) {
	img, err := h.registration.Capture()
	if err != nil {
		if errors.Is(err, attendance.ErrPendingFull) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if img == nil {
		// No frame was available; the capture was skipped, not failed.
		respondJSON(w, http.StatusOK, map[string]any{"skipped": true})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"skipped": false,
		"image":   toPendingImage(img),
		"pending": h.registration.PendingCount(),
	})
}

// List returns the pending images in capture order.
func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	images := h.registration.Images()
	out := make([]pendingImage, 0, len(images))
	for _, img := range images {
		out = append(out, toPendingImage(img))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"images": out,
		"limit":  attendance.MaxPendingImages,
	})
}

// Remove deletes one pending image and releases its preview.
func (h *RegistrationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.registration.Remove(id) {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pending": h.registration.PendingCount()})
}

// Preview serves the JPEG thumbnail of one pending image.
func (h *RegistrationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	thumb, ok := h.registration.Preview(id)
	if !ok {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(thumb)
}

type registerRequest struct {
	SubjectID string `json:"subject_id"`
}

// Register submits every pending image for the subject. All submissions run
// concurrently; any failure fails the whole operation.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.registration.Register(r.Context(), req.SubjectID); err != nil {
		switch {
		case errors.Is(err, attendance.ErrSubjectRequired),
			errors.Is(err, attendance.ErrNoPendingImages):
			respondError(w, http.StatusBadRequest, err.Error())
		case faceapi.IsTransport(err):
			respondError(w, http.StatusBadGateway, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"subject_id": req.SubjectID,
		"status":     "registered",
	})
}

// Reset clears the pending set and any prior verification result.
func (h *RegistrationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.registration.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// VerifyOnce captures one still and verifies it without engaging the
// polling loop.
func (h *RegistrationHandler) VerifyOnce(w http.ResponseWriter, r *http.Request) {
	result, err := h.registration.VerifyOnce(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNoFrame):
			respondError(w, http.StatusConflict, "no frame available; is the camera running?")
		case faceapi.IsTransport(err):
			respondError(w, http.StatusBadGateway, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := map[string]any{
		"verified": result.Verified,
		"message":  result.Message,
	}
	if result.Verified {
		resp["subject_id"] = result.SubjectID
		resp["confidence"] = attendance.FormatConfidence(result.Confidence)
	}
	respondJSON(w, http.StatusOK, resp)
}
