package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Calendar-One/face-attendance-ui/internal/camera"
)

// CameraHandler controls the capture session and serves the live preview.
type CameraHandler struct {
	manager *camera.Manager
	fps     int
}

// NewCameraHandler creates a camera handler. fps bounds the preview frame rate.
func NewCameraHandler(manager *camera.Manager, fps int) *CameraHandler {
	if fps <= 0 {
		fps = 15
	}
	return &CameraHandler{manager: manager, fps: fps}
}

type startCameraRequest struct {
	FacingMode string `json:"facing_mode"`
}

// Start acquires a capture session for the requested facing mode. A session
// that is already active is stopped and replaced.
func (h *CameraHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startCameraRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FacingMode == "" {
		req.FacingMode = "front"
	}

	if err := h.manager.Start(r.Context(), req.FacingMode); err != nil {
		if errors.Is(err, camera.ErrUnknownFacingMode) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"facing_mode": req.FacingMode,
		"status":      "active",
	})
}

// Stop releases the active capture session. A no-op when none is active.
func (h *CameraHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.manager.Stop()
	respondJSON(w, http.StatusOK, map[string]string{"status": "inactive"})
}

// Status reports whether a session is active and its facing mode.
func (h *CameraHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"active":      h.manager.Active(),
		"facing_mode": h.manager.FacingMode(),
	})
}

// Preview streams the live camera as MJPEG (multipart/x-mixed-replace).
// The stream ends when the client disconnects or the session stops.
func (h *CameraHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Active() {
		respondError(w, http.StatusConflict, "no active camera session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")

	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frame, ok := h.manager.LatestFrame()
			if !ok {
				if !h.manager.Active() {
					return
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
