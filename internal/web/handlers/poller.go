package handlers

import (
	"errors"
	"net/http"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
	"github.com/Calendar-One/face-attendance-ui/internal/camera"
)

// PollerHandler exposes the verification polling loop.
type PollerHandler struct {
	poller *attendance.Poller
}

// NewPollerHandler creates a poller handler.
func NewPollerHandler(poller *attendance.Poller) *PollerHandler {
	return &PollerHandler{poller: poller}
}

type startPollerRequest struct {
	FacingMode string `json:"facing_mode"`
}

// Start begins the capture/verify loop for the given facing mode.
func (h *PollerHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startPollerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FacingMode == "" {
		req.FacingMode = "front"
	}

	if err := h.poller.Start(r.Context(), req.FacingMode); err != nil {
		switch {
		case errors.Is(err, attendance.ErrPollerRunning):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, camera.ErrUnknownFacingMode):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusServiceUnavailable, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"state": string(h.poller.State())})
}

// Stop ends the loop regardless of verification outcome. Idempotent.
func (h *PollerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.poller.Stop()
	respondJSON(w, http.StatusOK, map[string]string{"state": string(h.poller.State())})
}

// Status reports the loop state.
func (h *PollerHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"state": string(h.poller.State())})
}
