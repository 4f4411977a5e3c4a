package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
)

// EventsHandler streams flow notices to the UI over SSE.
type EventsHandler struct {
	notifier *attendance.Notifier
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(notifier *attendance.Notifier) *EventsHandler {
	return &EventsHandler{notifier: notifier}
}

// sendSSEEvent writes a single SSE event with a JSON payload.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}

// Stream subscribes the client to the notice stream until it disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.notifier.AddListener()
	defer h.notifier.RemoveListener(ch)

	sendSSEEvent(w, flusher, "connected", map[string]string{"status": "ok"})

	for {
		select {
		case <-r.Context().Done():
			return
		case notice, ok := <-ch:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, string(notice.Type), notice)
		}
	}
}
