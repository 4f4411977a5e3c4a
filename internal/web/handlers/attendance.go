package handlers

import (
	"net/http"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
)

// AttendanceHandler renders the in-memory attendance log.
type AttendanceHandler struct {
	log *attendance.Log
}

// NewAttendanceHandler creates an attendance handler.
func NewAttendanceHandler(log *attendance.Log) *AttendanceHandler {
	return &AttendanceHandler{log: log}
}

type attendanceEntry struct {
	SubjectID  string `json:"subject_id"`
	Timestamp  string `json:"timestamp"`
	Confidence string `json:"confidence"` // percentage, one decimal place
}

// List returns the attendance records, newest first.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.log.Records()
	out := make([]attendanceEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, attendanceEntry{
			SubjectID:  rec.SubjectID,
			Timestamp:  rec.Timestamp,
			Confidence: rec.ConfidencePercent(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": out})
}
