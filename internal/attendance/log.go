// Package attendance implements the kiosk's flows: the capture/verify
// polling loop, the registration flow, the in-memory attendance log, and the
// notice stream that surfaces outcomes to the UI.
package attendance

import (
	"fmt"
	"sync"
	"time"
)

// timestampLayout formats record timestamps as local wall-clock time.
const timestampLayout = "2006-01-02 15:04:05"

// Record is one verified attendance event. Records are never mutated or
// removed and live only for the process lifetime.
type Record struct {
	SubjectID  string  `json:"subject_id"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence_score"`
}

// ConfidencePercent renders the confidence score as a percentage with one
// decimal place, e.g. "97.4".
func (r Record) ConfidencePercent() string {
	return FormatConfidence(r.Confidence)
}

// FormatConfidence renders a [0,1] confidence score as a percentage with one
// decimal place.
func FormatConfidence(score float64) string {
	return fmt.Sprintf("%.1f", score*100)
}

// Log is the append-only, newest-first attendance log.
type Log struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

// NewLog creates an empty attendance log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Add appends a verified event to the front of the log and returns the
// created record.
func (l *Log) Add(subjectID string, confidence float64) Record {
	rec := Record{
		SubjectID:  subjectID,
		Timestamp:  l.now().Format(timestampLayout),
		Confidence: confidence,
	}

	l.mu.Lock()
	l.records = append([]Record{rec}, l.records...)
	l.mu.Unlock()

	return rec
}

// Records returns a copy of the log, newest first.
func (l *Log) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
