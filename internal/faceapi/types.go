package faceapi

// VerificationResult is the backend's answer to a single verify request.
// It is transient: each verification attempt overwrites the previous one.
type VerificationResult struct {
	Verified   bool    `json:"verified"`
	SubjectID  string  `json:"user_id"`
	Confidence float64 `json:"confidence_score"`
	Message    string  `json:"message,omitempty"`
}
