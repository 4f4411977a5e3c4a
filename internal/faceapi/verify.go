package faceapi

import (
	"context"
	"encoding/json"
	"fmt"
)

// Verify submits a captured still to POST /verify and returns the backend's
// verdict. A non-2xx status is a hard failure of the attempt.
func (c *Client) Verify(ctx context.Context, image []byte) (*VerificationResult, error) {
	body, err := c.postImage(ctx, "verify", nil, image)
	if err != nil {
		return nil, err
	}

	var result VerificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal verify response: %w", err)
	}
	return &result, nil
}
