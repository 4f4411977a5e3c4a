package faceapi

import "context"

// Register submits one reference still for a subject to POST /register.
// The response body is accepted but not interpreted beyond the HTTP status.
func (c *Client) Register(ctx context.Context, subjectID string, image []byte) error {
	_, err := c.postImage(ctx, "register", map[string]string{"id": subjectID}, image)
	return err
}
