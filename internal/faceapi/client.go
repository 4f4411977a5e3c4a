// Package faceapi is the HTTP client for the remote face recognition
// backend. The backend exposes two multipart endpoints, POST /register and
// POST /verify; everything else about recognition is its concern.
package faceapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// imageFieldName is the multipart field the backend expects the JPEG under.
const imageFieldName = "imageFile"

// TransportError indicates a failed exchange with the backend: a non-2xx
// status or a network-level failure. User-visible and recoverable by
// retrying the action.
type TransportError struct {
	Status int    // HTTP status, 0 for network failures
	Body   string // response body excerpt, empty for network failures
	Err    error  // underlying error for network failures
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend request failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport returns true if the error chain contains a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Client talks to the face recognition backend.
type Client struct {
	baseURL   string
	parsedURL *url.URL
}

// NewClient creates a backend client for the given base URL.
func NewClient(rawURL string) (*Client, error) {
	if rawURL == "" {
		return nil, errors.New("backend URL is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	return &Client{baseURL: rawURL, parsedURL: parsed}, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// postImage submits a JPEG still as a multipart form to the given endpoint,
// with any extra form fields, and returns the response body. Non-2xx
// statuses and network failures become TransportError.
func (c *Client) postImage(ctx context.Context, endpoint string, fields map[string]string, image []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("could not write form field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile(imageFieldName, "capture.jpg")
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("could not write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), &body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	return respBody, nil
}
