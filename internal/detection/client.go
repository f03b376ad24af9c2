package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"ppestation/internal/models"
)

const (
	detectPath  = "/detect"
	uploadPath  = "/upload"
	historyPath = "/history"
)

// Result is one successful detection exchange with the remote service.
type Result struct {
	Labels    []string             `json:"objects"`
	Boxes     []models.BoundingBox `json:"boxes"`
	Annotated string               `json:"base64_image"`
}

type historyResponse struct {
	History []models.DetectionEvent `json:"history"`
}

// Client performs single request/response exchanges with the remote
// detection service. Each call is independent: the client keeps no state,
// never retries, and does not limit concurrent in-flight calls.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a detection client for the given service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Detect submits one sampled live frame (JPEG bytes) for detection.
func (c *Client) Detect(ctx context.Context, frame []byte) (*Result, error) {
	return c.post(ctx, detectPath, "frame.jpg", frame)
}

// Upload submits a user-selected image file for detection.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (*Result, error) {
	return c.post(ctx, uploadPath, filename, data)
}

// History fetches the authoritative detection log, newest-first.
func (c *Client) History(ctx context.Context) ([]models.DetectionEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+historyPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create history request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("history request returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}

	return decoded.History, nil
}

// post sends one multipart image request and decodes the fixed response
// schema. A non-2xx status or a body that does not match the schema is a
// transport error; no partial result is ever returned.
func (c *Client) post(ctx context.Context, path, filename string, data []byte) (*Result, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("detection service returned status %d: %s", resp.StatusCode, string(msg))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode detection response: %w", err)
	}

	for _, box := range result.Boxes {
		if !box.Valid() {
			return nil, fmt.Errorf("detection response contains invalid box: %+v", box)
		}
	}

	return &result, nil
}
