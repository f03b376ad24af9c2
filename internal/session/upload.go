package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"ppestation/internal/compliance"
	"ppestation/internal/history"
	"ppestation/internal/logger"
	"ppestation/internal/models"
	"ppestation/internal/overlay"
)

// UploadState is the lifecycle state of the upload session.
type UploadState string

const (
	UploadEmpty     UploadState = "empty"
	UploadSelected  UploadState = "selected"
	UploadDetecting UploadState = "detecting"
	UploadResulted  UploadState = "resulted"
)

// ErrNotImage is returned when the selected file is not an image. The
// selection is rejected before any state changes.
var ErrNotImage = errors.New("selected file is not an image")

// UploadController owns the upload session state machine: one selected
// file, one explicit detect action per result.
type UploadController struct {
	detector  Detector
	hist      *history.Store
	status    *Status
	publisher Publisher
	renderer  *overlay.Renderer
	logger    *logger.Logger

	mu       sync.Mutex
	state    UploadState
	epoch    uint64
	filename string
	data     []byte
	result   *Update
}

// NewUploadController creates an upload controller in the Empty state.
func NewUploadController(detector Detector, hist *history.Store, status *Status, publisher Publisher, log *logger.Logger) *UploadController {
	return &UploadController{
		detector:  detector,
		hist:      hist,
		status:    status,
		publisher: publisher,
		renderer:  overlay.NewRenderer(),
		logger:    log,
		state:     UploadEmpty,
	}
}

// State returns the current upload session state.
func (c *UploadController) State() UploadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the applied result of the last detect, if the session is
// in the Resulted state.
func (c *UploadController) Result() *Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != UploadResulted || c.result == nil {
		return nil
	}
	r := *c.result
	return &r
}

// Select stores the user's file choice. Non-image content is rejected
// synchronously with ErrNotImage and the session state is untouched.
func (c *UploadController) Select(filename string, data []byte) error {
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return ErrNotImage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == UploadDetecting {
		return fmt.Errorf("detection in progress")
	}

	c.state = UploadSelected
	c.filename = filename
	c.data = data
	c.result = nil

	c.logger.Info("Upload selected: %s (%d bytes)", filename, len(data))
	return nil
}

// Detect submits the selected file to the remote service. On failure the
// file stays selected, no result is recorded and no history entry is
// appended.
func (c *UploadController) Detect(ctx context.Context) (*Update, error) {
	c.mu.Lock()
	if c.state != UploadSelected {
		c.mu.Unlock()
		return nil, fmt.Errorf("no file selected")
	}
	c.state = UploadDetecting
	c.epoch++
	epoch := c.epoch
	filename, data := c.filename, c.data
	c.mu.Unlock()

	result, err := c.detector.Upload(ctx, filename, data)

	// Some service deployments omit the annotated image; draw the overlay
	// locally over the selected file in that case.
	if err == nil && result.Annotated == "" && len(result.Boxes) > 0 {
		if drawn, renderErr := c.renderer.Annotate(data, result.Boxes); renderErr != nil {
			c.logger.Warning("Local overlay rendering failed: %v", renderErr)
		} else {
			result.Annotated = base64.StdEncoding.EncodeToString(drawn)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		// Cleared while the request was in flight; drop the outcome.
		c.logger.Info("Discarding stale upload detection result")
		return nil, fmt.Errorf("upload session was cleared")
	}

	if err != nil {
		c.state = UploadSelected
		return nil, fmt.Errorf("upload detection failed: %w", err)
	}

	labels := models.DedupLabels(result.Labels)
	update := Update{
		Source:    models.SourceUpload,
		Verdict:   compliance.Classify(labels),
		Labels:    labels,
		Boxes:     result.Boxes,
		Annotated: result.Annotated,
	}

	c.state = UploadResulted
	c.result = &update

	c.hist.Append(models.NewDetectionEvent(models.SourceUpload, result.Labels, result.Boxes, result.Annotated))
	c.status.Set(update)
	c.publisher.Publish(update)

	return &update, nil
}

// Clear drops the selection and any result. A detect call in flight is not
// aborted; its response is discarded on arrival.
func (c *UploadController) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = UploadEmpty
	c.epoch++
	c.filename = ""
	c.data = nil
	c.result = nil
}
