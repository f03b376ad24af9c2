package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"ppestation/internal/compliance"
	"ppestation/internal/detection"
	"ppestation/internal/history"
	"ppestation/internal/logger"
	"ppestation/internal/models"
	"ppestation/internal/overlay"
)

// LiveState is the lifecycle state of the live camera session.
type LiveState string

const (
	LiveOff      LiveState = "off"
	LiveStarting LiveState = "starting"
	LiveOn       LiveState = "on"
	LiveStopping LiveState = "stopping"
)

// FrameSource produces one still frame per call, as JPEG bytes with the
// frame's pixel dimensions. Zero dimensions mean the source is not
// producing frames yet.
type FrameSource interface {
	Grab() ([]byte, int, int, error)
	Close() error
}

// Detector is the remote detection surface the sessions drive.
type Detector interface {
	Detect(ctx context.Context, frame []byte) (*detection.Result, error)
	Upload(ctx context.Context, filename string, data []byte) (*detection.Result, error)
}

// LiveController owns the live session state machine. It is the only
// component that starts or stops the sampler, acquires or releases the
// camera, and appends live events to history.
//
// Every dispatched request carries the epoch captured at dispatch time;
// responses arriving after the session stopped (or restarted) are discarded
// instead of being applied to the shared read models.
type LiveController struct {
	openSource func() (FrameSource, error)
	detector   Detector
	interval   time.Duration
	hist       *history.Store
	status     *Status
	publisher  Publisher
	renderer   *overlay.Renderer
	logger     *logger.Logger

	mu      sync.Mutex
	state   LiveState
	epoch   uint64
	source  FrameSource
	sampler *Sampler
}

// NewLiveController creates a live controller in the Off state.
func NewLiveController(openSource func() (FrameSource, error), detector Detector, interval time.Duration, hist *history.Store, status *Status, publisher Publisher, log *logger.Logger) *LiveController {
	return &LiveController{
		openSource: openSource,
		detector:   detector,
		interval:   interval,
		hist:       hist,
		status:     status,
		publisher:  publisher,
		renderer:   overlay.NewRenderer(),
		logger:     log,
		state:      LiveOff,
	}
}

// State returns the current live session state.
func (c *LiveController) State() LiveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires the camera and begins sampling. Fails without a state
// change when the camera cannot be acquired or a session is already
// running.
func (c *LiveController) Start() error {
	c.mu.Lock()
	if c.state != LiveOff {
		c.mu.Unlock()
		return fmt.Errorf("live session already %s", c.state)
	}
	c.state = LiveStarting
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	source, err := c.openSource()
	if err != nil {
		c.mu.Lock()
		c.state = LiveOff
		c.mu.Unlock()
		return fmt.Errorf("failed to acquire camera: %w", err)
	}

	c.mu.Lock()
	c.source = source
	c.sampler = NewSampler(c.interval, func() { c.tick(epoch) })
	c.state = LiveOn
	c.sampler.Start()
	c.mu.Unlock()

	c.logger.Info("Live session started (interval %s)", c.interval)
	return nil
}

// Stop halts the sampler and releases the camera. Requests already in
// flight are not cancelled; their responses are discarded on arrival
// because the epoch has moved on.
func (c *LiveController) Stop() error {
	c.mu.Lock()
	if c.state != LiveOn {
		c.mu.Unlock()
		return fmt.Errorf("no live session running")
	}
	c.state = LiveStopping
	c.epoch++
	sampler, source := c.sampler, c.source
	c.sampler, c.source = nil, nil
	c.mu.Unlock()

	sampler.Stop()
	err := source.Close()

	c.mu.Lock()
	c.state = LiveOff
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to release camera: %w", err)
	}

	c.logger.Info("Live session stopped")
	return nil
}

// Shutdown releases the camera if a session is running. Used on app
// teardown so the camera lock never leaks.
func (c *LiveController) Shutdown() {
	if c.State() == LiveOn {
		if err := c.Stop(); err != nil {
			c.logger.Error("Error stopping live session on shutdown: %v", err)
		}
	}
}

// tick captures one frame and dispatches one detection request. It never
// waits for a previous request: under a slow service, requests overlap and
// responses may be applied out of tick order. A failed or empty capture is
// skipped silently; sampling continues on the next tick.
func (c *LiveController) tick(epoch uint64) {
	c.mu.Lock()
	if c.state != LiveOn || c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	source := c.source
	c.mu.Unlock()

	frame, width, height, err := source.Grab()
	if err != nil {
		c.logger.Warning("Frame capture failed, skipping tick: %v", err)
		return
	}
	if width == 0 || height == 0 {
		return
	}

	go func() {
		result, err := c.detector.Detect(context.Background(), frame)
		if err != nil {
			// Swallowed: the next tick is the retry.
			c.logger.Error("Live detection failed: %v", err)
			return
		}

		// Some service deployments omit the annotated image; draw the
		// overlay locally from the sampled frame in that case.
		if result.Annotated == "" && len(result.Boxes) > 0 {
			if drawn, err := c.renderer.Annotate(frame, result.Boxes); err != nil {
				c.logger.Warning("Local overlay rendering failed: %v", err)
			} else {
				result.Annotated = base64.StdEncoding.EncodeToString(drawn)
			}
		}

		c.apply(epoch, result)
	}()
}

// apply records one detection response into the shared read models unless
// the response is stale.
func (c *LiveController) apply(epoch uint64, result *detection.Result) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Info("Discarding stale live detection result")
		return
	}
	c.mu.Unlock()

	labels := models.DedupLabels(result.Labels)
	update := Update{
		Source:    models.SourceLive,
		Verdict:   compliance.Classify(labels),
		Labels:    labels,
		Boxes:     result.Boxes,
		Annotated: result.Annotated,
	}

	c.hist.Append(models.NewDetectionEvent(models.SourceLive, result.Labels, result.Boxes, result.Annotated))
	c.status.Set(update)
	c.publisher.Publish(update)
}
