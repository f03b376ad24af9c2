package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"ppestation/internal/config"
	"ppestation/internal/detection"
	"ppestation/internal/history"
	"ppestation/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

// jpegHeader makes http.DetectContentType report image/jpeg.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type fakeSource struct {
	mu     sync.Mutex
	frame  []byte
	width  int
	height int
	grabs  int
	closed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{frame: jpegHeader, width: 640, height: 480}
}

func (s *fakeSource) Grab() ([]byte, int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grabs++
	return s.frame, s.width, s.height, nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeDetector struct {
	mu          sync.Mutex
	detectCalls int
	uploadCalls int
	result      *detection.Result
	err         error
	block       chan struct{} // when non-nil, calls wait until it closes
	started     chan struct{} // receives one value per call entry
}

func newFakeDetector(result *detection.Result, err error) *fakeDetector {
	return &fakeDetector{
		result:  result,
		err:     err,
		started: make(chan struct{}, 16),
	}
}

func (d *fakeDetector) Detect(ctx context.Context, frame []byte) (*detection.Result, error) {
	d.mu.Lock()
	d.detectCalls++
	block := d.block
	d.mu.Unlock()

	d.started <- struct{}{}
	if block != nil {
		<-block
	}
	return d.result, d.err
}

func (d *fakeDetector) Upload(ctx context.Context, filename string, data []byte) (*detection.Result, error) {
	d.mu.Lock()
	d.uploadCalls++
	block := d.block
	d.mu.Unlock()

	d.started <- struct{}{}
	if block != nil {
		<-block
	}
	return d.result, d.err
}

func (d *fakeDetector) calls() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detectCalls, d.uploadCalls
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []Update
}

func (p *recordingPublisher) Publish(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}

// waitFor polls until the condition holds or the test deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func newLiveFixture(t *testing.T, source *fakeSource, detector *fakeDetector) (*LiveController, *history.Store, *Status, *recordingPublisher) {
	t.Helper()
	hist := history.NewStore()
	status := NewStatus()
	publisher := &recordingPublisher{}
	open := func() (FrameSource, error) { return source, nil }
	// time.Hour keeps the real ticker silent; tests drive ticks directly.
	c := NewLiveController(open, detector, time.Hour, hist, status, publisher, newTestLogger(t))
	return c, hist, status, publisher
}

func (c *LiveController) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}
