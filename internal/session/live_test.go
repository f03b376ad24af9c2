package session

import (
	"errors"
	"testing"
	"time"

	"ppestation/internal/compliance"
	"ppestation/internal/detection"
	"ppestation/internal/history"
	"ppestation/internal/models"
)

func TestLiveController_StartStop(t *testing.T) {
	source := newFakeSource()
	detector := newFakeDetector(&detection.Result{Labels: []string{"person"}}, nil)
	c, _, _, _ := newLiveFixture(t, source, detector)

	if c.State() != LiveOff {
		t.Fatalf("Expected initial state off, got %s", c.State())
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.State() != LiveOn {
		t.Errorf("Expected state on after Start, got %s", c.State())
	}

	if err := c.Start(); err == nil {
		t.Error("Expected second Start to fail while running")
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.State() != LiveOff {
		t.Errorf("Expected state off after Stop, got %s", c.State())
	}
	if !source.isClosed() {
		t.Error("Expected the camera to be released on Stop")
	}

	if err := c.Stop(); err == nil {
		t.Error("Expected Stop to fail when no session is running")
	}
}

func TestLiveController_StartFailsWhenCameraUnavailable(t *testing.T) {
	detector := newFakeDetector(nil, nil)
	hist, status, publisher := history.NewStore(), NewStatus(), &recordingPublisher{}

	open := func() (FrameSource, error) { return nil, errors.New("device busy") }
	c := NewLiveController(open, detector, time.Hour, hist, status, publisher, newTestLogger(t))

	if err := c.Start(); err == nil {
		t.Fatal("Expected Start to fail when the camera cannot be acquired")
	}
	if c.State() != LiveOff {
		t.Errorf("Expected state off after failed Start, got %s", c.State())
	}

	// The failure must not poison later attempts.
	source := newFakeSource()
	c.openSource = func() (FrameSource, error) { return source, nil }
	if err := c.Start(); err != nil {
		t.Fatalf("Start after recovery failed: %v", err)
	}
	c.Stop()
}

func TestLiveController_TickAppliesResult(t *testing.T) {
	source := newFakeSource()
	detector := newFakeDetector(&detection.Result{
		Labels:    []string{"person", "helmet", "vest", "person"},
		Boxes:     []models.BoundingBox{{X1: 1, Y1: 1, X2: 5, Y2: 5, Label: "person"}},
		Annotated: "frame-data",
	}, nil)
	c, hist, status, publisher := newLiveFixture(t, source, detector)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	c.tick(c.currentEpoch())
	waitFor(t, "history entry", func() bool { return hist.Len() == 1 })

	event := hist.All()[0]
	if event.Source != models.SourceLive {
		t.Errorf("Expected source live, got %s", event.Source)
	}
	if len(event.Labels) != 3 {
		t.Errorf("Expected deduplicated labels, got %v", event.Labels)
	}

	current := status.Get()
	if current.Verdict != compliance.VerdictPass {
		t.Errorf("Expected pass verdict, got %s", current.Verdict)
	}
	if current.Annotated != "frame-data" {
		t.Errorf("Expected annotated frame in status, got %q", current.Annotated)
	}
	if publisher.count() != 1 {
		t.Errorf("Expected 1 published update, got %d", publisher.count())
	}
}

func TestLiveController_TickSkipsEmptyFrame(t *testing.T) {
	source := newFakeSource()
	source.width, source.height = 0, 0
	detector := newFakeDetector(&detection.Result{Labels: []string{"person"}}, nil)
	c, hist, _, _ := newLiveFixture(t, source, detector)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	c.tick(c.currentEpoch())

	time.Sleep(50 * time.Millisecond)
	if detectCalls, _ := detector.calls(); detectCalls != 0 {
		t.Errorf("Expected no detection for a zero-dimension frame, got %d calls", detectCalls)
	}
	if hist.Len() != 0 {
		t.Errorf("Expected no history entries, got %d", hist.Len())
	}
}

func TestLiveController_DetectionErrorKeepsSessionRunning(t *testing.T) {
	source := newFakeSource()
	detector := newFakeDetector(nil, errors.New("service unreachable"))
	c, hist, status, _ := newLiveFixture(t, source, detector)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	c.tick(c.currentEpoch())
	<-detector.started

	time.Sleep(50 * time.Millisecond)
	if c.State() != LiveOn {
		t.Errorf("Expected session to stay on after a failed request, got %s", c.State())
	}
	if hist.Len() != 0 {
		t.Errorf("Expected no history entry from a failed request, got %d", hist.Len())
	}
	if status.Get().Verdict != compliance.VerdictUnknown {
		t.Errorf("Expected status untouched by a failed request, got %s", status.Get().Verdict)
	}

	// Sampling continues: the next tick dispatches a fresh request.
	c.tick(c.currentEpoch())
	<-detector.started
	if detectCalls, _ := detector.calls(); detectCalls != 2 {
		t.Errorf("Expected 2 detection attempts, got %d", detectCalls)
	}
}

func TestLiveController_StaleResultDiscardedAfterStop(t *testing.T) {
	source := newFakeSource()
	detector := newFakeDetector(&detection.Result{Labels: []string{"person"}}, nil)
	detector.block = make(chan struct{})
	c, hist, status, publisher := newLiveFixture(t, source, detector)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	c.tick(c.currentEpoch())
	<-detector.started // request is now in flight

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Release the in-flight response after the session stopped.
	close(detector.block)

	time.Sleep(50 * time.Millisecond)
	if hist.Len() != 0 {
		t.Errorf("Stale response reached history: %d entries", hist.Len())
	}
	if status.Get().Verdict != compliance.VerdictUnknown {
		t.Errorf("Stale response reached status: %s", status.Get().Verdict)
	}
	if publisher.count() != 0 {
		t.Errorf("Stale response was published: %d updates", publisher.count())
	}
}

func TestLiveController_StaleResultDiscardedAfterRestart(t *testing.T) {
	source := newFakeSource()
	detector := newFakeDetector(&detection.Result{Labels: []string{"person"}}, nil)
	detector.block = make(chan struct{})
	c, hist, _, _ := newLiveFixture(t, source, detector)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	staleEpoch := c.currentEpoch()

	c.tick(staleEpoch)
	<-detector.started

	c.Stop()
	source.mu.Lock()
	source.closed = false
	source.mu.Unlock()
	if err := c.Start(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	defer c.Stop()

	close(detector.block)

	time.Sleep(50 * time.Millisecond)
	if hist.Len() != 0 {
		t.Errorf("Response from the previous session reached history: %d entries", hist.Len())
	}
}

func TestLiveController_OverlappingRequests(t *testing.T) {
	// A slow service must not hold up the capture cadence: each tick
	// dispatches its own request and they may be in flight together.
	source := newFakeSource()
	detector := newFakeDetector(&detection.Result{Labels: []string{"person"}}, nil)
	detector.block = make(chan struct{})
	c, hist, _, _ := newLiveFixture(t, source, detector)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	epoch := c.currentEpoch()
	for i := 0; i < 3; i++ {
		c.tick(epoch)
		<-detector.started
	}

	if detectCalls, _ := detector.calls(); detectCalls != 3 {
		t.Fatalf("Expected 3 overlapping requests, got %d", detectCalls)
	}

	close(detector.block)
	waitFor(t, "all responses applied", func() bool { return hist.Len() == 3 })
}
