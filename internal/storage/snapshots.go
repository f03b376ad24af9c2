package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ppestation/internal/logger"
	"ppestation/internal/models"
)

// Snapshot is one annotated violation frame waiting to be flushed to disk.
type Snapshot struct {
	Timestamp time.Time
	Source    models.Source
	Verdict   string
	Labels    []string
	Data      []byte
}

// Recorder persists snapshot metadata once the file is on disk.
type Recorder interface {
	Record(filename, filepath string, size int64, snap Snapshot) error
}

// SnapshotBuffer collects violation snapshots in memory and flushes them to
// the snapshot directory on a fixed interval. The buffer is capped; frames
// arriving while it is full are dropped.
type SnapshotBuffer struct {
	dir      string
	limit    int
	recorder Recorder
	logger   *logger.Logger

	mu      sync.Mutex
	pending []Snapshot
}

// NewSnapshotBuffer creates a buffer flushing into dir.
func NewSnapshotBuffer(dir string, limit int, recorder Recorder, log *logger.Logger) *SnapshotBuffer {
	return &SnapshotBuffer{
		dir:      dir,
		limit:    limit,
		recorder: recorder,
		logger:   log,
		pending:  make([]Snapshot, 0),
	}
}

// Run flushes the buffer every flushInterval seconds. Intended to run as a
// background goroutine for the lifetime of the app.
func (s *SnapshotBuffer) Run(flushInterval int) {
	ticker := time.NewTicker(time.Duration(flushInterval) * time.Second)
	defer ticker.Stop()

	for {
		<-ticker.C
		s.Flush()
	}
}

// Add queues one snapshot for the next flush.
func (s *SnapshotBuffer) Add(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) >= s.limit {
		s.logger.Warning("Snapshot buffer full (%d), dropping snapshot", s.limit)
		return
	}

	s.pending = append(s.pending, snap)
}

// Flush writes all pending snapshots to disk and records their metadata.
func (s *SnapshotBuffer) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Error("Error creating snapshot directory: %v", err)
		return
	}

	for _, snap := range s.pending {
		filename := snapshotFilename(snap)
		fullpath := filepath.Join(s.dir, filename)

		if err := os.WriteFile(fullpath, snap.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}

		if s.recorder != nil {
			if err := s.recorder.Record(filename, fullpath, int64(len(snap.Data)), snap); err != nil {
				s.logger.Error("Error recording snapshot %s: %v", filename, err)
			}
		}
	}

	s.logger.Info("Flushed %d snapshots to disk", len(s.pending))
	s.pending = s.pending[:0]
}

// snapshotFilename builds names like
// 2006-01-02_15-04-05.000_live_rejected_person_helmet.jpg
func snapshotFilename(snap Snapshot) string {
	parts := []string{
		snap.Timestamp.Format("2006-01-02_15-04-05.000"),
		string(snap.Source),
		snap.Verdict,
	}
	parts = append(parts, snap.Labels...)
	return fmt.Sprintf("%s.jpg", strings.Join(parts, "_"))
}
