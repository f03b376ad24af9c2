package storage

import (
	"ppestation/internal/repository"
)

// DBRecorder records flushed snapshot metadata into the snapshot and label
// repositories.
type DBRecorder struct {
	snapshots repository.SnapshotRepository
	labels    repository.LabelRepository
}

// NewDBRecorder creates a recorder over the given repositories.
func NewDBRecorder(snapshots repository.SnapshotRepository, labels repository.LabelRepository) *DBRecorder {
	return &DBRecorder{snapshots: snapshots, labels: labels}
}

// Record inserts the snapshot row and its labels.
func (r *DBRecorder) Record(filename, path string, size int64, snap Snapshot) error {
	id, err := r.snapshots.Insert(&repository.Snapshot{
		Filename:  filename,
		Source:    snap.Source,
		Verdict:   snap.Verdict,
		Timestamp: snap.Timestamp,
		FilePath:  path,
		FileSize:  size,
	})
	if err != nil {
		return err
	}

	return r.labels.InsertBatch(id, snap.Labels)
}
