package repository

import (
	"time"

	"ppestation/internal/models"
)

// Snapshot is one stored violation frame.
type Snapshot struct {
	ID        int64         `json:"id"`
	Filename  string        `json:"filename"`
	Source    models.Source `json:"source"`
	Verdict   string        `json:"verdict"`
	Labels    []string      `json:"labels"`
	Timestamp time.Time     `json:"timestamp"`
	FilePath  string        `json:"filepath"`
	FileSize  int64         `json:"filesize"`
}

// SnapshotFilter narrows snapshot queries.
type SnapshotFilter struct {
	Source     string
	Label      string
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}

// SnapshotRepository defines snapshot metadata operations.
type SnapshotRepository interface {
	Insert(snap *Snapshot) (int64, error)
	GetByID(id int64) (*Snapshot, error)
	GetByFilename(filename string) (*Snapshot, error)
	GetAll(filter *SnapshotFilter) ([]Snapshot, error)
	GetTotalCount(filter *SnapshotFilter) (int, error)
	Delete(id int64) error
	DeleteByFilename(filename string) error
	DeleteAll() error
}

// LabelRepository defines operations on the labels attached to snapshots.
type LabelRepository interface {
	InsertBatch(snapshotID int64, labels []string) error
	GetBySnapshotID(snapshotID int64) ([]string, error)
	GetAllLabels() ([]string, error)
	DeleteBySnapshotID(snapshotID int64) error
}
