package sqlite

import (
	"fmt"
)

// LabelRepository implements repository.LabelRepository for SQLite.
type LabelRepository struct {
	db *DB
}

// NewLabelRepository creates a new SQLite label repository.
func NewLabelRepository(db *DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// InsertBatch attaches labels to a snapshot in a single transaction.
func (r *LabelRepository) InsertBatch(snapshotID int64, labels []string) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO snapshot_labels (snapshot_id, label) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, label := range labels {
		if _, err := stmt.Exec(snapshotID, label); err != nil {
			return fmt.Errorf("failed to insert label: %w", err)
		}
	}

	return tx.Commit()
}

// GetBySnapshotID returns the distinct labels attached to a snapshot.
func (r *LabelRepository) GetBySnapshotID(snapshotID int64) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT label FROM snapshot_labels WHERE snapshot_id = ?`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}

	return labels, nil
}

// GetAllLabels returns every distinct label seen across snapshots.
func (r *LabelRepository) GetAllLabels() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT label FROM snapshot_labels ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}

	return labels, nil
}

// DeleteBySnapshotID removes all labels for a specific snapshot.
func (r *LabelRepository) DeleteBySnapshotID(snapshotID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM snapshot_labels WHERE snapshot_id = ?`, snapshotID); err != nil {
		return fmt.Errorf("failed to delete labels: %w", err)
	}
	return nil
}
