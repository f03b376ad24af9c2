package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"ppestation/internal/repository"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SQLite snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert adds a new snapshot record to the database.
func (r *SnapshotRepository) Insert(snap *repository.Snapshot) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO snapshots (filename, source, verdict, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.Filename, snap.Source, snap.Verdict, snap.Timestamp, snap.FilePath, snap.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a single snapshot, or nil when not found.
func (r *SnapshotRepository) GetByID(id int64) (*repository.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, filename, source, verdict, timestamp, filepath, filesize
		FROM snapshots WHERE id = ?
	`, id)

	return scanSnapshot(row)
}

// GetByFilename retrieves a single snapshot by filename, or nil when not found.
func (r *SnapshotRepository) GetByFilename(filename string) (*repository.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, filename, source, verdict, timestamp, filepath, filesize
		FROM snapshots WHERE filename = ?
	`, filename)

	return scanSnapshot(row)
}

// GetAll retrieves snapshots matching the filter, newest-first.
func (r *SnapshotRepository) GetAll(filter *repository.SnapshotFilter) ([]repository.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT DISTINCT s.id, s.filename, s.source, s.verdict, s.timestamp, s.filepath, s.filesize
		FROM snapshots s`
	where, args := buildFilter(filter)
	query += where + ` ORDER BY s.timestamp DESC`

	if filter != nil && filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []repository.Snapshot
	for rows.Next() {
		var snap repository.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Filename, &snap.Source, &snap.Verdict, &snap.Timestamp, &snap.FilePath, &snap.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// GetTotalCount counts snapshots matching the filter.
func (r *SnapshotRepository) GetTotalCount(filter *repository.SnapshotFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(DISTINCT s.id) FROM snapshots s`
	where, args := buildFilter(filter)
	query += where

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	return count, nil
}

// Delete removes a snapshot record by id.
func (r *SnapshotRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// DeleteByFilename removes a snapshot record by filename.
func (r *SnapshotRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM snapshots WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// DeleteAll removes all snapshot records.
func (r *SnapshotRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// buildFilter translates a filter into a WHERE clause. Label filtering
// joins through snapshot_labels.
func buildFilter(filter *repository.SnapshotFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var conditions []string
	var args []interface{}

	if filter.Label != "" {
		conditions = append(conditions, `s.id IN (SELECT snapshot_id FROM snapshot_labels WHERE label = ?)`)
		args = append(args, filter.Label)
	}
	if filter.Source != "" {
		conditions = append(conditions, `s.source = ?`)
		args = append(args, filter.Source)
	}
	if !filter.DateAfter.IsZero() {
		conditions = append(conditions, `s.timestamp >= ?`)
		args = append(args, filter.DateAfter)
	}
	if !filter.DateBefore.IsZero() {
		conditions = append(conditions, `s.timestamp <= ?`)
		args = append(args, filter.DateBefore)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanSnapshot(row *sql.Row) (*repository.Snapshot, error) {
	var snap repository.Snapshot
	err := row.Scan(&snap.ID, &snap.Filename, &snap.Source, &snap.Verdict, &snap.Timestamp, &snap.FilePath, &snap.FileSize)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	return &snap, nil
}
