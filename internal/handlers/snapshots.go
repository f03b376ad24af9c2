package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ppestation/internal/config"
	"ppestation/internal/logger"
	"ppestation/internal/repository"
)

// SnapshotInfo is one gallery entry in API responses.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Verdict   string    `json:"verdict"`
	Labels    []string  `json:"labels"`
}

// SnapshotsData is the paginated response payload for the snapshot gallery.
type SnapshotsData struct {
	Snapshots   []SnapshotInfo `json:"snapshots"`
	Size        int64          `json:"size"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}

// GetSnapshotsHandler lists stored violation snapshots with filtering and
// pagination.
func GetSnapshotsHandler(snapshots repository.SnapshotRepository, labels repository.LabelRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &repository.SnapshotFilter{
			Source:     q.Get("source"),
			Label:      q.Get("label"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		rows, err := snapshots.GetAll(filter)
		if err != nil {
			logger.Error("Error querying snapshots: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := snapshots.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting snapshots: %v", err)
			totalCount = len(rows)
		}

		var totalSize int64
		entries := make([]SnapshotInfo, 0, len(rows))
		for _, snap := range rows {
			totalSize += snap.FileSize

			snapLabels, err := labels.GetBySnapshotID(snap.ID)
			if err != nil {
				logger.Error("Error loading labels for snapshot %d: %v", snap.ID, err)
			}

			entries = append(entries, SnapshotInfo{
				Name:      snap.Filename,
				Timestamp: snap.Timestamp,
				Source:    string(snap.Source),
				Verdict:   snap.Verdict,
				Labels:    snapLabels,
			})
		}

		data := SnapshotsData{
			Snapshots:   entries,
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewSnapshotHandler serves a single snapshot file specified via the
// "image" query parameter.
func ViewSnapshotHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image := r.URL.Query().Get("image")
		if image == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}
		filePath := filepath.Join(cfg.SnapshotDirectory, image)
		http.ServeFile(w, r, filePath)
	}
}

// DeleteSnapshotHandler removes a snapshot from disk and the database.
func DeleteSnapshotHandler(snapshots repository.SnapshotRepository, labels repository.LabelRepository, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			http.Error(w, "Filename required", http.StatusBadRequest)
			return
		}

		filePath := filepath.Join(cfg.SnapshotDirectory, filename)
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", filePath, err)
		}

		if snap, err := snapshots.GetByFilename(filename); err == nil && snap != nil {
			if err := labels.DeleteBySnapshotID(snap.ID); err != nil {
				logger.Error("Failed to delete snapshot labels: %v", err)
			}
		}
		if err := snapshots.DeleteByFilename(filename); err != nil {
			logger.Error("Failed to delete snapshot record: %v", err)
		}

		logger.Info("Deleted snapshot: %s", filename)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearSnapshotsHandler deletes every snapshot file and clears the database.
func ClearSnapshotsHandler(snapshots repository.SnapshotRepository, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := os.ReadDir(cfg.SnapshotDirectory)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading snapshot directory: %v", err)
			http.Error(w, "Unable to read snapshot directory", http.StatusInternalServerError)
			return
		}

		for _, file := range files {
			if !file.IsDir() {
				filePath := filepath.Join(cfg.SnapshotDirectory, file.Name())
				if err := os.Remove(filePath); err != nil {
					logger.Error("Error deleting file %s: %v", file.Name(), err)
				}
			}
		}

		if err := snapshots.DeleteAll(); err != nil {
			logger.Error("Error clearing snapshot records: %v", err)
		}

		logger.Info("All snapshots cleared from directory: %s", cfg.SnapshotDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetSnapshotFiltersHandler returns the label values available for
// filtering the gallery.
func GetSnapshotFiltersHandler(labels repository.LabelRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allLabels, err := labels.GetAllLabels()
		if err != nil {
			logger.Error("Failed to get labels: %v", err)
			allLabels = []string{}
		}

		response := map[string]interface{}{
			"labels":  allLabels,
			"sources": []string{"live", "upload"},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// atoiDefault converts string to int or returns a default when conversion
// fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the
// request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
