package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ppestation/internal/history"
	"ppestation/internal/logger"
	"ppestation/internal/models"
)

// HistoryFetcher fetches the authoritative detection log from the remote
// service.
type HistoryFetcher interface {
	History(ctx context.Context) ([]models.DetectionEvent, error)
}

// GetHistoryHandler refreshes the local store from the remote log and
// returns it. The remote snapshot is authoritative: a successful refresh
// overwrites all local-only state. On a failed refresh the local store is
// left untouched and the error is surfaced.
func GetHistoryHandler(fetcher HistoryFetcher, store *history.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		events, err := fetcher.History(ctx)
		if err != nil {
			logger.Error("Failed to fetch remote history: %v", err)
			http.Error(w, "Failed to fetch history", http.StatusBadGateway)
			return
		}

		store.ReplaceAll(events)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"history": store.All(),
		})
	}
}

// DeleteHistoryHandler removes one entry from the local store, addressed as
// DELETE /api/history/{id}. The removal does not propagate to the remote
// log, so a later refresh can bring the entry back.
func DeleteHistoryHandler(store *history.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/api/history/")
		if id == "" || strings.Contains(id, "/") {
			http.Error(w, "Entry id is required", http.StatusBadRequest)
			return
		}

		if !store.Remove(id) {
			http.Error(w, "Entry not found", http.StatusNotFound)
			return
		}

		logger.Info("Removed history entry %s", id)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "id": id})
	}
}
