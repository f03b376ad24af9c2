package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"ppestation/internal/logger"
	"ppestation/internal/session"
)

// StartLiveHandler starts the live camera session.
func StartLiveHandler(live *session.LiveController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := live.Start(); err != nil {
			logger.Error("Failed to start live session: %v", err)
			status := http.StatusInternalServerError
			if strings.Contains(err.Error(), "already") {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}

		writeLiveState(w, live)
	}
}

// StopLiveHandler stops the live camera session and releases the camera.
func StopLiveHandler(live *session.LiveController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := live.Stop(); err != nil {
			logger.Error("Failed to stop live session: %v", err)
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		writeLiveState(w, live)
	}
}

// LiveStateHandler reports the live session state.
func LiveStateHandler(live *session.LiveController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeLiveState(w, live)
	}
}

func writeLiveState(w http.ResponseWriter, live *session.LiveController) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"state": string(live.State())})
}
