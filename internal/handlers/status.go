package handlers

import (
	"encoding/json"
	"net/http"

	"ppestation/internal/session"
)

// StatusHandler reports the shared verdict/overlay read model together
// with both session states.
func StatusHandler(status *session.Status, live *session.LiveController, upload *session.UploadController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := struct {
			Live    session.LiveState   `json:"liveState"`
			Upload  session.UploadState `json:"uploadState"`
			Current session.Update      `json:"current"`
		}{
			Live:    live.State(),
			Upload:  upload.State(),
			Current: status.Get(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
