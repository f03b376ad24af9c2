package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ppestation/internal/logger"
	"ppestation/internal/session"
)

const maxUploadBytes = 32 << 20

// SelectUploadHandler receives the user's file choice for upload detection.
func SelectUploadHandler(upload *session.UploadController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "File field is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("Failed to read uploaded file: %v", err)
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			return
		}

		if err := upload.Select(header.Filename, data); err != nil {
			if errors.Is(err, session.ErrNotImage) {
				http.Error(w, "File must be an image", http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		writeUploadState(w, upload)
	}
}

// DetectUploadHandler runs detection on the selected file.
func DetectUploadHandler(upload *session.UploadController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		update, err := upload.Detect(r.Context())
		if err != nil {
			logger.Error("Upload detection failed: %v", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(update)
	}
}

// ClearUploadHandler drops the current selection and result.
func ClearUploadHandler(upload *session.UploadController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		upload.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadStateHandler reports the upload session state and last result.
func UploadStateHandler(upload *session.UploadController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeUploadState(w, upload)
	}
}

func writeUploadState(w http.ResponseWriter, upload *session.UploadController) {
	response := struct {
		State  session.UploadState `json:"state"`
		Result *session.Update     `json:"result,omitempty"`
	}{
		State:  upload.State(),
		Result: upload.Result(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
