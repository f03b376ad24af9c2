package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"ppestation/internal/config"
	"ppestation/internal/handlers"
	"ppestation/internal/history"
	"ppestation/internal/logger"
	"ppestation/internal/middleware"
	"ppestation/internal/repository"
	websocketsvc "ppestation/internal/services/websocket"
	"ppestation/internal/session"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Live      *session.LiveController
	Upload    *session.UploadController
	Status    *session.Status
	History   *history.Store
	Fetcher   handlers.HistoryFetcher
	Hub       *websocketsvc.HubService
	Snapshots repository.SnapshotRepository
	Labels    repository.LabelRepository
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists;
// otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", path+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Live session
	mux.HandleFunc("/api/live/start", handlers.StartLiveHandler(d.Live, d.Logger))
	mux.HandleFunc("/api/live/stop", handlers.StopLiveHandler(d.Live, d.Logger))
	mux.HandleFunc("/api/live/state", handlers.LiveStateHandler(d.Live))

	// Upload session
	mux.HandleFunc("/api/upload/select", handlers.SelectUploadHandler(d.Upload, d.Logger))
	mux.HandleFunc("/api/upload/detect", handlers.DetectUploadHandler(d.Upload, d.Logger))
	mux.HandleFunc("/api/upload/clear", handlers.ClearUploadHandler(d.Upload))
	mux.HandleFunc("/api/upload/state", handlers.UploadStateHandler(d.Upload))

	// Shared read models
	mux.HandleFunc("/api/status", handlers.StatusHandler(d.Status, d.Live, d.Upload))
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(d.Hub, d.Logger))

	// Detection history; entries are deleted as DELETE /api/history/{id}
	mux.HandleFunc("/api/history", handlers.GetHistoryHandler(d.Fetcher, d.History, d.Logger))
	mux.HandleFunc("/api/history/", handlers.DeleteHistoryHandler(d.History, d.Logger))

	// Violation snapshot gallery
	mux.HandleFunc("/api/snapshots", handlers.GetSnapshotsHandler(d.Snapshots, d.Labels, d.Logger))
	mux.HandleFunc("/api/snapshots/view", handlers.ViewSnapshotHandler(d.Config))
	mux.HandleFunc("/api/snapshots/delete", handlers.DeleteSnapshotHandler(d.Snapshots, d.Labels, d.Config, d.Logger))
	mux.HandleFunc("/api/snapshots/clear", handlers.ClearSnapshotsHandler(d.Snapshots, d.Config, d.Logger))
	mux.HandleFunc("/api/snapshots/filters", handlers.GetSnapshotFiltersHandler(d.Labels, d.Logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(d.Config))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(d.Config))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(d.Config))

	mux.HandleFunc("/logs/info/clear", handlers.ClearInfoLogsHandler(d.Logger))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearWarningLogsHandler(d.Logger))
	mux.HandleFunc("/logs/error/clear", handlers.ClearErrorLogsHandler(d.Logger))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(d.Config, d.Logger))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	// Automatic HTML handler mapping for example: /history -> /static/history.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}
