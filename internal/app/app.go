package app

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ppestation/internal/camera"
	"ppestation/internal/compliance"
	"ppestation/internal/config"
	"ppestation/internal/detection"
	"ppestation/internal/history"
	"ppestation/internal/logger"
	"ppestation/internal/repository/sqlite"
	"ppestation/internal/routes"
	websocketsvc "ppestation/internal/services/websocket"
	"ppestation/internal/session"
	"ppestation/internal/storage"
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	buffer  *storage.SnapshotBuffer
	hub     *websocketsvc.HubService
	client  *detection.Client
	status  *session.Status
	history *history.Store
	live    *session.LiveController
	upload  *session.UploadController
	deps    routes.Deps
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	snapshotRepo := sqlite.NewSnapshotRepository(db)
	labelRepo := sqlite.NewLabelRepository(db)
	recorder := storage.NewDBRecorder(snapshotRepo, labelRepo)
	buffer := storage.NewSnapshotBuffer(cfg.SnapshotDirectory, cfg.SnapshotBufferLimit, recorder, log)

	hub := websocketsvc.NewHubService(log)
	client := detection.NewClient(cfg.DetectServiceURL)
	status := session.NewStatus()
	hist := history.NewStore()

	// Every applied detection result goes to the viewers; rejected frames
	// additionally land in the snapshot buffer as evidence.
	publisher := session.PublisherFunc(func(u session.Update) {
		payload, err := json.Marshal(u)
		if err != nil {
			log.Error("Failed to encode status update: %v", err)
		} else {
			hub.Broadcast(payload)
		}

		if u.Verdict != compliance.VerdictRejected || u.Annotated == "" {
			return
		}
		data, err := base64.StdEncoding.DecodeString(u.Annotated)
		if err != nil {
			log.Error("Failed to decode annotated frame: %v", err)
			return
		}
		buffer.Add(storage.Snapshot{
			Timestamp: time.Now(),
			Source:    u.Source,
			Verdict:   string(u.Verdict),
			Labels:    u.Labels,
			Data:      data,
		})
	})

	openSource := func() (session.FrameSource, error) {
		return camera.Open(cfg.CameraDevice)
	}

	interval := time.Duration(cfg.SampleIntervalMs) * time.Millisecond
	live := session.NewLiveController(openSource, client, interval, hist, status, publisher, log)
	upload := session.NewUploadController(client, hist, status, publisher, log)

	return &App{
		config:  cfg,
		logger:  log,
		db:      db,
		buffer:  buffer,
		hub:     hub,
		client:  client,
		status:  status,
		history: hist,
		live:    live,
		upload:  upload,
		deps: routes.Deps{
			Config:    cfg,
			Logger:    log,
			Live:      live,
			Upload:    upload,
			Status:    status,
			History:   hist,
			Fetcher:   client,
			Hub:       hub,
			Snapshots: snapshotRepo,
			Labels:    labelRepo,
		},
	}, nil
}

func (a *App) Run() error {
	// Start background services
	go a.buffer.Run(a.config.SnapshotFlushInterval)
	go a.hub.Run()

	// Release the camera and flush pending snapshots on shutdown
	go a.handleShutdown()

	router := routes.SetupRoutes(a.deps)

	fmt.Printf("🦺 PPE Compliance Station\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🔑 Password: %s\n", a.config.Password)
	fmt.Printf("🤖 Detection service: %s\n", a.config.DetectServiceURL)
	fmt.Printf("📁 Snapshots: %s\n", a.config.SnapshotDirectory)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

func (a *App) handleShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("Shutting down")
	a.live.Shutdown()
	a.upload.Clear()
	a.buffer.Flush()
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
	os.Exit(0)
}
