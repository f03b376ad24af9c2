package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port                  int
	Password              string
	DetectServiceURL      string // Base URL of the remote inference service
	SampleIntervalMs      int    // Live sampler cadence in milliseconds
	CameraDevice          int    // Capture device index for the live camera
	SnapshotDirectory     string
	SnapshotBufferLimit   int
	SnapshotFlushInterval int // Seconds between snapshot buffer flushes
	DatabasePath          string
	LogDirectory          string
}

func Load() *Config {
	return &Config{
		Port:                  getEnvAsInt("PORT", 8080),
		Password:              getEnv("PASSWORD", "zmiennahelm1"),
		DetectServiceURL:      getEnv("DETECT_SERVICE_URL", "http://localhost:8000"),
		SampleIntervalMs:      getEnvAsInt("SAMPLE_INTERVAL_MS", 1000),
		CameraDevice:          getEnvAsInt("CAMERA_DEVICE", 0),
		SnapshotDirectory:     getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotBufferLimit:   getEnvAsInt("SNAPSHOT_BUFFER_LIMIT", 7),
		SnapshotFlushInterval: getEnvAsInt("SNAPSHOT_FLUSH_INTERVAL", 30),
		DatabasePath:          getEnv("DB_PATH", filepath.Join(".", "snapshots.db")),
		LogDirectory:          getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
