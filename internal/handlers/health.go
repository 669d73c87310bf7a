package handlers

import (
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	statusDown     = "down"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Uploads are held back while memory usage is critical
	UploadsPaused bool    `json:"uploadsPaused"`
	MemoryUsage   float64 `json:"memoryUsage,omitempty"`
	Error         string  `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// ready reports whether the data directory is reachable.
func (h *Handlers) ready() error {
	root := h.albums.Store().Root()
	for _, dir := range []string{docstore.AdminDir, docstore.AlbumsDir, docstore.ImagesDir} {
		if _, err := filesystem.StatWithRetry(filepath.Join(root, dir), filesystem.DefaultRetryConfig()); err != nil {
			return err
		}
	}
	return nil
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if h.memory != nil {
		response.UploadsPaused = h.memory.Paused()
		response.MemoryUsage = h.memory.Usage()
		if response.UploadsPaused {
			response.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if err := h.ready(); err != nil {
		response.Status = statusDown
		response.Ready = false
		response.Error = err.Error()
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONStatus(w, statusCode, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the data directory can be reached
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if err := h.ready(); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
