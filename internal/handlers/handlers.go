package handlers

import (
	"time"

	"photo-share/internal/collection"
	"photo-share/internal/ingest"
	"photo-share/internal/memory"
	"photo-share/internal/startup"
)

// Handlers serves the upload and album management API.
type Handlers struct {
	albums         *collection.Manager
	ingest         *ingest.Orchestrator
	memory         *memory.Monitor
	maxUploadBytes int64
	started        time.Time
}

// New creates the API handlers. mon may be nil.
func New(albums *collection.Manager, orch *ingest.Orchestrator, mon *memory.Monitor, config *startup.Config) *Handlers {
	return &Handlers{
		albums:         albums,
		ingest:         orch,
		memory:         mon,
		maxUploadBytes: config.MaxUploadBytes,
		started:        time.Now(),
	}
}
