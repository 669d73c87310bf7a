package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"photo-share/internal/docstore"
)

// RegisterRoutes adds the API, health and file routes to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Health check endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/createCollection", h.CreateCollection).Methods("POST")
	api.HandleFunc("/deleteCollection", h.DeleteCollection).Methods("POST")
	api.HandleFunc("/createAlbum", h.CreateAlbum).Methods("POST")
	api.HandleFunc("/deleteObject", h.DeleteObject).Methods("POST")

	r.HandleFunc("/albums/{key}.json", h.GetAlbum).Methods("GET")

	store := h.albums.Store()
	for _, dir := range []string{docstore.ImagesDir, docstore.ThumbsDir, docstore.OriginalsDir} {
		prefix := "/" + dir + "/"
		r.PathPrefix(prefix).Handler(Static(prefix, store.Dir(dir))).Methods(http.MethodGet, http.MethodHead)
	}
}
