package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"photo-share/internal/apperr"
	"photo-share/internal/filesystem"
	"photo-share/internal/keys"
	"photo-share/internal/logging"
)

type createCollectionRequest struct {
	AdminKey string `json:"adminKey"`
	Name     string `json:"name"`
}

type deleteCollectionRequest struct {
	AdminKey      string `json:"adminKey"`
	CollectionKey string `json:"collectionKey"`
}

type createAlbumRequest struct {
	CollectionKey string `json:"collectionKey"`
	Name          string `json:"name"`
}

type deleteObjectRequest struct {
	CollectionKey string `json:"collectionKey"`
	AlbumKey      string `json:"albumKey"`
	File          string `json:"file"`
}

// CreateCollection creates a collection with its main and deleted albums.
func (h *Handlers) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	key, err := h.albums.CreateCollection(r.Context(), req.AdminKey, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]string{"collectionKey": key})
}

// DeleteCollection removes a collection registered with the admin.
func (h *Handlers) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	var req deleteCollectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.albums.DeleteCollection(r.Context(), req.AdminKey, req.CollectionKey); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CreateAlbum adds an auxiliary album to a collection.
func (h *Handlers) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req createAlbumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	key, err := h.albums.CreateAlbum(r.Context(), req.CollectionKey, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]string{"albumKey": key})
}

// DeleteObject soft-deletes a file. Without albumKey the collection's main album is used.
func (h *Handlers) DeleteObject(w http.ResponseWriter, r *http.Request) {
	var req deleteObjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.albums.SoftDelete(r.Context(), req.CollectionKey, req.AlbumKey, req.File)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, rec)
}

// GetAlbum serves the stored JSON of an album or collection. Clients tell them apart by
// the collection's "main" field.
func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	const op = "get album"

	key := mux.Vars(r)["key"]
	if !keys.Valid(key) {
		writeError(w, r, apperr.Errorf(apperr.InvalidRequest, op, "malformed key %q", key))
		return
	}

	data, err := filesystem.ReadFileWithRetry(h.albums.Store().AlbumPath(key), filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, r, apperr.Errorf(apperr.DocumentNotFound, op, "no album %s", key))
			return
		}
		writeError(w, r, apperr.E(apperr.Internal, op, err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		logging.Debug("%s %s: write: %v", r.Method, r.URL.Path, err)
	}
}
