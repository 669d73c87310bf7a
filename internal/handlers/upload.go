package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"photo-share/internal/apperr"
	"photo-share/internal/ingest"
	"photo-share/internal/logging"
)

// maxFieldBytes bounds each text field of an upload form.
const maxFieldBytes = 4 << 10

// fileFields are the accepted names of the upload's file part.
var fileFields = []string{"file", "image"}

// Upload ingests one multipart file into an album or a collection's main album.
//
// Form fields: file (or image), key (or galleryKey), hash. The form is streamed: text fields
// must come before the file part, as browsers send FormData fields in append order. Nothing
// is read from the body until the memory gate lets the upload through.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "upload"

	if err := h.ingest.WaitForCapacity(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, apperr.E(apperr.InvalidRequest, op, fmt.Errorf("invalid multipart form: %w", err)))
		return
	}

	part, fields, err := nextFilePart(mr)
	if err != nil {
		writeError(w, r, apperr.E(apperr.InvalidRequest, op, err))
		return
	}
	defer func() {
		if err := part.Close(); err != nil {
			logging.Debug("Failed to close upload part: %v", err)
		}
	}()

	key := fields["key"]
	if key == "" {
		key = fields["galleryKey"]
	}

	rec, err := h.ingest.Ingest(r.Context(), ingest.Request{
		Body: part,
		Name: part.FileName(),
		Key:  key,
		Hash: fields["hash"],
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, rec)
}

// nextFilePart reads text fields until it reaches the file part, which it returns unread
// together with the fields seen so far. Other file parts are skipped.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, map[string]string, error) {
	fields := make(map[string]string)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("missing file field %q", fileFields[0])
		}
		if err != nil {
			return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
		}

		name := part.FormName()
		if isFileField(name) {
			return part, fields, nil
		}
		if part.FileName() != "" {
			part.Close()
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
		part.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read field %q: %w", name, err)
		}
		if len(value) > maxFieldBytes {
			return nil, nil, fmt.Errorf("field %q exceeds %d bytes", name, maxFieldBytes)
		}
		if _, seen := fields[name]; !seen {
			fields[name] = string(value)
		}
	}
}

func isFileField(name string) bool {
	for _, f := range fileFields {
		if name == f {
			return true
		}
	}
	return false
}
