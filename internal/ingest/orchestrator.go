package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/collection"
	"photo-share/internal/docstore"
	"photo-share/internal/keys"
	"photo-share/internal/logging"
	"photo-share/internal/media"
	"photo-share/internal/mediatypes"
)

// Processor stores one classified upload and builds its record.
type Processor interface {
	Process(ctx context.Context, src media.Source, kind mediatypes.Kind, tr media.Tracker) (*docstore.MediaRecord, error)
}

// Request is one upload.
type Request struct {
	// Body is the uploaded content.
	Body io.Reader
	// Name is the client's file name, stored as the record title.
	Name string
	// Key is an album key or a collection key; collections resolve to their main album.
	Key string
	// Hash is the client's content fingerprint, stored unverified.
	Hash string
}

// Observer records ingest metrics.
type Observer interface {
	ObserveIngest(kind, status string, seconds float64)
	ObserveCleanup(removed, failed int)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.o
	}
	return nil
}

// Gate holds uploads back while the process is short of resources.
type Gate interface {
	Wait(ctx context.Context) error
}

// Orchestrator runs uploads through classification, processing and the album append.
type Orchestrator struct {
	albums *collection.Manager
	tmpDir string
	images Processor
	videos Processor
	gate   Gate
}

// New creates an Orchestrator. Uploads are spilled to tmpDir.
func New(albums *collection.Manager, tmpDir string, images, videos Processor) *Orchestrator {
	return &Orchestrator{albums: albums, tmpDir: tmpDir, images: images, videos: videos}
}

// SetGate makes every upload wait on g before it is read.
func (o *Orchestrator) SetGate(g Gate) {
	o.gate = g
}

// WaitForCapacity blocks while the gate holds uploads back. Callers that stream an upload
// from a request should call it before reading the request body; Ingest calls it again
// before it reads Request.Body.
func (o *Orchestrator) WaitForCapacity(ctx context.Context) error {
	if o.gate == nil {
		return nil
	}
	if err := o.gate.Wait(ctx); err != nil {
		return apperr.E(apperr.Internal, "ingest", fmt.Errorf("waiting for memory: %w", err))
	}
	return nil
}

// Ingest stores req and appends its record to the target album. On failure every file
// written during the attempt has been removed and no record exists.
func (o *Orchestrator) Ingest(ctx context.Context, req Request) (rec *docstore.MediaRecord, err error) {
	start := time.Now()
	kind := mediatypes.KindUnknown
	tr := &tracker{}

	defer func() {
		if err != nil {
			removed, failed := tr.cleanup()
			if ob := observe(); ob != nil {
				ob.ObserveCleanup(removed, failed)
			}
			logging.Warn("Ingest of %q failed after %v (%d files removed): %v",
				req.Name, time.Since(start).Round(time.Millisecond), removed, err)
		}
		if ob := observe(); ob != nil {
			status := "success"
			if err != nil {
				status = string(apperr.KindOf(err))
			}
			ob.ObserveIngest(kind.String(), status, time.Since(start).Seconds())
		}
	}()

	if req.Body == nil {
		return nil, apperr.Errorf(apperr.InvalidRequest, "ingest", "no file content")
	}

	albumKey, err := o.albums.ResolveAlbum(ctx, req.Key)
	if err != nil {
		return nil, err
	}

	if err := o.WaitForCapacity(ctx); err != nil {
		return nil, err
	}

	src, kind, err := o.spill(req, tr)
	if err != nil {
		return nil, err
	}
	logging.Debug("Ingest %q as %s (name suggests %s) into album %s",
		req.Name, kind, mediatypes.HintFromName(req.Name), albumKey)

	var p Processor
	switch {
	case kind.IsImage():
		p = o.images
	case kind.IsVideo():
		p = o.videos
	}
	if p == nil {
		return nil, apperr.Errorf(apperr.UnknownType, "ingest", "no processor for %s", kind)
	}

	rec, err = p.Process(ctx, src, kind, tr)
	if err != nil {
		return nil, err
	}
	rec.Title = req.Name
	rec.Hash = req.Hash

	if err := o.albums.Append(ctx, albumKey, *rec); err != nil {
		return nil, err
	}

	logging.Info("Ingested %q as %s into album %s in %v",
		req.Name, rec.File, albumKey, time.Since(start).Round(time.Millisecond))
	return rec, nil
}

// spill writes the body to a tmp file while keeping its leading bytes for classification.
func (o *Orchestrator) spill(req Request, tr *tracker) (media.Source, mediatypes.Kind, error) {
	const op = "spill upload"

	head := make([]byte, mediatypes.PrefixLen)
	n, err := io.ReadFull(req.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return media.Source{}, "", apperr.E(apperr.InvalidRequest, op, fmt.Errorf("read upload: %w", err))
	}
	head = head[:n]

	kind, err := mediatypes.Classify(head)
	if err != nil {
		return media.Source{}, "", err
	}

	key := keys.New()
	path := filepath.Join(o.tmpDir, key+".upload")
	tr.Track(path)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return media.Source{}, "", apperr.E(apperr.Internal, op, err)
	}
	if _, err := f.Write(head); err != nil {
		f.Close()
		return media.Source{}, "", apperr.E(apperr.Internal, op, err)
	}
	if _, err := io.Copy(f, req.Body); err != nil {
		f.Close()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return media.Source{}, "", apperr.E(apperr.InvalidRequest, op, err)
		}
		return media.Source{}, "", apperr.E(apperr.Internal, op, fmt.Errorf("write upload: %w", err))
	}
	if err := f.Close(); err != nil {
		return media.Source{}, "", apperr.E(apperr.Internal, op, err)
	}

	return media.Source{Path: path, Name: req.Name, Key: key}, kind, nil
}
