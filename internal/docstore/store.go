package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"photo-share/internal/apperr"
	"photo-share/internal/filesystem"
	"photo-share/internal/logging"
)

// Directory names under the data root.
const (
	AdminDir     = "admin"
	AlbumsDir    = "albums"
	ImagesDir    = "images"
	ThumbsDir    = "thumbs"
	OriginalsDir = "originals"
	TmpDir       = "tmp"
)

const filePerm = 0o644

// Observer records document store metrics.
type Observer interface {
	// ObserveDocumentOp records one store operation. op is create|read|update|delete,
	// status is success or the apperr kind of the failure.
	ObserveDocumentOp(op, status string, seconds float64)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

func record(op string, start time.Time, err error) {
	h := defaultObserver.Load()
	if h == nil || h.o == nil {
		return
	}
	status := "success"
	if err != nil {
		status = string(apperr.KindOf(err))
	}
	h.o.ObserveDocumentOp(op, status, time.Since(start).Seconds())
}

// Store reads and writes JSON documents under a data root.
type Store struct {
	root  string
	lock  filesystem.LockConfig
	retry filesystem.RetryConfig
}

// New returns a Store rooted at root.
func New(root string, lock filesystem.LockConfig) *Store {
	return &Store{
		root:  root,
		lock:  lock,
		retry: filesystem.DefaultRetryConfig(),
	}
}

// EnsureLayout creates the data directories.
func (s *Store) EnsureLayout() error {
	for _, dir := range []string{AdminDir, AlbumsDir, ImagesDir, ThumbsDir, OriginalsDir, TmpDir} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Root returns the data root.
func (s *Store) Root() string { return s.root }

// AdminPath returns the document path of an admin registry.
func (s *Store) AdminPath(key string) string {
	return filepath.Join(s.root, AdminDir, key+".json")
}

// AlbumPath returns the document path of an album or collection.
func (s *Store) AlbumPath(key string) string {
	return filepath.Join(s.root, AlbumsDir, key+".json")
}

// Dir returns the absolute path of one of the data directories.
func (s *Store) Dir(name string) string {
	return filepath.Join(s.root, name)
}

// Update runs one read-modify-write cycle on the document at path while holding its lock.
// mutate receives the decoded document and may change it in place; whatever it leaves is
// written back. If any step fails, including mutate, nothing is written.
//
// mutate must not call Update on the same path: locks are not re-entrant.
func Update[T any, R any](ctx context.Context, s *Store, path string, mutate func(*T) (R, error)) (result R, err error) {
	const op = "update document"
	start := time.Now()
	defer func() { record("update", start, err) }()

	lock, err := filesystem.AcquireLock(ctx, path, s.lock)
	if err != nil {
		return result, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logging.Error("Failed to release lock for %s: %v", path, rerr)
		}
	}()

	doc, err := readDocument[T](path, s.retry)
	if err != nil {
		return result, err
	}

	result, err = mutate(doc)
	if err != nil {
		return result, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return result, apperr.E(apperr.Internal, op, fmt.Errorf("encode %s: %w", path, err))
	}
	if err := filesystem.WriteFileAtomic(path, data, filePerm); err != nil {
		return result, apperr.E(apperr.Internal, op, err)
	}
	return result, nil
}

// Create writes a new document at path. It fails if the document already exists.
func Create(ctx context.Context, s *Store, path string, doc any) (err error) {
	const op = "create document"
	start := time.Now()
	defer func() { record("create", start, err) }()

	data, err := json.Marshal(doc)
	if err != nil {
		return apperr.E(apperr.Internal, op, fmt.Errorf("encode %s: %w", path, err))
	}

	lock, err := filesystem.AcquireLock(ctx, path, s.lock)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logging.Error("Failed to release lock for %s: %v", path, rerr)
		}
	}()

	if _, statErr := os.Stat(path); statErr == nil {
		return apperr.Errorf(apperr.Internal, op, "%s already exists", path)
	}
	if err := filesystem.WriteFileAtomic(path, data, filePerm); err != nil {
		return apperr.E(apperr.Internal, op, err)
	}
	return nil
}

// Read decodes the document at path without locking. Writers replace documents by rename,
// so a reader always sees a complete version.
func Read[T any](s *Store, path string) (doc *T, err error) {
	start := time.Now()
	defer func() { record("read", start, err) }()
	return readDocument[T](path, s.retry)
}

// Delete unlinks the document at path while holding its lock.
func Delete(ctx context.Context, s *Store, path string) (err error) {
	const op = "delete document"
	start := time.Now()
	defer func() { record("delete", start, err) }()

	lock, err := filesystem.AcquireLock(ctx, path, s.lock)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logging.Error("Failed to release lock for %s: %v", path, rerr)
		}
	}()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.E(apperr.DocumentNotFound, op, err)
		}
		return apperr.E(apperr.Internal, op, err)
	}
	return nil
}

func readDocument[T any](path string, retry filesystem.RetryConfig) (*T, error) {
	const op = "read document"
	data, err := filesystem.ReadFileWithRetry(path, retry)
	if err != nil {
		return nil, apperr.E(apperr.DocumentNotFound, op, err)
	}
	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, apperr.E(apperr.DocumentCorrupt, op, fmt.Errorf("%s: %w", path, err))
	}
	return doc, nil
}
