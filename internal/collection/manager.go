package collection

import (
	"context"
	"errors"
	"sync"

	"photo-share/internal/apperr"
	"photo-share/internal/docstore"
	"photo-share/internal/keys"
	"photo-share/internal/logging"
)

// deletedAlbumSuffix names a collection's deleted album after the collection.
const deletedAlbumSuffix = " (deleted)"

// ChangeType identifies an album mutation.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeRemove ChangeType = "remove"
)

// Change describes one successful album mutation.
type Change struct {
	Type     ChangeType
	AlbumKey string
	Record   docstore.MediaRecord
}

// Manager performs collection and album operations on a document store.
type Manager struct {
	store *docstore.Store

	mu        sync.RWMutex
	listeners []func(Change)
}

// NewManager creates a Manager.
func NewManager(store *docstore.Store) *Manager {
	return &Manager{store: store}
}

// Store returns the underlying document store.
func (m *Manager) Store() *docstore.Store { return m.store }

// OnChange registers fn to be called after every successful album mutation. Callbacks run
// synchronously on the mutating goroutine, after the document lock has been released.
func (m *Manager) OnChange(fn func(Change)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) notify(c Change) {
	m.mu.RLock()
	listeners := m.listeners
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn(c)
	}
}

func validKey(op, key string) error {
	if !keys.Valid(key) {
		return apperr.Errorf(apperr.InvalidRequest, op, "invalid key %q", key)
	}
	return nil
}

// CreateAdmin creates an empty admin registry and returns its key.
func (m *Manager) CreateAdmin(ctx context.Context) (string, error) {
	key := keys.New()
	admin := docstore.Admin{Type: docstore.AdminType, Collections: []string{}}
	if err := docstore.Create(ctx, m.store, m.store.AdminPath(key), &admin); err != nil {
		return "", err
	}
	logging.Info("Created admin registry %s", key)
	return key, nil
}

// Admin loads the registry for adminKey. A document whose type is not "admin" is reported
// as not found.
func (m *Manager) Admin(adminKey string) (*docstore.Admin, error) {
	const op = "load admin"
	if err := validKey(op, adminKey); err != nil {
		return nil, err
	}
	admin, err := docstore.Read[docstore.Admin](m.store, m.store.AdminPath(adminKey))
	if err != nil {
		return nil, err
	}
	if admin.Type != docstore.AdminType {
		return nil, apperr.Errorf(apperr.DocumentNotFound, op, "%s is not an admin registry", adminKey)
	}
	return admin, nil
}

// Collection loads the collection document for key.
func (m *Manager) Collection(key string) (*docstore.Collection, error) {
	const op = "load collection"
	if err := validKey(op, key); err != nil {
		return nil, err
	}
	coll, err := docstore.Read[docstore.Collection](m.store, m.store.AlbumPath(key))
	if err != nil {
		return nil, err
	}
	if coll.Main == "" {
		return nil, apperr.Errorf(apperr.InvalidRequest, op, "%s is an album, not a collection", key)
	}
	return coll, nil
}

// Album loads the album document for key.
func (m *Manager) Album(key string) (*docstore.Album, error) {
	if err := validKey("load album", key); err != nil {
		return nil, err
	}
	return docstore.Read[docstore.Album](m.store, m.store.AlbumPath(key))
}

// CreateCollection creates the main and deleted albums and the collection document, then
// appends the collection to the admin registry. Only the last step is locked against other
// registry writers.
func (m *Manager) CreateCollection(ctx context.Context, adminKey, name string) (string, error) {
	const op = "create collection"
	if name == "" {
		return "", apperr.Errorf(apperr.InvalidRequest, op, "name is required")
	}
	if _, err := m.Admin(adminKey); err != nil {
		return "", err
	}

	mainKey, err := m.createAlbum(ctx, name)
	if err != nil {
		return "", err
	}
	deletedKey, err := m.createAlbum(ctx, name+deletedAlbumSuffix)
	if err != nil {
		return "", err
	}

	collKey := keys.New()
	coll := docstore.Collection{Name: name, Main: mainKey, Deleted: deletedKey, Albums: []string{}}
	if err := docstore.Create(ctx, m.store, m.store.AlbumPath(collKey), &coll); err != nil {
		return "", err
	}

	_, err = docstore.Update(ctx, m.store, m.store.AdminPath(adminKey), func(a *docstore.Admin) (struct{}, error) {
		if a.Type != docstore.AdminType {
			return struct{}{}, apperr.Errorf(apperr.DocumentNotFound, op, "%s is not an admin registry", adminKey)
		}
		a.Collections = append(a.Collections, collKey)
		return struct{}{}, nil
	})
	if err != nil {
		return "", err
	}

	logging.Info("Created collection %q (%s) main=%s deleted=%s", name, collKey, mainKey, deletedKey)
	return collKey, nil
}

// DeleteCollection unregisters collKey from the admin registry and then deletes the
// collection document and every album it references.
func (m *Manager) DeleteCollection(ctx context.Context, adminKey, collKey string) error {
	const op = "delete collection"
	if err := validKey(op, adminKey); err != nil {
		return err
	}
	if err := validKey(op, collKey); err != nil {
		return err
	}

	_, err := docstore.Update(ctx, m.store, m.store.AdminPath(adminKey), func(a *docstore.Admin) (struct{}, error) {
		if a.Type != docstore.AdminType {
			return struct{}{}, apperr.Errorf(apperr.DocumentNotFound, op, "%s is not an admin registry", adminKey)
		}
		if !a.RemoveCollection(collKey) {
			return struct{}{}, apperr.Errorf(apperr.InvalidRequest, op, "collection %s is not registered", collKey)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	coll, err := docstore.Read[docstore.Collection](m.store, m.store.AlbumPath(collKey))
	if err != nil {
		return err
	}

	albums := append([]string{coll.Main, coll.Deleted}, coll.Albums...)
	for _, key := range albums {
		if key == "" {
			continue
		}
		if err := docstore.Delete(ctx, m.store, m.store.AlbumPath(key)); err != nil {
			if errors.Is(err, apperr.ErrDocumentNotFound) {
				logging.Warn("Album %s of collection %s was already gone", key, collKey)
				continue
			}
			return err
		}
	}
	if err := docstore.Delete(ctx, m.store, m.store.AlbumPath(collKey)); err != nil {
		return err
	}

	logging.Info("Deleted collection %s and %d albums", collKey, len(albums))
	return nil
}

// CreateAlbum creates an auxiliary album and appends it to the collection.
func (m *Manager) CreateAlbum(ctx context.Context, collKey, name string) (string, error) {
	const op = "create album"
	if name == "" {
		return "", apperr.Errorf(apperr.InvalidRequest, op, "name is required")
	}
	if _, err := m.Collection(collKey); err != nil {
		return "", err
	}

	albumKey, err := m.createAlbum(ctx, name)
	if err != nil {
		return "", err
	}
	_, err = docstore.Update(ctx, m.store, m.store.AlbumPath(collKey), func(c *docstore.Collection) (struct{}, error) {
		c.Albums = append(c.Albums, albumKey)
		return struct{}{}, nil
	})
	if err != nil {
		return "", err
	}
	return albumKey, nil
}

func (m *Manager) createAlbum(ctx context.Context, name string) (string, error) {
	key := keys.New()
	album := docstore.Album{Name: name, Objects: []docstore.MediaRecord{}}
	if err := docstore.Create(ctx, m.store, m.store.AlbumPath(key), &album); err != nil {
		return "", err
	}
	return key, nil
}

// ResolveAlbum maps an album or collection key to the album uploads go to: the key itself
// for an album, the main album for a collection.
func (m *Manager) ResolveAlbum(ctx context.Context, key string) (string, error) {
	if err := validKey("resolve album", key); err != nil {
		return "", err
	}
	coll, err := docstore.Read[docstore.Collection](m.store, m.store.AlbumPath(key))
	if err != nil {
		return "", err
	}
	if coll.Main != "" {
		return coll.Main, nil
	}
	return key, nil
}

// Append adds rec to the end of the album.
func (m *Manager) Append(ctx context.Context, albumKey string, rec docstore.MediaRecord) error {
	if err := validKey("append record", albumKey); err != nil {
		return err
	}
	_, err := docstore.Update(ctx, m.store, m.store.AlbumPath(albumKey), func(a *docstore.Album) (struct{}, error) {
		a.Objects = append(a.Objects, rec)
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}
	m.notify(Change{Type: ChangeAdd, AlbumKey: albumKey, Record: rec})
	return nil
}

// SoftDelete removes the record named file from albumKey, which must belong to the
// collection; an empty albumKey means the main album. Records removed from the main album
// are then appended to the deleted album, as a second atomic update. Records removed from
// any other album are dropped.
func (m *Manager) SoftDelete(ctx context.Context, collKey, albumKey, file string) (*docstore.MediaRecord, error) {
	const op = "soft delete"
	if file == "" {
		return nil, apperr.Errorf(apperr.InvalidRequest, op, "file is required")
	}
	coll, err := m.Collection(collKey)
	if err != nil {
		return nil, err
	}
	if albumKey == "" {
		albumKey = coll.Main
	}
	if !belongsTo(coll, albumKey) {
		return nil, apperr.Errorf(apperr.InvalidRequest, op, "album %s is not part of collection %s", albumKey, collKey)
	}

	rec, err := docstore.Update(ctx, m.store, m.store.AlbumPath(albumKey), func(a *docstore.Album) (docstore.MediaRecord, error) {
		rec, ok := a.Remove(file)
		if !ok {
			return rec, apperr.Errorf(apperr.DocumentNotFound, op, "no object %q in album %s", file, albumKey)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	m.notify(Change{Type: ChangeRemove, AlbumKey: albumKey, Record: rec})

	if albumKey != coll.Main {
		return &rec, nil
	}
	if err := m.Append(ctx, coll.Deleted, rec); err != nil {
		logging.Error("Record %s removed from %s but not added to deleted album %s: %v",
			rec.File, albumKey, coll.Deleted, err)
		return nil, err
	}
	return &rec, nil
}

func belongsTo(coll *docstore.Collection, albumKey string) bool {
	if albumKey == coll.Main || albumKey == coll.Deleted {
		return true
	}
	for _, k := range coll.Albums {
		if k == albumKey {
			return true
		}
	}
	return false
}

// Summary describes one registered collection.
type Summary struct {
	Key     string
	Name    string
	Main    string
	Deleted string
	Albums  int
	Objects int
	Missing bool
}

// List summarises the collections registered with adminKey. Collections whose document
// cannot be read are reported with Missing set.
func (m *Manager) List(adminKey string) ([]Summary, error) {
	admin, err := m.Admin(adminKey)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(admin.Collections))
	for _, key := range admin.Collections {
		s := Summary{Key: key}
		coll, err := docstore.Read[docstore.Collection](m.store, m.store.AlbumPath(key))
		if err != nil {
			s.Missing = true
			out = append(out, s)
			continue
		}
		s.Name, s.Main, s.Deleted, s.Albums = coll.Name, coll.Main, coll.Deleted, len(coll.Albums)
		if main, err := docstore.Read[docstore.Album](m.store, m.store.AlbumPath(coll.Main)); err == nil {
			s.Objects = len(main.Objects)
		}
		out = append(out, s)
	}
	return out, nil
}
