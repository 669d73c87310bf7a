package collection

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"photo-share/internal/apperr"
	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/keys"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store := docstore.New(t.TempDir(), filesystem.DefaultLockConfig())
	if err := store.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	return NewManager(store)
}

func newCollection(t *testing.T, m *Manager) (adminKey, collKey string) {
	t.Helper()
	ctx := context.Background()
	adminKey, err := m.CreateAdmin(ctx)
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	collKey, err = m.CreateCollection(ctx, adminKey, "Holidays")
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	return adminKey, collKey
}

func record(file string) docstore.MediaRecord {
	return docstore.MediaRecord{
		File:     file,
		Thumb:    "t" + file,
		Date:     docstore.SentinelDate,
		Location: docstore.UnknownLocation,
	}
}

func TestCreateCollection(t *testing.T) {
	m := newTestManager(t)
	adminKey, collKey := newCollection(t, m)

	admin, err := m.Admin(adminKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(admin.Collections) != 1 || admin.Collections[0] != collKey {
		t.Errorf("registry = %v, want [%s]", admin.Collections, collKey)
	}

	coll, err := m.Collection(collKey)
	if err != nil {
		t.Fatal(err)
	}
	if coll.Name != "Holidays" || coll.Main == coll.Deleted {
		t.Errorf("collection = %+v", coll)
	}
	for _, key := range []string{coll.Main, coll.Deleted} {
		album, err := m.Album(key)
		if err != nil {
			t.Fatalf("album %s: %v", key, err)
		}
		if album.Objects == nil || len(album.Objects) != 0 {
			t.Errorf("album %s objects = %v, want empty list", key, album.Objects)
		}
	}
}

func TestCreateCollectionErrors(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	adminKey, collKey := newCollection(t, m)

	tests := []struct {
		name     string
		adminKey string
		collName string
		want     error
	}{
		{name: "empty name", adminKey: adminKey, collName: "", want: apperr.ErrInvalidRequest},
		{name: "malformed key", adminKey: "../admin", collName: "x", want: apperr.ErrInvalidRequest},
		{name: "unknown admin", adminKey: keys.New(), collName: "x", want: apperr.ErrDocumentNotFound},
		{name: "collection key as admin", adminKey: collKey, collName: "x", want: apperr.ErrDocumentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.CreateCollection(ctx, tt.adminKey, tt.collName); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConcurrentCreateCollectionKeepsAllKeys(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	adminKey, err := m.CreateAdmin(ctx)
	if err != nil {
		t.Fatal(err)
	}

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.CreateCollection(ctx, adminKey, "c"); err != nil {
				t.Errorf("CreateCollection: %v", err)
			}
		}()
	}
	wg.Wait()

	admin, err := m.Admin(adminKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(admin.Collections) != n {
		t.Errorf("registry has %d collections, want %d", len(admin.Collections), n)
	}
}

func TestDeleteCollection(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	adminKey, collKey := newCollection(t, m)
	auxKey, err := m.CreateAlbum(ctx, collKey, "Best of")
	if err != nil {
		t.Fatal(err)
	}
	coll, err := m.Collection(collKey)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.DeleteCollection(ctx, adminKey, collKey); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}

	admin, err := m.Admin(adminKey)
	if err != nil {
		t.Fatal(err)
	}
	if admin.HasCollection(collKey) {
		t.Error("collection still registered")
	}
	for _, key := range []string{collKey, coll.Main, coll.Deleted, auxKey} {
		if _, err := os.Stat(m.Store().AlbumPath(key)); !os.IsNotExist(err) {
			t.Errorf("document %s still present", key)
		}
	}

	if err := m.DeleteCollection(ctx, adminKey, collKey); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("second delete err = %v, want InvalidRequest", err)
	}
}

func TestDeleteCollectionToleratesMissingAlbum(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	adminKey, collKey := newCollection(t, m)
	coll, err := m.Collection(collKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(m.Store().AlbumPath(coll.Deleted)); err != nil {
		t.Fatal(err)
	}

	if err := m.DeleteCollection(ctx, adminKey, collKey); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if _, err := os.Stat(m.Store().AlbumPath(collKey)); !os.IsNotExist(err) {
		t.Error("collection document still present")
	}
}

func TestResolveAlbum(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, collKey := newCollection(t, m)
	coll, err := m.Collection(collKey)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr error
	}{
		{name: "collection resolves to main", key: collKey, want: coll.Main},
		{name: "album resolves to itself", key: coll.Deleted, want: coll.Deleted},
		{name: "unknown key", key: keys.New(), wantErr: apperr.ErrDocumentNotFound},
		{name: "malformed key", key: "abc", wantErr: apperr.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveAlbum(ctx, tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ResolveAlbum = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSoftDeleteMovesFromMain(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, collKey := newCollection(t, m)
	coll, _ := m.Collection(collKey)

	for _, f := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if err := m.Append(ctx, coll.Main, record(f)); err != nil {
			t.Fatal(err)
		}
	}

	var changes []Change
	m.OnChange(func(c Change) { changes = append(changes, c) })

	rec, err := m.SoftDelete(ctx, collKey, "", "b.jpg")
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if rec.File != "b.jpg" {
		t.Errorf("removed %q", rec.File)
	}

	main, _ := m.Album(coll.Main)
	deleted, _ := m.Album(coll.Deleted)
	if main.IndexOf("b.jpg") >= 0 || len(main.Objects) != 2 {
		t.Errorf("main = %+v", main.Objects)
	}
	if main.Objects[0].File != "a.jpg" || main.Objects[1].File != "c.jpg" {
		t.Errorf("main order = %s, %s", main.Objects[0].File, main.Objects[1].File)
	}
	if len(deleted.Objects) != 1 || deleted.Objects[0].File != "b.jpg" {
		t.Errorf("deleted = %+v", deleted.Objects)
	}

	want := []Change{
		{Type: ChangeRemove, AlbumKey: coll.Main, Record: record("b.jpg")},
		{Type: ChangeAdd, AlbumKey: coll.Deleted, Record: record("b.jpg")},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %+v", changes)
	}
	for i := range want {
		if changes[i].Type != want[i].Type || changes[i].AlbumKey != want[i].AlbumKey || changes[i].Record.File != want[i].Record.File {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestSoftDeleteFromOtherAlbumsDrops(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, collKey := newCollection(t, m)
	coll, _ := m.Collection(collKey)

	if err := m.Append(ctx, coll.Deleted, record("gone.jpg")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SoftDelete(ctx, collKey, coll.Deleted, "gone.jpg"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	deleted, _ := m.Album(coll.Deleted)
	if len(deleted.Objects) != 0 {
		t.Errorf("deleted album = %+v, want empty", deleted.Objects)
	}
}

func TestSoftDeleteErrors(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	_, collKey := newCollection(t, m)
	_, otherColl := newCollection(t, m)
	other, _ := m.Collection(otherColl)
	coll, _ := m.Collection(collKey)

	tests := []struct {
		name     string
		collKey  string
		albumKey string
		file     string
		want     error
	}{
		{name: "missing file", collKey: collKey, file: "nope.jpg", want: apperr.ErrDocumentNotFound},
		{name: "empty file", collKey: collKey, file: "", want: apperr.ErrInvalidRequest},
		{name: "album of another collection", collKey: collKey, albumKey: other.Main, file: "x.jpg", want: apperr.ErrInvalidRequest},
		{name: "album key as collection", collKey: coll.Main, file: "x.jpg", want: apperr.ErrInvalidRequest},
		{name: "unknown collection", collKey: keys.New(), file: "x.jpg", want: apperr.ErrDocumentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.SoftDelete(ctx, tt.collKey, tt.albumKey, tt.file); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestListCollections(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	adminKey, collKey := newCollection(t, m)
	coll, _ := m.Collection(collKey)
	if err := m.Append(ctx, coll.Main, record("a.jpg")); err != nil {
		t.Fatal(err)
	}

	list, err := m.List(adminKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("List = %+v", list)
	}
	if s := list[0]; s.Key != collKey || s.Name != "Holidays" || s.Objects != 1 || s.Missing {
		t.Errorf("summary = %+v", s)
	}
}
