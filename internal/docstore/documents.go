package docstore

import "time"

// AdminType marks an admin registry document.
const AdminType = "admin"

// Admin is the root registry of collection keys. Holding its key grants the right to create
// and delete collections.
type Admin struct {
	Type        string   `json:"type"`
	Collections []string `json:"collections"`
	Extra       Extra    `json:"-"`
}

// Collection groups a main album of live items, a deleted album of soft-deleted items and any
// number of auxiliary albums. Collections live in the albums namespace; a non-empty Main is
// what tells them apart from albums.
type Collection struct {
	Name    string   `json:"name"`
	Main    string   `json:"main"`
	Deleted string   `json:"deleted"`
	Albums  []string `json:"albums"`
	Extra   Extra    `json:"-"`
}

// Album is an ordered list of media records in insertion order.
type Album struct {
	Name    string        `json:"name"`
	Objects []MediaRecord `json:"objects"`
	Extra   Extra         `json:"-"`
}

// MediaRecord describes one ingested photo or video.
type MediaRecord struct {
	File     string    `json:"file"`
	Thumb    string    `json:"thumb"`
	Original string    `json:"original"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Title    string    `json:"title"`
	Hash     string    `json:"hash"`
	Extra    Extra     `json:"-"`
}

// SentinelDate is stored when no capture time could be extracted.
var SentinelDate = time.Unix(0, 0).UTC()

// UnknownLocation is stored when no coordinates were found.
const UnknownLocation = "Unknown location"

// IndexOf returns the position of the record whose File equals file, or -1.
func (a *Album) IndexOf(file string) int {
	for i := range a.Objects {
		if a.Objects[i].File == file {
			return i
		}
	}
	return -1
}

// Remove deletes and returns the record whose File equals file.
func (a *Album) Remove(file string) (MediaRecord, bool) {
	i := a.IndexOf(file)
	if i < 0 {
		return MediaRecord{}, false
	}
	rec := a.Objects[i]
	a.Objects = append(a.Objects[:i], a.Objects[i+1:]...)
	return rec, true
}

// HasCollection reports whether key is listed in the registry.
func (a *Admin) HasCollection(key string) bool {
	for _, k := range a.Collections {
		if k == key {
			return true
		}
	}
	return false
}

// RemoveCollection drops key from the registry and reports whether it was present.
func (a *Admin) RemoveCollection(key string) bool {
	for i, k := range a.Collections {
		if k == key {
			a.Collections = append(a.Collections[:i], a.Collections[i+1:]...)
			return true
		}
	}
	return false
}
