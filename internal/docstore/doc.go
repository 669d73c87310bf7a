// Package docstore stores admin registries, collections and albums as JSON documents on a
// shared filesystem.
//
// Every mutation goes through [Update], which holds the document's lock marker for the whole
// read-decode-mutate-encode-write cycle and replaces the file atomically. Updates on the same
// path are serialized across goroutines, processes and hosts; updates on different paths run
// concurrently. Documents are created whole with [Create] and removed with [Delete].
//
// Data root layout:
//
//	admin/<key>.json      admin registries
//	albums/<key>.json     albums and collections
//	images/               canonical media files
//	thumbs/               square thumbnails
//	originals/            retained source files (HEIC)
//	tmp/                  scratch space for uploads, frames and conversions
package docstore
