// Package collection manages the document graph: the admin registry, collections, and the
// albums they reference.
//
// A collection owns a main album (live items), a deleted album (soft-deleted items) and any
// number of auxiliary albums. Collections and albums share the albums/ namespace, so any key
// can be loaded and a collection recognised by its non-empty Main field.
//
// Multi-document operations are sequences of single-document atomic updates, not
// transactions. [Manager.CreateCollection] writes its albums before registering the
// collection, so a crash leaves only unreferenced documents behind. [Manager.SoftDelete]
// removes before it appends, so a crash can lose the record but never duplicates it.
//
// Successful album mutations are reported to callbacks registered with [Manager.OnChange].
package collection
