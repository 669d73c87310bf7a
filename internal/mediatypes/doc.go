// Package mediatypes classifies uploaded content by its binary signature.
//
// Clients routinely send files whose extension or MIME type is wrong (a ".heic" that is
// really a JPEG), so [Classify] looks only at the leading bytes:
//
//	kind, err := mediatypes.Classify(data[:mediatypes.PrefixLen])
//	if errors.Is(err, apperr.ErrUnknownType) {
//	    // reject the upload
//	}
//
// JPEG is recognised by its SOI marker followed by a DQT, APP0, APP14 or APP1 segment.
// HEIC, MP4 and QuickTime are recognised by the major brand of the ISO base media "ftyp" box
// at offset 4.
//
// The package has no dependencies beyond apperr so any package can import it.
package mediatypes
