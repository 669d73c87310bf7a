// Package ingest turns an upload into a stored asset and a record appended to an album.
//
// [Orchestrator.Ingest] resolves the target album, spills the body to tmp/, classifies it by
// its leading bytes, hands it to the image or video processor, stamps the caller's title and
// hash on the result and appends it through collection.Manager. Every file written during an
// attempt is tracked; if any step fails before the append succeeds, all of them are removed.
//
// Requests are independent and not bounded here. Coordination between concurrent uploads to
// the same album happens in the document store's lock.
package ingest
