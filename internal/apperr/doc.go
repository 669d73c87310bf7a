// Package apperr defines the structured error taxonomy shared by the storage layer, the
// media processors and the ingestion pipeline.
//
// Every error that crosses a component boundary is an [*Error] with a [Kind] and a message.
// Kinds can be matched with errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperr.ErrLockTimeout) {
//	    // retry later
//	}
//
// The HTTP layer uses [HTTPStatus] to turn a kind into a response code.
package apperr
