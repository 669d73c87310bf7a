// Package handlers provides the HTTP handlers of the photo sharing API.
//
// It includes handlers for:
//   - Uploads into an album or a collection's main album
//   - Collection and album management and soft deletion
//   - Album JSON and stored file serving
//   - Health, readiness and version endpoints
//
// Failures are written as {"error": {"kind": ..., "message": ...}} with the status code
// apperr.HTTPStatus maps the kind to.
package handlers
