// Package main is the photo-share server: a self-hosted photo and video sharing backend
// that stores collections, albums and media records as JSON documents on a shared
// filesystem.
//
// # Application Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from MEMORY_LIMIT (see internal/memory)
//  2. Configuration loading: .env and environment, data directory layout (internal/startup)
//  3. Metrics registration: Prometheus collectors and package observers (internal/metrics)
//  4. Component initialization:
//     - Document store and collection manager
//     - Thumbnailer (libvips when VIPS_ENABLED, imaging otherwise) and HEIC converter
//     - ffmpeg/ffprobe transcoder with a bounded number of concurrent transcodes
//     - Reverse geocoder behind an LRU and SQLite cache
//     - Ingest orchestrator, gated by the memory monitor
//     - Library metrics collector
//  5. HTTP server setup: routes, metrics and logging middleware
//  6. Graceful shutdown on SIGINT/SIGTERM
//
// # HTTP Server
//
// The main server (default port 8080) serves the upload and management API, the album
// JSON documents and the stored images, thumbnails and originals. The metrics server
// (default port 9090) serves /metrics.
//
// # Graceful Shutdown
//
//  1. Stop the metrics collector
//  2. Shut down the HTTP server (30s timeout); in-flight uploads complete
//  3. Kill any remaining ffmpeg processes
//  4. Stop the memory monitor and the metrics server
//  5. Close the geocode cache and shut down libvips
//
// # Build Requirements
//
// CGO is required for SQLite (geocode cache) and libvips. ffmpeg and ffprobe must be on
// PATH for video uploads.
package main
