// Package startup handles configuration loading and the startup and shutdown log output.
//
// # Configuration
//
// [LoadConfig] reads an optional .env file from the working directory (via godotenv) and then
// the environment. Invalid values are logged and replaced by their defaults.
//
//   - DATA_DIR: data root holding admin/, albums/, images/, thumbs/, originals/ and tmp/ (default: /data)
//   - PORT, METRICS_PORT, METRICS_ENABLED: listeners (default: 8080, 9090, true)
//   - METRICS_INTERVAL: library gauge refresh interval (default: 1m)
//   - MAX_UPLOAD_BYTES: upload body limit (default: 512MiB)
//   - LOCK_MAX_RETRIES, LOCK_INITIAL_DELAY, LOCK_BACKOFF_FACTOR, LOCK_MAX_DELAY: document lock
//     backoff (default: 8, 10ms, 2, 1s)
//   - LOCK_STALE_AFTER: age after which a lock marker may be broken; 0 disables (default: 0)
//   - THUMBNAIL_SIZE, JPEG_QUALITY: thumbnail geometry and encoding (default: 200, 85)
//   - VIPS_ENABLED: use libvips for thumbnails when available (default: false)
//   - HEIC_CONVERTER: external HEIC converter command; empty uses the built in decoder
//   - FFMPEG_PATH, FFPROBE_PATH, TOOL_TIMEOUT, PROBE_TIMEOUT: video tools
//   - TRANSCODE_WORKERS: concurrent transcodes (default: CPU count, at most 4)
//   - GEOCODE_ENABLED, GEOCODE_URL, GEOCODE_USER_AGENT, GEOCODE_TIMEOUT, GEOCODE_RATE,
//     GEOCODE_CACHE_SIZE, GEOCODE_CACHE_TTL: reverse geocoding
//   - GEOCODE_FAILURE_PLACEHOLDER: record the unknown location instead of failing an upload
//     when geocoding fails (default: false)
//   - LOG_LEVEL, LOG_STATIC_FILES, LOG_HEALTH_CHECKS: logging
//
// # Directory Setup
//
// The data root and its subdirectories are created when missing and the albums directory
// is checked for write access before the server starts.
package startup
