// Package transcoder wraps the ffprobe and ffmpeg command-line tools.
//
// [Transcoder.Probe] reads stream and container metadata, [Transcoder.Transcode] re-encodes a
// video to H.264/AAC in an MP4 container, and [Transcoder.CaptureFrame] extracts a still used
// for thumbnails. Every tool failure, timeouts included, is reported as
// apperr.CodecToolError.
//
// Transcodes are CPU heavy, so at most Config.Workers of them run at once. Running processes
// are tracked and killed by [Transcoder.Cleanup] on shutdown.
//
// Tests replace the tools with [Transcoder.SetRunner].
package transcoder
