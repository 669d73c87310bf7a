// Package memory keeps the process inside its container memory budget.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT (Kubernetes Downward API) and
// MEMORY_RATIO, leaving headroom for ffmpeg and libvips, which allocate outside the Go heap.
// Call it early in main:
//
//	memory.ConfigureFromEnv()
//
// A [Monitor] samples heap usage. Once usage reaches Config.PauseAt it pauses, and
// [Monitor.Wait] blocks new uploads until usage falls below Config.ResumeAt. Uploads
// already in progress are not affected.
package memory
