package workers

import (
	"os"
	"runtime"
	"strconv"

	"photo-share/internal/logging"
)

// Count returns the number of workers for a task: multiplier workers per available CPU,
// at least one, capped at limit. Use 0 for no limit.
//
// It respects container CPU limits via GOMAXPROCS. A positive integer in the environment
// variable envKey overrides the calculation; the limit still applies.
func Count(envKey string, multiplier float64, limit int) int {
	if envKey != "" {
		if override := os.Getenv(envKey); override != "" {
			count, err := strconv.Atoi(override)
			if err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
			logging.Warn("Ignoring invalid %s=%q", envKey, override)
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(envKey string, limit int) int {
	return Count(envKey, 1.0, limit)
}
