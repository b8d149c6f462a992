package tasks

import "time"

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 30m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults. Feed runs for one
// store must not interleave, so a single worker is the default.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    30 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}
