package config

import "time"

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	// Interval between opportunistic background drains.
	Interval time.Duration
	// MaxConcurrentSyncs bounds how many remote attempts one drain pass
	// runs in parallel.
	MaxConcurrentSyncs int
	// DropRejected removes non-retriable rejections from the queue
	// instead of retrying a permanently invalid payload forever.
	DropRejected bool
	// DrainTimeout bounds a single background drain pass.
	DrainTimeout time.Duration
}

// DefaultSyncConfig returns the default sync configuration
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Interval:           time.Minute * 5,
		MaxConcurrentSyncs: 3,
		DropRejected:       true,
		DrainTimeout:       time.Minute * 2,
	}
}
