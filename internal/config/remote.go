package config

import "time"

// RemoteConfig holds remote authority configuration
type RemoteConfig struct {
	// PrimaryBaseURL is the system of record for enrollments.
	PrimaryBaseURL string
	// MirrorBaseURL is the best-effort fallback tier. Empty disables
	// the mirror.
	MirrorBaseURL string
	// Token, when set, is sent as a bearer token to both tiers.
	Token string
	// RequestTimeout bounds a single attempt against one tier.
	RequestTimeout time.Duration
}

// DefaultRemoteConfig returns the default remote configuration
func DefaultRemoteConfig() *RemoteConfig {
	return &RemoteConfig{
		RequestTimeout: 10 * time.Second,
	}
}
