package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port   string
	DBPath string
	Sync   *SyncConfig
	Remote *RemoteConfig
}

func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "data/enrollments.db")

	syncInterval, err := strconv.Atoi(getEnv("SYNC_INTERVAL_MINUTES", "5"))
	if err != nil {
		return nil, err
	}

	maxConcurrent, err := strconv.Atoi(getEnv("MAX_CONCURRENT_SYNCS", "3"))
	if err != nil {
		return nil, err
	}

	syncCfg := DefaultSyncConfig()
	syncCfg.Interval = time.Duration(syncInterval) * time.Minute
	syncCfg.MaxConcurrentSyncs = maxConcurrent
	if getEnv("KEEP_REJECTED_IN_QUEUE", "") == "true" {
		syncCfg.DropRejected = false
	}

	remoteCfg := DefaultRemoteConfig()
	remoteCfg.PrimaryBaseURL = getEnv("PRIMARY_API_URL", "")
	remoteCfg.MirrorBaseURL = getEnv("MIRROR_API_URL", "")
	remoteCfg.Token = getEnv("REMOTE_API_TOKEN", "")

	return &Config{
		Port:   port,
		DBPath: dbPath,
		Sync:   syncCfg,
		Remote: remoteCfg,
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
