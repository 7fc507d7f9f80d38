package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays ODIN_* (and FIRESTORE_*) environment variables onto cfg.
// Malformed numeric values leave the existing value untouched.
func FromEnv(cfg *Config) {
	if v := os.Getenv("ODIN_LOCAL_RECEIPTS"); v != "" {
		cfg.ReceiptsPath = v
	}
	if v := os.Getenv("ODIN_RETENTION_MAX_AGE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetentionMaxAgeSeconds = n
		}
	}
	if v := os.Getenv("FIRESTORE_PROJECT"); v != "" {
		cfg.FirestoreProject = v
	}
	if v := os.Getenv("FIRESTORE_COLLECTION"); v != "" {
		cfg.FirestoreCollection = v
	}
	if v := os.Getenv("ODIN_RECEIPT_CACHE"); v != "" {
		cfg.CacheEnabled = parseSwitch(v)
	}
	if v := os.Getenv("ODIN_RECEIPT_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTLSeconds = n
		}
	}
	if v := os.Getenv("ODIN_RECEIPT_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheMaxReceipts = n
		}
	}
	if v := os.Getenv("ODIN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ODIN_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// parseSwitch accepts the usual truthy spellings: 1, true, yes, on.
func parseSwitch(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
