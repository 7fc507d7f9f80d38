package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the receipt store and logging.
type Config struct {
	// ReceiptsPath is the durable JSONL log location for the file backend.
	ReceiptsPath string `json:"receiptsPath" yaml:"receiptsPath"`
	// RetentionMaxAgeSeconds prunes receipts older than this on each append.
	// Zero disables pruning.
	RetentionMaxAgeSeconds int `json:"retentionMaxAgeSeconds" yaml:"retentionMaxAgeSeconds"`

	// FirestoreProject selects the Firestore backend when non-empty.
	FirestoreProject string `json:"firestoreProject" yaml:"firestoreProject"`
	// FirestoreCollection is the receipts collection name.
	FirestoreCollection string `json:"firestoreCollection" yaml:"firestoreCollection"`

	// CacheEnabled wraps the selected store in the caching decorator.
	CacheEnabled bool `json:"cacheEnabled" yaml:"cacheEnabled"`
	// CacheTTLSeconds is the snapshot freshness window; <= 0 never expires.
	CacheTTLSeconds int `json:"cacheTTLSeconds" yaml:"cacheTTLSeconds"`
	// CacheMaxReceipts caps total cached receipts across all traces.
	CacheMaxReceipts int `json:"cacheMaxReceipts" yaml:"cacheMaxReceipts"`

	LogLevel  string `json:"logLevel" yaml:"logLevel"`
	LogFormat string `json:"logFormat" yaml:"logFormat"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		ReceiptsPath:        filepath.Join(DefaultDataDir(), "receipts.log.jsonl"),
		FirestoreCollection: "receipts",
		CacheTTLSeconds:     300,
		CacheMaxReceipts:    1000,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
