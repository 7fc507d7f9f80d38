// Package config provides loading and environment overlay for the gateway's
// receipt-store configuration. It exposes a Default() baseline, Load() for
// JSON or YAML files, and FromEnv() to overlay ODIN_* variables.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/odin.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	store, _ := receipts.Open(ctx, cfg, logger)
//	defer store.Close()
//
// Malformed values (a non-numeric retention window, an unknown switch) fall
// back to the previous value rather than failing startup.
package config
