package receipts

import (
	"context"
	"time"

	"github.com/Maverick0351a/odin-gateway-cloud-lite/internal/config"
	"github.com/Maverick0351a/odin-gateway-cloud-lite/pkg/log"
)

// newFirestoreStore is an indirection point so selector tests can inject a
// failing remote constructor without network credentials.
var newFirestoreStore = func(ctx context.Context, projectID, collection string, logger log.Logger) (Store, error) {
	return NewFirestoreStore(ctx, projectID, collection, logger)
}

// Open selects and composes a receipt store from configuration. Evaluated
// once at startup:
//
//  1. A configured Firestore project selects the remote backend; any
//     construction failure falls back (logged) to the file backend.
//  2. Otherwise the file backend is used.
//  3. The cache flag wraps whichever store was selected.
func Open(ctx context.Context, cfg config.Config, logger log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Nop()
	}

	var store Store
	if cfg.FirestoreProject != "" {
		remote, err := newFirestoreStore(ctx, cfg.FirestoreProject, cfg.FirestoreCollection, logger)
		if err != nil {
			logger.WithComponent("receipts").Warn(
				"firestore store unavailable; falling back to file store",
				log.Err(err), log.Str("project", cfg.FirestoreProject))
		} else {
			store = remote
		}
	}
	if store == nil {
		file, err := NewFileStore(FileStoreOptions{
			Path:            cfg.ReceiptsPath,
			RetentionMaxAge: time.Duration(cfg.RetentionMaxAgeSeconds) * time.Second,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		store = file
	}

	if cfg.CacheEnabled {
		store = NewCachedStore(store, CacheOptions{
			TTL:         time.Duration(cfg.CacheTTLSeconds) * time.Second,
			MaxReceipts: cfg.CacheMaxReceipts,
		})
	}
	return store, nil
}
