// Package receipts implements the gateway's tamper-evident receipt log.
//
// # Overview
//
// A receipt records one hop of a multi-hop transaction. Receipts form a
// single global hash chain in append order: every stored receipt carries
// receipt_hash (a content address over all of its fields except the hash
// itself) and prev_receipt_hash (the receipt_hash of whatever receipt was
// appended immediately before it, across all traces; null only for the very
// first receipt the store ever received). Retroactive edits anywhere in the
// log therefore break the chain detectably.
//
// Two backends implement the Store capability set:
//
//   - FileStore: a line-delimited JSON log with optional age-based pruning.
//     Appends are serialized under one mutex and rewrite the whole file
//     atomically. A given log file must be owned by a single process;
//     concurrent writers from separate processes are not coordinated.
//   - FirestoreStore: the same contract over a Firestore collection. Chain
//     linkage is best-effort across replicas: the previous hash comes from a
//     latest-by-timestamp query, and a failed lookup degrades the link to
//     null rather than refusing the write.
//
// CachedStore wraps either backend with a read-through, write-invalidate
// chain cache (TTL plus a global receipt-count cap). Open selects and
// composes the backends from configuration:
//
//	store, err := receipts.Open(ctx, cfg, logger)
//	if err != nil { /* handle */ }
//	defer store.Close()
//
//	stored, _ := store.Add(ctx, receipts.Receipt{
//	    "trace_id": "trace-x", "hop": 0, "ts": "2025-01-01T00:00:00Z",
//	    "payload":  map[string]any{"total": 42},
//	})
//	chain, _ := store.Chain(ctx, "trace-x")
package receipts
