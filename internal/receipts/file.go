package receipts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Maverick0351a/odin-gateway-cloud-lite/internal/storage/jsonl"
	"github.com/Maverick0351a/odin-gateway-cloud-lite/pkg/log"
)

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Path is the durable JSONL log location.
	Path string
	// RetentionMaxAge prunes receipts older than this on each append.
	// Zero or negative disables pruning.
	RetentionMaxAge time.Duration
	// Fsync controls whether rewrites sync before renaming into place.
	Fsync jsonl.FsyncMode
	// Logger receives degraded-mode signals. Optional.
	Logger log.Logger
}

// FileStore is the file-backed receipt log. All appends are serialized
// under one mutex: the previous-hash link is global mutable state and the
// read-prune-append-rewrite sequence must not interleave.
//
// A given log file is assumed to be owned by exactly one process. Readers
// in the same or other processes always observe a complete log (rewrites
// are atomic renames), but concurrent writers from separate processes can
// lose appends; that limitation is deliberate.
type FileStore struct {
	mu     sync.Mutex
	file   *jsonl.File
	maxAge time.Duration
	logger log.Logger
	now    func() time.Time
}

// NewFileStore opens a file-backed store. The log file need not exist.
func NewFileStore(opts FileStoreOptions) (*FileStore, error) {
	file, err := jsonl.Open(jsonl.Options{Path: opts.Path, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &FileStore{
		file:   file,
		maxAge: opts.RetentionMaxAge,
		logger: logger.WithComponent("receipts"),
		now:    time.Now,
	}, nil
}

// Add implements Store. Steps, in order: read the full log, prune by age,
// link to the last surviving receipt (null when none), hash, append, and
// rewrite the whole file.
func (s *FileStore) Add(_ context.Context, r Receipt) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.file.ReadLines()
	if err != nil {
		return nil, fmt.Errorf("receipts: read log: %w", err)
	}
	lines = s.pruneByAge(lines)

	stored := r.clone()
	stored[FieldPrevHash] = lastReceiptHash(lines)
	hash, err := computeHash(stored)
	if err != nil {
		return nil, fmt.Errorf("receipts: hash receipt: %w", err)
	}
	stored[FieldHash] = hash

	line, err := marshalReceipt(stored)
	if err != nil {
		return nil, fmt.Errorf("receipts: encode receipt: %w", err)
	}
	lines = append(lines, line)
	if err := s.file.ReplaceAll(lines); err != nil {
		return nil, fmt.Errorf("receipts: rewrite log: %w", err)
	}
	return stored, nil
}

// Chain implements Store. Malformed lines are skipped; a read failure
// degrades to an empty chain with a logged warning.
func (s *FileStore) Chain(_ context.Context, traceID string) ([]Receipt, error) {
	lines, err := s.file.ReadLines()
	if err != nil {
		s.logger.Warn("log read failed; returning empty chain",
			log.Err(err), log.Str("trace_id", traceID))
		return nil, nil
	}
	var out []Receipt
	for _, line := range lines {
		rec, err := parseReceipt(line)
		if err != nil {
			continue
		}
		if rec.TraceID() == traceID {
			out = append(out, rec)
		}
	}
	sortChain(out)
	return out, nil
}

// Records returns every parsable receipt in append order plus the count of
// skipped (malformed) lines. Used by chain verification.
func (s *FileStore) Records(_ context.Context) ([]Receipt, int, error) {
	lines, err := s.file.ReadLines()
	if err != nil {
		return nil, 0, fmt.Errorf("receipts: read log: %w", err)
	}
	out := make([]Receipt, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		rec, err := parseReceipt(line)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

// Path implements Store.
func (s *FileStore) Path() string { return s.file.Path() }

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// pruneByAge drops lines whose ts is older than the retention cutoff.
// Lines that cannot be parsed or carry no usable timestamp are kept; an
// unreadable receipt must not vanish silently on the next append.
func (s *FileStore) pruneByAge(lines [][]byte) [][]byte {
	if s.maxAge <= 0 {
		return lines
	}
	cutoff := s.now().UTC().Add(-s.maxAge)
	kept := lines[:0]
	dropped := 0
	for _, line := range lines {
		rec, err := parseReceipt(line)
		if err != nil {
			kept = append(kept, line)
			continue
		}
		ts, ok := parseTimestamp(timestampOrder(rec))
		if !ok || !ts.Before(cutoff) {
			kept = append(kept, line)
			continue
		}
		dropped++
	}
	if dropped > 0 {
		s.logger.Debug("pruned receipts past retention", log.Int("count", dropped))
	}
	return kept
}

// lastReceiptHash returns the receipt_hash of the last surviving entry, or
// nil for an empty (or wholly unreadable) log.
func lastReceiptHash(lines [][]byte) any {
	for i := len(lines) - 1; i >= 0; i-- {
		rec, err := parseReceipt(lines[i])
		if err != nil {
			continue
		}
		if h := rec.Hash(); h != "" {
			return h
		}
	}
	return nil
}
