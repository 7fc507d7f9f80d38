package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/Maverick0351a/odin-gateway-cloud-lite/pkg/log"
)

// errNoDocuments signals an empty collection, distinct from a failed query.
var errNoDocuments = errors.New("receipts: no documents")

// documentClient is the narrow slice of Firestore this store needs. Tests
// substitute a stub; production uses firestoreClient.
type documentClient interface {
	// latest returns the most recently inserted receipt (by ts descending),
	// or errNoDocuments when the collection is empty.
	latest(ctx context.Context) (map[string]any, error)
	insert(ctx context.Context, doc map[string]any) error
	byTrace(ctx context.Context, traceID string) ([]map[string]any, error)
	close() error
}

// FirestoreStore keeps the same hash-linking semantics as FileStore over a
// Firestore collection. The chain link is best-effort: concurrent appends
// from separate replicas may observe the same predecessor, and a failed
// latest-receipt lookup links to null instead of refusing the write.
type FirestoreStore struct {
	client documentClient
	desc   string
	logger log.Logger
}

// NewFirestoreStore connects to the project's receipt collection. It fails
// fast when the client cannot be constructed (for example, misconfigured
// credentials); callers fall back to the file store.
func NewFirestoreStore(ctx context.Context, projectID, collection string, logger log.Logger) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, errors.New("receipts: firestore project is required")
	}
	if collection == "" {
		collection = "receipts"
	}
	cli, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("receipts: firestore client: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &FirestoreStore{
		client: &firestoreClient{cli: cli, collection: collection},
		desc:   fmt.Sprintf("firestore://%s/%s", projectID, collection),
		logger: logger.WithComponent("receipts"),
	}, nil
}

// Add implements Store.
func (s *FirestoreStore) Add(ctx context.Context, r Receipt) (Receipt, error) {
	var prev any
	doc, err := s.client.latest(ctx)
	switch {
	case err == nil:
		if h, ok := doc[FieldHash].(string); ok && h != "" {
			prev = h
		}
	case errors.Is(err, errNoDocuments):
		// first receipt ever: null link
	default:
		// Best-effort chain: a gap is preferable to refusing the write.
		s.logger.Warn("latest receipt lookup failed; linking to null", log.Err(err))
	}

	stored := r.clone()
	stored[FieldPrevHash] = prev
	hash, err := computeHash(stored)
	if err != nil {
		return nil, fmt.Errorf("receipts: hash receipt: %w", err)
	}
	stored[FieldHash] = hash

	if err := s.client.insert(ctx, documentValue(map[string]any(stored)).(map[string]any)); err != nil {
		return nil, fmt.Errorf("receipts: firestore insert: %w", err)
	}
	return stored, nil
}

// Chain implements Store. A failed query degrades to an empty chain and is
// surfaced to operators through the log.
func (s *FirestoreStore) Chain(ctx context.Context, traceID string) ([]Receipt, error) {
	docs, err := s.client.byTrace(ctx, traceID)
	if err != nil {
		s.logger.Warn("chain query failed; returning empty chain",
			log.Err(err), log.Str("trace_id", traceID))
		return nil, nil
	}
	out := make([]Receipt, 0, len(docs))
	for _, d := range docs {
		out = append(out, Receipt(d))
	}
	sortChain(out)
	return out, nil
}

// Path implements Store.
func (s *FirestoreStore) Path() string { return s.desc }

// Close implements Store.
func (s *FirestoreStore) Close() error { return s.client.close() }

// firestoreClient is the production documentClient.
type firestoreClient struct {
	cli        *firestore.Client
	collection string
}

func (c *firestoreClient) col() *firestore.CollectionRef {
	return c.cli.Collection(c.collection)
}

func (c *firestoreClient) latest(ctx context.Context) (map[string]any, error) {
	iter := c.col().OrderBy(FieldTimestamp, firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()
	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, errNoDocuments
	}
	if err != nil {
		return nil, err
	}
	return doc.Data(), nil
}

func (c *firestoreClient) insert(ctx context.Context, doc map[string]any) error {
	_, _, err := c.col().Add(ctx, doc)
	return err
}

func (c *firestoreClient) byTrace(ctx context.Context, traceID string) ([]map[string]any, error) {
	snaps, err := c.col().Where(FieldTraceID, "==", traceID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snap.Data())
	}
	return out, nil
}

func (c *firestoreClient) close() error { return c.cli.Close() }

// documentValue rewrites json.Number values into native int64/float64 so
// Firestore stores numbers as numbers, not strings.
func documentValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return string(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = documentValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = documentValue(elem)
		}
		return out
	default:
		return v
	}
}
