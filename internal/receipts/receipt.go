package receipts

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Maverick0351a/odin-gateway-cloud-lite/pkg/canonical"
)

// Well-known receipt fields. Everything else is opaque payload.
const (
	FieldTraceID   = "trace_id"
	FieldHop       = "hop"
	FieldTimestamp = "ts"
	FieldPrevHash  = "prev_receipt_hash"
	FieldHash      = "receipt_hash"
)

// Receipt is one hop of a trace. The store requires no particular fields;
// missing trace_id/hop/ts degrade grouping and sorting but never fail.
type Receipt map[string]any

// TraceID returns the correlation key, or "" when absent.
func (r Receipt) TraceID() string {
	s, _ := r[FieldTraceID].(string)
	return s
}

// Hash returns the stored receipt hash, or "" when absent.
func (r Receipt) Hash() string {
	s, _ := r[FieldHash].(string)
	return s
}

// PrevHash returns the previous receipt hash and whether it is non-null.
func (r Receipt) PrevHash() (string, bool) {
	s, ok := r[FieldPrevHash].(string)
	return s, ok
}

func (r Receipt) clone() Receipt {
	out := make(Receipt, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// computeHash derives the content address over every field except the
// receipt hash itself. Both backends must produce identical hashes for
// identical logical content.
func computeHash(r Receipt) (string, error) {
	fields := make(map[string]any, len(r))
	for k, v := range r {
		if k == FieldHash {
			continue
		}
		fields[k] = v
	}
	b, err := canonical.Marshal(fields)
	if err != nil {
		return "", err
	}
	return canonical.ContentAddress(b), nil
}

// marshalReceipt renders the durable line form (canonical, so a stored
// receipt re-reads to byte-identical hashing input).
func marshalReceipt(r Receipt) ([]byte, error) {
	return canonical.Marshal(map[string]any(r))
}

// parseReceipt decodes one log line or document. Numbers are kept as
// json.Number so re-encoding preserves the exact literal.
func parseReceipt(line []byte) (Receipt, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("receipts: line is not an object")
	}
	return Receipt(m), nil
}

// sortChain orders receipts ascending by (hop, ts).
func sortChain(rs []Receipt) {
	sort.SliceStable(rs, func(i, j int) bool {
		hi, hj := hopOrder(rs[i]), hopOrder(rs[j])
		if hi != hj {
			return hi < hj
		}
		return timestampOrder(rs[i]) < timestampOrder(rs[j])
	})
}

// hopOrder extracts the hop index as a number, tolerating the types a
// decode can produce. Missing or malformed hops sort first.
func hopOrder(r Receipt) float64 {
	switch v := r[FieldHop].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

func timestampOrder(r Receipt) string {
	s, _ := r[FieldTimestamp].(string)
	return s
}

// parseTimestamp accepts RFC 3339 timestamps with or without fractional
// seconds, plus the zone-less ISO form; zone-less values are taken as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// NowISO returns the current UTC time in the receipt timestamp format.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
