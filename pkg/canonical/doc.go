// Package canonical produces deterministic JSON bytes and content addresses.
//
// # Determinism
//
// Marshal renders the same logical value to byte-identical output on every
// call, in every process:
//   - object keys sorted lexicographically by UTF-8 byte order
//   - compact separators, no insignificant whitespace
//   - strings NFC-normalized, emitted as raw UTF-8 with only the escapes
//     JSON requires (quote, backslash, control characters)
//   - integral numbers without exponent or decimal point, so values survive
//     an encoding/json decode round trip unchanged
//
// ContentAddress derives a stable identifier from bytes:
//
//	cid := canonical.ContentAddress(b) // "sha256:..." lowercase hex
//
// Usage:
//
//	b, err := canonical.Marshal(map[string]any{"b": 1, "a": "x"})
//	// b == []byte(`{"a":"x","b":1}`)
//	cid := canonical.ContentAddress(b)
package canonical
