// Package jsonl provides a thin wrapper around a line-delimited JSON file
// with fsync policy and whole-file replace semantics.
//
// The receipt log's durable format is one JSON object per line, UTF-8,
// newline-terminated, in strict append order. Rewrites happen as a single
// whole-file replace (temp file + rename in the same directory), so a
// concurrent reader observes either the old or the new log, never a
// partially written one.
//
// Usage:
//
//	f, err := jsonl.Open(jsonl.Options{
//	    Path:  "/var/lib/odin/receipts.log.jsonl",
//	    Fsync: jsonl.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//
//	lines, _ := f.ReadLines() // missing file -> empty log, not an error
//	lines = append(lines, newLine)
//	_ = f.ReplaceAll(lines)
package jsonl
