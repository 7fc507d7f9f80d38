package jsonl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FsyncMode defines durability behavior for replace operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways syncs the temp file before renaming it into place.
	FsyncModeAlways
	// FsyncModeNever skips the explicit sync. The rename is still atomic;
	// this mode trades crash durability for throughput.
	FsyncModeNever
)

// Options configures the JSONL file wrapper.
type Options struct {
	// Path is the location of the log file.
	Path string
	// Fsync determines whether replaced content is synced before rename.
	Fsync FsyncMode
}

// File wraps a line-delimited JSON file with replace-style writes.
type File struct {
	path      string
	writeSync bool
}

// Open validates options and returns a File. The underlying file need not
// exist yet; a missing file reads as an empty log.
func Open(opts Options) (*File, error) {
	if opts.Path == "" {
		return nil, errors.New("jsonl: Options.Path is required")
	}
	return &File{
		path:      opts.Path,
		writeSync: opts.Fsync != FsyncModeNever,
	}, nil
}

// Path returns the location of the log file.
func (f *File) Path() string { return f.path }

// ReadLines returns all non-blank lines in order. A missing file yields an
// empty result, not an error.
func (f *File) ReadLines() ([][]byte, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("jsonl: open %s: %w", f.path, err)
	}
	defer fh.Close()

	var lines [][]byte
	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("jsonl: read %s: %w", f.path, err)
	}
	return lines, nil
}

// ReplaceAll rewrites the whole file to contain exactly the given lines,
// newline-terminated. The write goes to a temp file in the same directory
// and is renamed into place so readers never see a partial log.
func (f *File) ReplaceAll(lines [][]byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonl: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonl: create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			cleanup()
			return fmt.Errorf("jsonl: write temp: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			cleanup()
			return fmt.Errorf("jsonl: write temp: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("jsonl: flush temp: %w", err)
	}
	if f.writeSync {
		if err := tmp.Sync(); err != nil {
			cleanup()
			return fmt.Errorf("jsonl: sync temp: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonl: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonl: rename into place: %w", err)
	}
	return nil
}
