package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// defaultConfigDir is looked up when no configuration variant is requested
// and the dataset directory holds no split files of its own.
const defaultConfigDir = "default"

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 * 1024 * 1024

// LocalLoader reads datasets laid out on disk as
//
//	<dir>/<dataset id>/<config>/<split>.<jsonl|json|csv>[.gz|.zst]
//
// Without a config the split files sit directly in the dataset directory, or
// in its "default" subdirectory.
type LocalLoader struct {
	dir string
}

func NewLocalLoader(dir string) *LocalLoader {
	return &LocalLoader{dir: dir}
}

func (l *LocalLoader) Name() string { return BackendLocal }

// Available checks that the data directory exists.
func (l *LocalLoader) Available() error {
	if l.dir == "" {
		return errors.New("no data directory configured")
	}
	info, err := os.Stat(l.dir)
	if err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", l.dir)
	}
	return nil
}

func (l *LocalLoader) Load(ctx context.Context, id, config string) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := filepath.Join(l.dir, filepath.FromSlash(id))
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("dataset %q not found under %s", id, l.dir)
	}

	dir := root
	if config != "" {
		dir = filepath.Join(root, config)
	}

	files, err := scanSplitFiles(dir)
	if err != nil {
		if config != "" && errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("dataset %q has no config %q", id, config)
		}
		return nil, err
	}
	if len(files) == 0 && config == "" {
		files, err = scanSplitFiles(filepath.Join(root, defaultConfigDir))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("dataset %q has no split files", id)
	}

	b := &localBundle{files: make(map[string]splitFile, len(files))}
	for _, f := range files {
		b.order = append(b.order, f.split)
		b.files[f.split] = f
	}
	SortSplits(b.order)

	slog.Debug("Found local splits", "dataset", id, "config", config, "dir", dir, "splits", b.order)
	return b, nil
}

// splitFile is one split on disk.
type splitFile struct {
	split       string
	path        string
	format      string // jsonl, json or csv
	compression string // "", gz or zst
}

// scanSplitFiles lists the recognised split files in dir. Two files naming
// the same split are an error.
func scanSplitFiles(dir string) ([]splitFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []splitFile
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f, ok := parseSplitFileName(e.Name())
		if !ok {
			continue
		}
		f.path = filepath.Join(dir, e.Name())
		if prev, dup := seen[f.split]; dup {
			return nil, fmt.Errorf("split %q is ambiguous: %s and %s", f.split, prev, e.Name())
		}
		seen[f.split] = e.Name()
		files = append(files, f)
	}
	return files, nil
}

func parseSplitFileName(name string) (splitFile, bool) {
	var f splitFile
	base := name
	for _, c := range []string{"gz", "zst"} {
		if trimmed, ok := strings.CutSuffix(base, "."+c); ok {
			f.compression = c
			base = trimmed
			break
		}
	}
	for _, format := range []string{"jsonl", "json", "csv"} {
		if trimmed, ok := strings.CutSuffix(base, "."+format); ok && trimmed != "" {
			f.format = format
			f.split = trimmed
			return f, true
		}
	}
	return splitFile{}, false
}

type localBundle struct {
	order []string
	files map[string]splitFile
}

func (b *localBundle) Splits() []string {
	return append([]string(nil), b.order...)
}

func (b *localBundle) Split(name string) (Split, bool) {
	f, ok := b.files[name]
	if !ok {
		return nil, false
	}
	return &localSplit{file: f}, true
}

type localSplit struct {
	file splitFile
}

func (s *localSplit) Name() string { return s.file.split }

func (s *localSplit) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		r, err := openSplitFile(s.file)
		if err != nil {
			yield(nil, err)
			return
		}
		defer r.Close() //nolint:errcheck

		slog.Debug("Reading local split", "path", s.file.path, "format", s.file.format)

		switch s.file.format {
		case "jsonl":
			readJSONLines(ctx, r, s.file.path, yield)
		case "json":
			readJSONArray(ctx, r, s.file.path, yield)
		case "csv":
			records, err := readCSV(r, s.file.path)
			if err != nil {
				yield(nil, err)
				return
			}
			for rec, err := range NewMemorySplit(s.file.split, records).Records(ctx) {
				if !yield(rec, err) || err != nil {
					return
				}
			}
		}
	}
}

func readJSONLines(ctx context.Context, r io.Reader, path string, yield func(Record, error) bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := decodeJSON([]byte(text), &rec); err != nil {
			yield(nil, fmt.Errorf("jsonl: %s line %d: %w", path, line, err))
			return
		}
		if !yield(rec, nil) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		yield(nil, fmt.Errorf("jsonl: read %s: %w", path, err))
	}
}

func readJSONArray(ctx context.Context, r io.Reader, path string, yield func(Record, error) bool) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		yield(nil, fmt.Errorf("json: read %s: %w", path, err))
		return
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		yield(nil, fmt.Errorf("json: %s must hold an array of records", path))
		return
	}
	for i := 0; dec.More(); i++ {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			yield(nil, fmt.Errorf("json: %s record %d: %w", path, i, err))
			return
		}
		if !yield(rec, nil) {
			return
		}
	}
}

// openSplitFile opens f, transparently decompressing gzip and zstd files.
func openSplitFile(f splitFile) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}

	switch f.compression {
	case "gz":
		zr, err := gzip.NewReader(file)
		if err != nil {
			file.Close() //nolint:errcheck
			return nil, fmt.Errorf("gzip: %s: %w", f.path, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, file}}, nil
	case "zst":
		zr, err := zstd.NewReader(file)
		if err != nil {
			file.Close() //nolint:errcheck
			return nil, fmt.Errorf("zstd: %s: %w", f.path, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), file}}, nil
	default:
		return file, nil
	}
}

// stackedReader reads from a decompressor and closes it along with the file
// underneath.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
