package distcache

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// fileVersion is the version of the JSON lines cache format
const fileVersion int = 1

// fileHeader is the first line of a cache file
type fileHeader struct {
	Version  int     `json:"version"`
	GridSize float64 `json:"grid_size"`
}

// WriteFile writes the cache to path as zstd-compressed JSON lines: a
// header line followed by one line per entry
func WriteFile(path string, c *Cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	je := json.NewEncoder(bw)
	if err := je.Encode(fileHeader{fileVersion, c.GridSize()}); err != nil {
		_ = enc.Close()
		return fmt.Errorf("writeFile: %w", err)
	}
	for _, e := range c.Entries() {
		if err := je.Encode(e); err != nil {
			_ = enc.Close()
			return fmt.Errorf("writeFile: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return fmt.Errorf("writeFile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}
	return f.Sync()
}

// ReadFile reads a cache written by WriteFile
func ReadFile(path string) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readFile: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("readFile: %w", err)
	}
	defer dec.Close()

	jd := json.NewDecoder(bufio.NewReaderSize(dec, 256*1024))
	var h fileHeader
	if err := jd.Decode(&h); err != nil {
		return nil, fmt.Errorf("readFile: could not read header: %w", err)
	}
	if h.Version != fileVersion {
		return nil, fmt.Errorf("readFile: unsupported version %v", h.Version)
	}
	if h.GridSize <= 0 {
		return nil, fmt.Errorf("readFile: illegal grid size %v", h.GridSize)
	}

	c := New(h.GridSize)
	for {
		var e Entry
		if err := jd.Decode(&e); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("readFile: %w", err)
		}
		c.AddEntry(e)
	}
	return c, nil
}

// Load reads a cache from a SQLite database (.db, .sqlite) or a
// compressed cache file (.zst)
func Load(ctx context.Context, path string, scenes ...string) (*Cache,
	error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite", ".sqlite3":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		defer s.Close()
		return s.Load(ctx, scenes...)

	case ".zst":
		c, err := ReadFile(path)
		if err != nil || len(scenes) == 0 {
			return c, err
		}
		return c.subset(scenes), nil

	default:
		return nil, fmt.Errorf("load: unknown cache file extension %q", ext)
	}
}

// Save writes a cache to a SQLite database (.db, .sqlite) or a
// compressed cache file (.zst)
func Save(ctx context.Context, path string, c *Cache) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite", ".sqlite3":
		s, err := OpenSQLite(path)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
		defer s.Close()
		return s.Save(ctx, c)

	case ".zst":
		return WriteFile(path, c)

	default:
		return fmt.Errorf("save: unknown cache file extension %q", ext)
	}
}
