package duckdb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/vibe-isoform/internal/table"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// cacheTable is the staging table used when writing a cache entry.
const cacheTable = "cache_relation"

// TableCache keeps parquet copies of parsed source tables on disk, so that
// slow formats (spreadsheets, large gzipped text) are parsed once:
//
//	{dir}/{key}.parquet       (the relation)
//	{dir}/{key}.parquet.meta  (source file fingerprint)
//
// key is derived from the absolute source path.
type TableCache struct {
	dir   string
	store *Store
}

// NewTableCache creates a table cache in dir, using store for parquet I/O.
func NewTableCache(dir string, store *Store) *TableCache {
	return &TableCache{dir: dir, store: store}
}

func (tc *TableCache) dataPath(fp FileFingerprint) string {
	sum := sha256.Sum256([]byte(fp.Path))
	return filepath.Join(tc.dir, hex.EncodeToString(sum[:8])+".parquet")
}

func (tc *TableCache) metaPath(fp FileFingerprint) string {
	return tc.dataPath(fp) + ".meta"
}

// Valid checks whether the cached table matches the current source file.
func (tc *TableCache) Valid(fp FileFingerprint) bool {
	meta, err := tc.readMeta(fp)
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{"source", fp.Path},
		{"size", strconv.FormatInt(fp.Size, 10)},
		{"modtime", fp.ModTime.UTC().Format(time.RFC3339Nano)},
	}
	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}

	if _, err := os.Stat(tc.dataPath(fp)); err != nil {
		return false
	}
	return true
}

// Load reads the cached table for fp.
func (tc *TableCache) Load(fp FileFingerprint) (*table.Relation, error) {
	rel, err := tc.store.ReadParquet(tc.dataPath(fp))
	if err != nil {
		return nil, fmt.Errorf("read table cache: %w", err)
	}
	return rel, nil
}

// Write stores rel as the cached table for fp.
func (tc *TableCache) Write(fp FileFingerprint, rel *table.Relation) error {
	if err := os.MkdirAll(tc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	if err := tc.store.WriteRelation(cacheTable, rel); err != nil {
		return fmt.Errorf("stage table cache: %w", err)
	}
	defer tc.store.DropTable(cacheTable)

	if err := tc.store.Export(cacheTable, tc.dataPath(fp), FormatParquet); err != nil {
		os.Remove(tc.dataPath(fp))
		return fmt.Errorf("write table cache: %w", err)
	}
	return tc.writeMeta(fp)
}

// Clear removes the cached files for fp.
func (tc *TableCache) Clear(fp FileFingerprint) {
	os.Remove(tc.dataPath(fp))
	os.Remove(tc.metaPath(fp))
}

func (tc *TableCache) writeMeta(fp FileFingerprint) error {
	lines := []string{
		"source=" + fp.Path,
		"size=" + strconv.FormatInt(fp.Size, 10),
		"modtime=" + fp.ModTime.UTC().Format(time.RFC3339Nano),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(tc.metaPath(fp), []byte(strings.Join(lines, "\n")), 0644)
}

func (tc *TableCache) readMeta(fp FileFingerprint) (map[string]string, error) {
	data, err := os.ReadFile(tc.metaPath(fp))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
