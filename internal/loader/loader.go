// Package loader reads tabular files into relations, choosing a reader from
// the file extension.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-isoform/internal/duckdb"
	"github.com/inodb/vibe-isoform/internal/table"
)

// Format identifies a supported input file format.
type Format string

const (
	FormatTSV     Format = "tsv"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
)

// ErrUnsupportedFormat is returned for files whose extension has no reader.
var ErrUnsupportedFormat = errors.New("unsupported file extension")

// ReadError wraps any failure to read a supported file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read file %q: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// DetectFormat returns the format implied by the file extension.
// A trailing .gz is accepted for delimited text.
func DetectFormat(path string) (Format, error) {
	lowerPath := strings.ToLower(path)

	gz := false
	if strings.HasSuffix(lowerPath, ".gz") {
		lowerPath = lowerPath[:len(lowerPath)-3]
		gz = true
	}

	ext := filepath.Ext(lowerPath)
	switch ext {
	case ".tsv", ".txt":
		return FormatTSV, nil
	case ".csv":
		return FormatCSV, nil
	}
	if gz {
		ext += ".gz"
	}
	switch ext {
	case ".parquet":
		return FormatParquet, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}
	return "", fmt.Errorf("%w %q: supported extensions are .tsv, .txt, .csv, .parquet, .xlsx, .xls",
		ErrUnsupportedFormat, ext)
}

// FileLoader loads expression and metadata files.
// Delimited text and parquet are read through an in-memory DuckDB engine.
type FileLoader struct {
	store  *duckdb.Store
	cache  *duckdb.TableCache
	logger *zap.Logger
}

// Open creates a FileLoader backed by a fresh in-memory DuckDB engine.
func Open() (*FileLoader, error) {
	store, err := duckdb.Open("")
	if err != nil {
		return nil, err
	}
	return &FileLoader{store: store, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger used for cache messages.
func (l *FileLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// SetCacheDir enables a parquet cache of parsed non-parquet files in dir.
// An empty dir disables caching.
func (l *FileLoader) SetCacheDir(dir string) {
	if dir == "" {
		l.cache = nil
		return
	}
	l.cache = duckdb.NewTableCache(dir, l.store)
}

// Close releases the DuckDB engine.
func (l *FileLoader) Close() error {
	return l.store.Close()
}

// Store returns the DuckDB engine backing the loader.
func (l *FileLoader) Store() *duckdb.Store {
	return l.store
}

// Load reads the file at path into a relation.
func (l *FileLoader) Load(path string) (*table.Relation, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	if l.cache == nil || format == FormatParquet {
		return l.read(path, format)
	}
	return l.readCached(path, format)
}

// readCached serves path from the table cache when its fingerprint still
// matches, and refreshes the cache otherwise. Cache failures only log.
func (l *FileLoader) readCached(path string, format Format) (*table.Relation, error) {
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	if l.cache.Valid(fp) {
		rel, err := l.cache.Load(fp)
		if err == nil {
			l.logger.Debug("loaded table from cache", zap.String("path", path))
			return rel, nil
		}
		l.logger.Warn("could not read table cache", zap.String("path", path), zap.Error(err))
		l.cache.Clear(fp)
	}

	rel, err := l.read(path, format)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Write(fp, rel); err != nil {
		l.logger.Warn("could not write table cache", zap.String("path", path), zap.Error(err))
	}
	return rel, nil
}

func (l *FileLoader) read(path string, format Format) (*table.Relation, error) {
	var (
		rel *table.Relation
		err error
	)
	switch format {
	case FormatTSV:
		rel, err = l.store.ReadCSV(path, '\t')
	case FormatCSV:
		rel, err = l.store.ReadCSV(path, ',')
	case FormatParquet:
		rel, err = l.store.ReadParquet(path)
	case FormatXLSX:
		rel, err = readXLSX(path)
	case FormatXLS:
		rel, err = readXLS(path)
	}
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return rel, nil
}
