package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/vibe-isoform/internal/duckdb"
	"github.com/inodb/vibe-isoform/internal/table"
)

// WriteFile writes rel to path in the format implied by its extension:
// .tsv/.txt (tab-delimited), .csv or .parquet. An empty path or "-"
// writes tab-delimited text to stdout. store is only used for parquet.
func WriteFile(path string, rel *table.Relation, store *duckdb.Store) error {
	if path == "" || path == "-" {
		return NewTabWriter(os.Stdout).Write(rel)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".tsv", ".txt", ".csv":
	case ".parquet":
		if store == nil {
			return fmt.Errorf("parquet output requires a duckdb store")
		}
		return NewParquetWriter(store, path).Write(rel)
	default:
		return fmt.Errorf("unsupported output extension %q: use .tsv, .txt, .csv or .parquet", ext)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	var w Writer = NewTabWriter(out)
	if ext == ".csv" {
		w = NewCSVWriter(out)
	}
	if err := w.Write(rel); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}
