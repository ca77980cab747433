package output

import (
	"fmt"

	"github.com/inodb/vibe-isoform/internal/duckdb"
	"github.com/inodb/vibe-isoform/internal/table"
)

// stagingTable is the DuckDB table a relation is appended to before export.
const stagingTable = "export_relation"

// ParquetWriter writes relations to a parquet file through DuckDB.
type ParquetWriter struct {
	store *duckdb.Store
	path  string
}

// NewParquetWriter creates a writer exporting to path via store.
func NewParquetWriter(store *duckdb.Store, path string) *ParquetWriter {
	return &ParquetWriter{store: store, path: path}
}

// Write stages rel in DuckDB and copies it to the parquet file.
func (pw *ParquetWriter) Write(rel *table.Relation) error {
	if err := pw.store.WriteRelation(stagingTable, rel); err != nil {
		return fmt.Errorf("stage relation: %w", err)
	}
	defer pw.store.DropTable(stagingTable)

	return pw.store.Export(stagingTable, pw.path, duckdb.FormatParquet)
}
