package output

import (
	"encoding/csv"
	"io"

	"github.com/inodb/vibe-isoform/internal/table"
)

// CSVWriter writes relations as comma-separated values with RFC 4180 quoting.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write writes the header and every row, then flushes.
func (cw *CSVWriter) Write(rel *table.Relation) error {
	if err := cw.w.Write(rel.Names()); err != nil {
		return err
	}

	cols := rel.Columns()
	for i := 0; i < rel.NumRows(); i++ {
		record := make([]string, len(cols))
		for j, c := range cols {
			record[j] = c.Cell(i)
		}
		if err := cw.w.Write(record); err != nil {
			return err
		}
	}

	cw.w.Flush()
	return cw.w.Error()
}
