// Package output writes long expression relations to disk.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-isoform/internal/table"
)

// Writer writes a whole relation.
type Writer interface {
	Write(rel *table.Relation) error
}

// TabWriter writes relations in tab-delimited format with a header line.
// Null cells are written as empty fields. Fields containing a tab, a line
// break or a double quote are wrapped in double quotes, with inner quotes
// doubled.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// Write writes the header and every row, then flushes.
func (tw *TabWriter) Write(rel *table.Relation) error {
	names := rel.Names()
	for j, name := range names {
		names[j] = tabField(name)
	}
	if _, err := tw.w.WriteString(strings.Join(names, "\t") + "\n"); err != nil {
		return err
	}

	cols := rel.Columns()
	values := make([]string, len(cols))
	for i := 0; i < rel.NumRows(); i++ {
		for j, c := range cols {
			values[j] = tabField(c.Cell(i))
		}
		if _, err := tw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}

	return tw.w.Flush()
}

func tabField(s string) string {
	if !strings.ContainsAny(s, "\t\n\r\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
