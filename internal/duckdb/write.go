package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-isoform/internal/table"
)

// FormatParquet is the export format accepted by Export.
const FormatParquet = "parquet"

// WriteRelation replaces the named table with the contents of rel using the
// Appender API. Numeric columns are stored as DOUBLE, text columns as VARCHAR.
func (s *Store) WriteRelation(name string, rel *table.Relation) error {
	defs := make([]string, 0, rel.NumCols())
	for _, c := range rel.Columns() {
		typ := "VARCHAR"
		if c.Kind == table.Numeric {
			typ = "DOUBLE"
		}
		defs = append(defs, quoteIdent(c.Name)+" "+typ)
	}
	if _, err := s.db.Exec(fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)",
		quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", name)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	cols := rel.Columns()
	row := make([]driver.Value, len(cols))
	for i := 0; i < rel.NumRows(); i++ {
		for j, c := range cols {
			row[j] = cellValue(c, i)
		}
		if err := appender.AppendRow(row...); err != nil {
			return fmt.Errorf("append row %d: %w", i, err)
		}
	}

	return appender.Flush()
}

// Export copies the named table to path in the given format.
func (s *Store) Export(name, path, format string) error {
	var opts string
	switch format {
	case FormatParquet:
		opts = "FORMAT PARQUET"
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}

	if _, err := s.db.Exec(fmt.Sprintf("COPY %s TO %s (%s)",
		quoteIdent(name), quoteLiteral(path), opts)); err != nil {
		return fmt.Errorf("export %s to %s: %w", name, path, err)
	}
	return nil
}

func cellValue(c *table.Column, i int) driver.Value {
	if c.IsNull(i) {
		return nil
	}
	if c.Kind == table.Numeric {
		return c.Num[i].Float64
	}
	return c.Text[i].String
}
