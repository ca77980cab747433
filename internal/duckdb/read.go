package duckdb

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"
	"gopkg.in/guregu/null.v3"

	"github.com/inodb/vibe-isoform/internal/table"
)

// ReadCSV loads a delimited text file with a header line. Column types are
// inferred from the whole file rather than a sample so that a single
// non-numeric cell turns the column into text.
func (s *Store) ReadCSV(path string, delim rune) (*table.Relation, error) {
	query := fmt.Sprintf(`SELECT * FROM read_csv(%s, delim=%s, header=true, sample_size=-1)`,
		quoteLiteral(path), quoteLiteral(string(delim)))
	return s.Query(query)
}

// ReadParquet loads a parquet file.
func (s *Store) ReadParquet(path string) (*table.Relation, error) {
	return s.Query(fmt.Sprintf(`SELECT * FROM read_parquet(%s)`, quoteLiteral(path)))
}

// Query runs a query and materializes its result as a relation. Integer,
// floating and decimal result columns become numeric columns; everything
// else is rendered as text.
func (s *Store) Query(query string, args ...any) (*table.Relation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	cols := make([]*table.Column, len(types))
	for i, ct := range types {
		kind := table.Text
		if isNumericType(ct.DatabaseTypeName()) {
			kind = table.Numeric
		}
		cols[i] = &table.Column{Name: ct.Name(), Kind: kind}
	}

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, c := range cols {
			if c.Kind == table.Numeric {
				c.Num = append(c.Num, toFloat(values[i]))
			} else {
				c.Text = append(c.Text, toString(values[i]))
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	rel := table.New()
	for _, c := range cols {
		if c.Kind == table.Numeric && c.Num == nil {
			c.Num = []null.Float{}
		}
		if c.Kind == table.Text && c.Text == nil {
			c.Text = []null.String{}
		}
		if err := rel.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return rel, nil
}

// numericTypes are the DuckDB type names treated as numeric measurements.
var numericTypes = map[string]bool{
	"TINYINT":   true,
	"SMALLINT":  true,
	"INTEGER":   true,
	"BIGINT":    true,
	"HUGEINT":   true,
	"UTINYINT":  true,
	"USMALLINT": true,
	"UINTEGER":  true,
	"UBIGINT":   true,
	"UHUGEINT":  true,
	"FLOAT":     true,
	"DOUBLE":    true,
}

func isNumericType(name string) bool {
	name = strings.ToUpper(name)
	return numericTypes[name] || strings.HasPrefix(name, "DECIMAL")
}

func toFloat(v any) null.Float {
	switch x := v.(type) {
	case nil:
		return null.Float{}
	case float64:
		return null.FloatFrom(x)
	case float32:
		return null.FloatFrom(float64(x))
	case int64:
		return null.FloatFrom(float64(x))
	case int32:
		return null.FloatFrom(float64(x))
	case int16:
		return null.FloatFrom(float64(x))
	case int8:
		return null.FloatFrom(float64(x))
	case uint64:
		return null.FloatFrom(float64(x))
	case uint32:
		return null.FloatFrom(float64(x))
	case uint16:
		return null.FloatFrom(float64(x))
	case uint8:
		return null.FloatFrom(float64(x))
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return null.FloatFrom(f)
	case goduckdb.Decimal:
		return null.FloatFrom(x.Float64())
	}
	return null.Float{}
}

func toString(v any) null.String {
	switch x := v.(type) {
	case nil:
		return null.String{}
	case string:
		return null.StringFrom(x)
	case []byte:
		return null.StringFrom(string(x))
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return null.StringFrom(x.Format("2006-01-02"))
		}
		return null.StringFrom(x.Format(time.RFC3339))
	}
	return null.StringFrom(fmt.Sprint(v))
}
