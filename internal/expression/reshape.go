package expression

import (
	"fmt"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/inodb/vibe-isoform/internal/table"
)

// MeltSpec describes a wide-to-long unpivot.
type MeltSpec struct {
	// IDColumns are copied unchanged onto every output row.
	IDColumns []string
	// ValueColumns are unpivoted; they must all be numeric.
	ValueColumns []string
	// VariableName names the column holding the unpivoted column name.
	VariableName string
	// ValueName names the column holding the unpivoted cell.
	ValueName string
	// StripSuffix is removed from the end of each unpivoted column name,
	// mapping derived columns such as "s1_CPM" back to "s1".
	StripSuffix string
}

// Melt unpivots rel into one row per (row, value column) pair. Rows are
// emitted value column by value column, each in the original row order, so
// the output has exactly NumRows*len(ValueColumns) rows.
func Melt(rel *table.Relation, spec MeltSpec) (*table.Relation, error) {
	n := rel.NumRows()
	total := n * len(spec.ValueColumns)

	ids := make([]*table.Column, len(spec.IDColumns))
	for i, name := range spec.IDColumns {
		c, ok := rel.Column(name)
		if !ok {
			return nil, &SchemaError{Message: "melt id column missing", Columns: []string{name}}
		}
		ids[i] = c
	}

	values := make([]*table.Column, len(spec.ValueColumns))
	for i, name := range spec.ValueColumns {
		c, ok := rel.Column(name)
		if !ok {
			return nil, &SchemaError{Message: "melt value column missing", Columns: []string{name}}
		}
		if c.Kind != table.Numeric {
			return nil, &SchemaError{Message: "melt value column is not numeric", Columns: []string{name}}
		}
		values[i] = c
	}

	outIDs := make([]*table.Column, len(ids))
	for i, c := range ids {
		outIDs[i] = table.EmptyLike(c, c.Name, total)
	}
	samples := make([]string, 0, total)
	measure := &table.Column{Name: spec.ValueName, Kind: table.Numeric, Num: make([]null.Float, 0, total)}

	row := 0
	for _, v := range values {
		sample := strings.TrimSuffix(v.Name, spec.StripSuffix)
		for i := 0; i < n; i++ {
			for j, c := range ids {
				outIDs[j].CopyCell(row, c, i)
			}
			samples = append(samples, sample)
			measure.Num = append(measure.Num, v.Num[i])
			row++
		}
	}

	out := table.New()
	for _, c := range outIDs {
		if err := out.AddColumn(c); err != nil {
			return nil, fmt.Errorf("melt: %w", err)
		}
	}
	if err := out.AddColumn(table.NewTextColumn(spec.VariableName, samples)); err != nil {
		return nil, fmt.Errorf("melt: %w", err)
	}
	if err := out.AddColumn(measure); err != nil {
		return nil, fmt.Errorf("melt: %w", err)
	}
	return out, nil
}
