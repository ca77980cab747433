package expression

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inodb/vibe-isoform/internal/table"
)

// rightSuffix is appended to right-hand columns whose names are already
// taken on the left side of a join.
const rightSuffix = "_right"

// LeftJoin returns every row of left, extended with the non-key columns of
// right. Keys are compared by their rendered values; a row with a null key
// never matches. A left row with several matches is repeated once per match,
// and a left row with none gets nulls in the right-hand columns.
func LeftJoin(left, right *table.Relation, keys []string) (*table.Relation, error) {
	leftKeys, err := keyColumns(left, keys, "left")
	if err != nil {
		return nil, err
	}
	rightKeys, err := keyColumns(right, keys, "right")
	if err != nil {
		return nil, err
	}

	matches := make(map[string][]int, right.NumRows())
	for j := 0; j < right.NumRows(); j++ {
		if k, ok := rowKey(rightKeys, j); ok {
			matches[k] = append(matches[k], j)
		}
	}

	// Pair up output rows: left index, right index or -1.
	var li, ri []int
	for i := 0; i < left.NumRows(); i++ {
		k, ok := rowKey(leftKeys, i)
		if !ok || len(matches[k]) == 0 {
			li = append(li, i)
			ri = append(ri, -1)
			continue
		}
		for _, j := range matches[k] {
			li = append(li, i)
			ri = append(ri, j)
		}
	}

	out := table.New()
	for _, c := range left.Columns() {
		col := table.EmptyLike(c, c.Name, len(li))
		for r, i := range li {
			col.CopyCell(r, c, i)
		}
		if err := out.AddColumn(col); err != nil {
			return nil, err
		}
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	for _, c := range right.Columns() {
		if isKey[c.Name] {
			continue
		}
		name := c.Name
		if out.Has(name) {
			name += rightSuffix
		}
		col := table.EmptyLike(c, name, len(ri))
		for r, j := range ri {
			if j >= 0 {
				col.CopyCell(r, c, j)
			}
		}
		if err := out.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// attachAligned adds the value column of metric to long. Both relations must
// be melted from the same wide rows in the same order, so rows pair up by
// position; their key cells must agree. Duplicate feature rows therefore
// never fan out.
func attachAligned(long, metric *table.Relation, keys []string, value string) (*table.Relation, error) {
	if long.NumRows() != metric.NumRows() {
		return nil, fmt.Errorf("attach %s: %d rows, expected %d", value, metric.NumRows(), long.NumRows())
	}
	longKeys, err := keyColumns(long, keys, "left")
	if err != nil {
		return nil, err
	}
	metricKeys, err := keyColumns(metric, keys, "right")
	if err != nil {
		return nil, err
	}
	for i := 0; i < long.NumRows(); i++ {
		for j, c := range longKeys {
			m := metricKeys[j]
			if c.IsNull(i) != m.IsNull(i) || c.Cell(i) != m.Cell(i) {
				return nil, fmt.Errorf("attach %s: row %d key %s is %q, expected %q",
					value, i, c.Name, m.Cell(i), c.Cell(i))
			}
		}
	}

	col, ok := metric.Column(value)
	if !ok {
		return nil, &SchemaError{Message: "value column missing from the metric relation", Columns: []string{value}}
	}
	if err := long.AddColumn(col); err != nil {
		return nil, err
	}
	return long, nil
}

func keyColumns(rel *table.Relation, keys []string, side string) ([]*table.Column, error) {
	cols := make([]*table.Column, len(keys))
	for i, k := range keys {
		c, ok := rel.Column(k)
		if !ok {
			return nil, &SchemaError{Message: "join key missing from " + side + " relation", Columns: []string{k}}
		}
		cols[i] = c
	}
	return cols, nil
}

// rowKey renders the key of row i. It reports false if any key cell is null.
func rowKey(cols []*table.Column, i int) (string, bool) {
	if len(cols) == 1 {
		return cols[0].Cell(i), !cols[0].IsNull(i)
	}
	var b strings.Builder
	for j, c := range cols {
		if c.IsNull(i) {
			return "", false
		}
		if j > 0 {
			b.WriteByte(0)
		}
		b.WriteString(c.Cell(i))
	}
	return b.String(), true
}

// Overlap describes how the sample ids of the expression and metadata
// relations relate.
type Overlap struct {
	Shared         []string
	MetadataOnly   []string
	ExpressionOnly []string
}

// Partial reports whether either side has sample ids the other lacks.
func (o Overlap) Partial() bool {
	return len(o.MetadataOnly) > 0 || len(o.ExpressionOnly) > 0
}

// Warning renders the partial-overlap message, or "" for a full overlap.
func (o Overlap) Warning() string {
	var parts []string
	if len(o.MetadataOnly) > 0 {
		parts = append(parts, fmt.Sprintf(
			"the following sample IDs are present in metadata but not in expression data: [%s]",
			strings.Join(o.MetadataOnly, ", ")))
	}
	if len(o.ExpressionOnly) > 0 {
		parts = append(parts, fmt.Sprintf(
			"the following sample IDs are present in expression data but not in metadata: [%s]",
			strings.Join(o.ExpressionOnly, ", ")))
	}
	return strings.Join(parts, "; ")
}

// SampleOverlap compares the distinct non-null values of the sample id
// columns of the long expression relation and the metadata relation.
func SampleOverlap(long, meta *table.Relation, sampleCol string) (Overlap, error) {
	exprCol, ok := long.Column(sampleCol)
	if !ok {
		return Overlap{}, &SchemaError{Message: "sample id column missing from the expression relation", Columns: []string{sampleCol}}
	}
	metaCol, ok := meta.Column(sampleCol)
	if !ok {
		return Overlap{}, &SchemaError{Message: "sample id column missing from the metadata relation", Columns: []string{sampleCol}}
	}

	exprIDs := distinct(exprCol)
	metaIDs := distinct(metaCol)

	var o Overlap
	for id := range exprIDs {
		if metaIDs[id] {
			o.Shared = append(o.Shared, id)
		} else {
			o.ExpressionOnly = append(o.ExpressionOnly, id)
		}
	}
	for id := range metaIDs {
		if !exprIDs[id] {
			o.MetadataOnly = append(o.MetadataOnly, id)
		}
	}
	sort.Strings(o.Shared)
	sort.Strings(o.MetadataOnly)
	sort.Strings(o.ExpressionOnly)
	return o, nil
}

func distinct(c *table.Column) map[string]bool {
	set := make(map[string]bool)
	for i := 0; i < c.Len(); i++ {
		if !c.IsNull(i) {
			set[c.Cell(i)] = true
		}
	}
	return set
}
