// Package table provides the in-memory relation shared by the loaders, the
// expression pipeline and the output writers.
package table

import (
	"fmt"
	"strconv"

	"gopkg.in/guregu/null.v3"
)

// Kind is the value type of a column.
type Kind int

const (
	Text Kind = iota
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Numeric:
		return "numeric"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Column is a named, typed column of nullable cells.
// Only the slice matching Kind is populated.
type Column struct {
	Name string
	Kind Kind
	Text []null.String
	Num  []null.Float
}

// NewTextColumn creates a text column with every cell set.
func NewTextColumn(name string, values []string) *Column {
	cells := make([]null.String, len(values))
	for i, v := range values {
		cells[i] = null.StringFrom(v)
	}
	return &Column{Name: name, Kind: Text, Text: cells}
}

// NewNumericColumn creates a numeric column with every cell set.
func NewNumericColumn(name string, values []float64) *Column {
	cells := make([]null.Float, len(values))
	for i, v := range values {
		cells[i] = null.FloatFrom(v)
	}
	return &Column{Name: name, Kind: Numeric, Num: cells}
}

// EmptyLike returns a column with the same name and kind holding n null cells.
func EmptyLike(c *Column, name string, n int) *Column {
	out := &Column{Name: name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Num = make([]null.Float, n)
	} else {
		out.Text = make([]null.String, n)
	}
	return out
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Num)
	}
	return len(c.Text)
}

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool {
	if c.Kind == Numeric {
		return !c.Num[i].Valid
	}
	return !c.Text[i].Valid
}

// Cell renders cell i as a string. Null cells render as "" and numbers in
// plain decimal notation.
func (c *Column) Cell(i int) string {
	if c.Kind == Numeric {
		if !c.Num[i].Valid {
			return ""
		}
		return strconv.FormatFloat(c.Num[i].Float64, 'f', -1, 64)
	}
	if !c.Text[i].Valid {
		return ""
	}
	return c.Text[i].String
}

// Float returns the numeric value of cell i and whether it is set.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != Numeric || !c.Num[i].Valid {
		return 0, false
	}
	return c.Num[i].Float64, true
}

// CopyCell copies cell j of src into cell i of c. Both columns must share a kind.
func (c *Column) CopyCell(i int, src *Column, j int) {
	if c.Kind == Numeric {
		c.Num[i] = src.Num[j]
	} else {
		c.Text[i] = src.Text[j]
	}
}

// Relation is an ordered set of equal-length named columns.
type Relation struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates an empty relation.
func New() *Relation {
	return &Relation{index: make(map[string]int)}
}

// AddColumn appends a column. The first column fixes the row count.
func (r *Relation) AddColumn(c *Column) error {
	if _, ok := r.index[c.Name]; ok {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(r.columns) > 0 && c.Len() != r.rows {
		return fmt.Errorf("column %q has %d rows, relation has %d", c.Name, c.Len(), r.rows)
	}
	if len(r.columns) == 0 {
		r.rows = c.Len()
	}
	r.index[c.Name] = len(r.columns)
	r.columns = append(r.columns, c)
	return nil
}

// Clone returns a relation over the same columns. Columns added to the clone
// do not appear in r.
func (r *Relation) Clone() *Relation {
	out := &Relation{
		columns: append([]*Column(nil), r.columns...),
		index:   make(map[string]int, len(r.index)),
		rows:    r.rows,
	}
	for name, i := range r.index {
		out.index[name] = i
	}
	return out
}

// Column returns the named column.
func (r *Relation) Column(name string) (*Column, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.columns[i], true
}

// Has reports whether the relation has a column with the given name.
func (r *Relation) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Columns returns the columns in order.
func (r *Relation) Columns() []*Column {
	return r.columns
}

// Names returns the column names in order.
func (r *Relation) Names() []string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the number of rows.
func (r *Relation) NumRows() int {
	return r.rows
}

// NumCols returns the number of columns.
func (r *Relation) NumCols() int {
	return len(r.columns)
}
