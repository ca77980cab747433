package expression

import (
	"gonum.org/v1/gonum/floats"
	"gopkg.in/guregu/null.v3"

	"github.com/inodb/vibe-isoform/internal/table"
)

// cpmScale is the counts-per-million scale factor.
const cpmScale = 1e6

// groupKey identifies a gene group. Null gene ids form their own group.
type groupKey struct {
	valid bool
	id    string
}

// RelativeAbundance returns one <sample>_relative_abundance column per
// sample: each value as a percentage of its gene group's total in that
// sample. Groups whose total is 0 get 0 for every row. Null values stay
// null and do not count towards the total.
func RelativeAbundance(rel *table.Relation, s Schema, geneCol string) ([]*table.Column, error) {
	gene, ok := rel.Column(geneCol)
	if !ok {
		return nil, &SchemaError{Message: "gene id column missing from the expression relation", Columns: []string{geneCol}}
	}

	n := rel.NumRows()
	groups := make([]int, n)
	index := make(map[groupKey]int)
	for i := 0; i < n; i++ {
		k := groupKey{valid: !gene.IsNull(i), id: gene.Cell(i)}
		g, ok := index[k]
		if !ok {
			g = len(index)
			index[k] = g
		}
		groups[i] = g
	}

	out := make([]*table.Column, 0, len(s.Samples))
	for _, name := range s.Samples {
		src, _ := rel.Column(name)

		members := make([][]float64, len(index))
		for i := 0; i < n; i++ {
			if v, ok := src.Float(i); ok {
				members[groups[i]] = append(members[groups[i]], v)
			}
		}
		sums := make([]float64, len(index))
		for g, values := range members {
			sums[g] = floats.Sum(values)
		}

		cells := make([]null.Float, n)
		for i := 0; i < n; i++ {
			sum := sums[groups[i]]
			switch v, ok := src.Float(i); {
			case sum == 0:
				cells[i] = null.FloatFrom(0)
			case ok:
				cells[i] = null.FloatFrom(v / sum * 100)
			}
		}
		out = append(out, &table.Column{Name: name + RelativeAbundanceSuffix, Kind: table.Numeric, Num: cells})
	}
	return out, nil
}

// CPM returns one <sample>_CPM column per sample, scaling each value by one
// million over the sample's column total. A sample whose total is 0 gets
// CPM 0 for every row; such samples are returned in zeroSum.
func CPM(rel *table.Relation, s Schema) (cols []*table.Column, zeroSum []string) {
	n := rel.NumRows()
	for _, name := range s.Samples {
		src, _ := rel.Column(name)

		values := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			if v, ok := src.Float(i); ok {
				values = append(values, v)
			}
		}
		total := floats.Sum(values)
		if total == 0 {
			zeroSum = append(zeroSum, name)
		}

		cells := make([]null.Float, n)
		for i := 0; i < n; i++ {
			switch v, ok := src.Float(i); {
			case total == 0:
				cells[i] = null.FloatFrom(0)
			case ok:
				cells[i] = null.FloatFrom(v / total * cpmScale)
			}
		}
		cols = append(cols, &table.Column{Name: name + CPMSuffix, Kind: table.Numeric, Num: cells})
	}
	return cols, zeroSum
}

// appendDerived adds derived columns to the wide relation and returns their
// names. A derived name that already exists is a schema conflict.
func appendDerived(rel *table.Relation, cols []*table.Column) ([]string, error) {
	var clash []string
	for _, c := range cols {
		if rel.Has(c.Name) {
			clash = append(clash, c.Name)
		}
	}
	if len(clash) > 0 {
		return nil, &SchemaError{Message: "derived columns collide with existing columns", Columns: clash}
	}

	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if err := rel.AddColumn(c); err != nil {
			return nil, err
		}
		names = append(names, c.Name)
	}
	return names, nil
}
