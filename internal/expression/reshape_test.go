package expression

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-isoform/internal/table"
)

func TestMelt(t *testing.T) {
	long, err := Melt(wide(t), MeltSpec{
		IDColumns:    []string{"transcript_id", "gene_id"},
		ValueColumns: []string{"s1", "s2"},
		VariableName: "sample_id",
		ValueName:    "counts",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"transcript_id", "gene_id", "sample_id", "counts"}, long.Names())
	require.Equal(t, 4, long.NumRows())

	want := []struct {
		transcript, sample, counts string
	}{
		{"t1", "s1", "10"},
		{"t2", "s1", "30"},
		{"t1", "s2", "0"},
		{"t2", "s2", "0"},
	}
	for i, w := range want {
		assert.Equal(t, w.transcript, cell(t, long, "transcript_id", i))
		assert.Equal(t, "g1", cell(t, long, "gene_id", i))
		assert.Equal(t, w.sample, cell(t, long, "sample_id", i))
		assert.Equal(t, w.counts, cell(t, long, "counts", i))
	}
}

func TestMelt_RowCountIsFeaturesTimesSamples(t *testing.T) {
	for _, dims := range [][2]int{{0, 3}, {3, 0}, {1, 1}, {5, 4}, {17, 9}} {
		features, samples := dims[0], dims[1]
		t.Run(fmt.Sprintf("%dx%d", features, samples), func(t *testing.T) {
			ids := make([]string, features)
			for i := range ids {
				ids[i] = fmt.Sprintf("t%d", i)
			}
			rel := relation(t, table.NewTextColumn("transcript_id", ids))
			var names []string
			for j := 0; j < samples; j++ {
				name := fmt.Sprintf("s%d", j)
				names = append(names, name)
				require.NoError(t, rel.AddColumn(table.NewNumericColumn(name, make([]float64, features))))
			}

			long, err := Melt(rel, MeltSpec{
				IDColumns:    []string{"transcript_id"},
				ValueColumns: names,
				VariableName: "sample_id",
				ValueName:    "counts",
			})
			require.NoError(t, err)
			assert.Equal(t, features*samples, long.NumRows())
		})
	}
}

func TestMelt_StripSuffix(t *testing.T) {
	rel := relation(t,
		table.NewTextColumn("transcript_id", []string{"t1"}),
		table.NewNumericColumn("sampleA_CPM", []float64{1}),
		table.NewNumericColumn("x_CPM_CPM", []float64{2}),
	)
	long, err := Melt(rel, MeltSpec{
		IDColumns:    []string{"transcript_id"},
		ValueColumns: []string{"sampleA_CPM", "x_CPM_CPM"},
		VariableName: "sample_id",
		ValueName:    "CPM",
		StripSuffix:  CPMSuffix,
	})
	require.NoError(t, err)
	assert.Equal(t, "sampleA", cell(t, long, "sample_id", 0))
	assert.Equal(t, "x_CPM", cell(t, long, "sample_id", 1))
}

func TestMelt_Errors(t *testing.T) {
	rel := wide(t)

	_, err := Melt(rel, MeltSpec{IDColumns: []string{"nope"}, ValueColumns: []string{"s1"}, VariableName: "v", ValueName: "x"})
	assert.True(t, errors.Is(err, ErrSchema))

	_, err = Melt(rel, MeltSpec{IDColumns: []string{"transcript_id"}, ValueColumns: []string{"s9"}, VariableName: "v", ValueName: "x"})
	assert.True(t, errors.Is(err, ErrSchema))

	_, err = Melt(rel, MeltSpec{IDColumns: []string{"transcript_id"}, ValueColumns: []string{"gene_id"}, VariableName: "v", ValueName: "x"})
	assert.True(t, errors.Is(err, ErrSchema))
}
