package expression

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-isoform/internal/table"
)

// wide builds the two-transcript, one-gene matrix used throughout the tests:
//
//	transcript_id gene_id s1 s2
//	t1            g1      10 0
//	t2            g1      30 0
func wide(t *testing.T) *table.Relation {
	t.Helper()
	return relation(t,
		table.NewTextColumn("transcript_id", []string{"t1", "t2"}),
		table.NewTextColumn("gene_id", []string{"g1", "g1"}),
		table.NewNumericColumn("s1", []float64{10, 30}),
		table.NewNumericColumn("s2", []float64{0, 0}),
	)
}

func relation(t *testing.T, cols ...*table.Column) *table.Relation {
	t.Helper()
	rel := table.New()
	for _, c := range cols {
		require.NoError(t, rel.AddColumn(c))
	}
	return rel
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return zap.New(core), logs
}

// cell returns the rendered value of column name at row i.
func cell(t *testing.T, rel *table.Relation, name string, i int) string {
	t.Helper()
	c, ok := rel.Column(name)
	require.True(t, ok, "missing column %q", name)
	return c.Cell(i)
}

// value returns the numeric value of column name at row i.
func value(t *testing.T, rel *table.Relation, name string, i int) float64 {
	t.Helper()
	c, ok := rel.Column(name)
	require.True(t, ok, "missing column %q", name)
	v, ok := c.Float(i)
	require.True(t, ok, "null %s[%d]", name, i)
	return v
}

// rowIndex finds the row whose transcript and sample ids match.
func rowIndex(t *testing.T, rel *table.Relation, transcript, sample string) int {
	t.Helper()
	for i := 0; i < rel.NumRows(); i++ {
		if cell(t, rel, "transcript_id", i) == transcript && cell(t, rel, "sample_id", i) == sample {
			return i
		}
	}
	t.Fatalf("no row for %s/%s", transcript, sample)
	return -1
}

// fakeLoader serves relations by path and records the paths it was asked for.
type fakeLoader struct {
	files map[string]*table.Relation
	errs  map[string]error
	calls []string
}

func (f *fakeLoader) Load(path string) (*table.Relation, error) {
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	rel, ok := f.files[path]
	if !ok {
		return nil, &missingFileError{path}
	}
	return rel, nil
}

type missingFileError struct{ path string }

func (e *missingFileError) Error() string { return "no such file: " + e.path }
