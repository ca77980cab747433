package expression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-isoform/internal/table"
)

func metadata(t *testing.T, ids ...string) *table.Relation {
	t.Helper()
	groups := make([]string, len(ids))
	for i, id := range ids {
		groups[i] = "group_" + id
	}
	return relation(t,
		table.NewTextColumn("sample_id", ids),
		table.NewTextColumn("condition", groups),
	)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		option string
	}{
		{"missing transcript id", func(o *Options) { o.TranscriptIDColumn = "" }, "transcript_id_column"},
		{"missing measure", func(o *Options) { o.MeasureName = "" }, "expression_measure_name"},
		{"missing sample id", func(o *Options) { o.SampleIDColumn = "" }, "metadata_sample_id_column"},
		{"gene equals transcript", func(o *Options) { o.GeneIDColumn = "transcript_id" }, "gene_id_column"},
		{"sample id is feature", func(o *Options) { o.SampleIDColumn = "gene_id" }, "metadata_sample_id_column"},
		{"sample id is CPM", func(o *Options) { o.SampleIDColumn = "CPM" }, "metadata_sample_id_column"},
		{"measure is sample id", func(o *Options) { o.MeasureName = "sample_id" }, "expression_measure_name"},
		{"measure is relative abundance", func(o *Options) { o.MeasureName = "relative_abundance" }, "expression_measure_name"},
		{"measure is feature", func(o *Options) { o.MeasureName = "transcript_id" }, "expression_measure_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)

			err := opts.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))

			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.option, ce.Option)
		})
	}

	assert.NoError(t, DefaultOptions().Validate())

	noGene := DefaultOptions()
	noGene.GeneIDColumn = ""
	assert.NoError(t, noGene.Validate())
}

func TestProcess_MissingTranscriptIDBeforeAnyRead(t *testing.T) {
	loader := &fakeLoader{files: map[string]*table.Relation{"counts.tsv": wide(t)}}
	p := NewPipeline(loader)

	opts := DefaultOptions()
	opts.ExpressionPath = "counts.tsv"
	opts.TranscriptIDColumn = ""

	long, err := p.Process(opts)
	assert.Nil(t, long)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Empty(t, loader.calls)
}

func TestProcess_Primary(t *testing.T) {
	loader := &fakeLoader{files: map[string]*table.Relation{"counts.tsv": wide(t)}}
	p := NewPipeline(loader)

	opts := DefaultOptions()
	opts.ExpressionPath = "counts.tsv"

	long, err := p.Process(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"counts.tsv"}, loader.calls)
	assert.Equal(t, []string{"transcript_id", "gene_id", "sample_id", "counts"}, long.Names())
	assert.Equal(t, 4, long.NumRows())
}

func TestProcess_CustomMeasureAndSampleColumn(t *testing.T) {
	loader := &fakeLoader{files: map[string]*table.Relation{"tpm.csv": wide(t)}}
	p := NewPipeline(loader)

	opts := DefaultOptions()
	opts.ExpressionPath = "tpm.csv"
	opts.MeasureName = "tpm"
	opts.SampleIDColumn = "sample"

	long, err := p.Process(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"transcript_id", "gene_id", "sample", "tpm"}, long.Names())
}

func TestTransform_AllMetrics(t *testing.T) {
	p := NewPipeline(nil)
	logger, logs := observedLogger()
	p.SetLogger(logger)

	opts := DefaultOptions()
	opts.CPM = true
	opts.RelativeAbundance = true

	long, err := p.Transform(wide(t), nil, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"transcript_id", "gene_id", "sample_id", "counts", "CPM", "relative_abundance"}, long.Names())
	require.Equal(t, 4, long.NumRows())

	i := rowIndex(t, long, "t1", "s1")
	assert.Equal(t, 10.0, value(t, long, "counts", i))
	assert.Equal(t, 250000.0, value(t, long, "CPM", i))
	assert.Equal(t, 25.0, value(t, long, "relative_abundance", i))

	i = rowIndex(t, long, "t2", "s1")
	assert.Equal(t, 750000.0, value(t, long, "CPM", i))
	assert.Equal(t, 75.0, value(t, long, "relative_abundance", i))

	for _, tx := range []string{"t1", "t2"} {
		i = rowIndex(t, long, tx, "s2")
		assert.Equal(t, 0.0, value(t, long, "relative_abundance", i))
		assert.Equal(t, 0.0, value(t, long, "CPM", i))
	}

	// s2 sums to zero, so the CPM policy warning fires.
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "CPM 0")
}

func TestTransform_RelativeAbundanceWithoutGene(t *testing.T) {
	p := NewPipeline(nil)
	logger, logs := observedLogger()
	p.SetLogger(logger)

	rel := relation(t,
		table.NewTextColumn("transcript_id", []string{"t1", "t2"}),
		table.NewNumericColumn("s1", []float64{1, 3}),
	)

	opts := DefaultOptions()
	opts.GeneIDColumn = ""
	opts.RelativeAbundance = true

	long, err := p.Transform(rel, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"transcript_id", "sample_id", "counts"}, long.Names())
	assert.Equal(t, 2, long.NumRows())

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "skipping relative abundance")
}

func TestTransform_LeftJoinInvariants(t *testing.T) {
	p := NewPipeline(nil)

	opts := DefaultOptions()
	base, err := p.Transform(wide(t), nil, opts)
	require.NoError(t, err)

	opts.CPM = true
	opts.RelativeAbundance = true
	full, err := p.Transform(wide(t), metadata(t, "s1", "s2"), opts)
	require.NoError(t, err)

	require.Equal(t, base.NumRows(), full.NumRows())
	for _, name := range base.Names() {
		for i := 0; i < base.NumRows(); i++ {
			assert.Equal(t, cell(t, base, name, i), cell(t, full, name, i), "%s[%d]", name, i)
		}
	}
	assert.Equal(t, "group_s1", cell(t, full, "condition", rowIndex(t, full, "t2", "s1")))
}

func TestTransform_PartialOverlapWarnsOnce(t *testing.T) {
	p := NewPipeline(nil)
	logger, logs := observedLogger()
	p.SetLogger(logger)

	long, err := p.Transform(wide(t), metadata(t, "s1", "s3"), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 4, long.NumRows())

	require.Equal(t, 1, logs.Len())
	msg := logs.All()[0].Message
	assert.Contains(t, msg, "[s3]")
	assert.Contains(t, msg, "[s2]")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, []interface{}{"s3"}, fields["metadata_only"])
	assert.Equal(t, []interface{}{"s2"}, fields["expression_only"])

	// Expression rows without metadata are kept with empty metadata columns.
	cond, _ := long.Column("condition")
	assert.Equal(t, "group_s1", cond.Cell(rowIndex(t, long, "t1", "s1")))
	assert.True(t, cond.IsNull(rowIndex(t, long, "t1", "s2")))
}

func TestTransform_FullOverlapNoWarning(t *testing.T) {
	p := NewPipeline(nil)
	logger, logs := observedLogger()
	p.SetLogger(logger)

	_, err := p.Transform(wide(t), metadata(t, "s2", "s1"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestTransform_DisjointMetadata(t *testing.T) {
	p := NewPipeline(nil)

	long, err := p.Transform(wide(t), metadata(t, "s9"), DefaultOptions())
	assert.Nil(t, long)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "no overlapping sample IDs")
}

func TestTransform_MetadataMissingSampleColumn(t *testing.T) {
	p := NewPipeline(nil)
	meta := relation(t, table.NewTextColumn("sample", []string{"s1"}))

	_, err := p.Transform(wide(t), meta, DefaultOptions())
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"sample_id"}, se.Columns)
}

func TestTransform_NonNumericSample(t *testing.T) {
	p := NewPipeline(nil)
	rel := relation(t,
		table.NewTextColumn("transcript_id", []string{"t1"}),
		table.NewTextColumn("gene_id", []string{"g1"}),
		table.NewTextColumn("s1", []string{"high"}),
	)

	_, err := p.Transform(rel, nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestProcess_MetadataFile(t *testing.T) {
	loader := &fakeLoader{files: map[string]*table.Relation{
		"counts.tsv": wide(t),
		"meta.csv":   metadata(t, "s1", "s2"),
	}}
	p := NewPipeline(loader)

	opts := DefaultOptions()
	opts.ExpressionPath = "counts.tsv"
	opts.MetadataPath = "meta.csv"

	long, err := p.Process(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"counts.tsv", "meta.csv"}, loader.calls)
	assert.Equal(t, []string{"transcript_id", "gene_id", "sample_id", "counts", "condition"}, long.Names())
}

func TestProcess_LoaderErrorPropagates(t *testing.T) {
	boom := errors.New("unsupported")
	loader := &fakeLoader{errs: map[string]error{"counts.json": boom}}
	p := NewPipeline(loader)

	opts := DefaultOptions()
	opts.ExpressionPath = "counts.json"

	_, err := p.Process(opts)
	assert.ErrorIs(t, err, boom)
}

func TestProcess_MetadataLoadErrorPropagates(t *testing.T) {
	loader := &fakeLoader{files: map[string]*table.Relation{"counts.tsv": wide(t)}}
	p := NewPipeline(loader)

	opts := DefaultOptions()
	opts.ExpressionPath = "counts.tsv"
	opts.MetadataPath = "missing.csv"

	_, err := p.Process(opts)
	var mf *missingFileError
	assert.True(t, errors.As(err, &mf))
}

func TestTransform_DuplicateFeatureRowsDoNotFanOut(t *testing.T) {
	rel := relation(t,
		table.NewTextColumn("transcript_id", []string{"t1", "t1", "t2"}),
		table.NewTextColumn("gene_id", []string{"g1", "g1", "g1"}),
		table.NewNumericColumn("s1", []float64{1, 1, 2}),
	)

	opts := DefaultOptions()
	opts.CPM = true
	opts.RelativeAbundance = true

	long, err := NewPipeline(nil).Transform(rel, nil, opts)
	require.NoError(t, err)
	require.Equal(t, 3, long.NumRows())
	assert.Equal(t, 25.0, value(t, long, "relative_abundance", 0))
	assert.Equal(t, 25.0, value(t, long, "relative_abundance", 1))
	assert.Equal(t, 500000.0, value(t, long, "CPM", 2))
}

func TestTransform_LeavesInputUnchanged(t *testing.T) {
	p := NewPipeline(nil)
	rel := wide(t)
	names := rel.Names()

	opts := DefaultOptions()
	opts.CPM = true
	opts.RelativeAbundance = true

	first, err := p.Transform(rel, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, names, rel.Names())

	second, err := p.Transform(rel, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, names, rel.Names())
	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, 75.0, value(t, second, "relative_abundance", rowIndex(t, second, "t2", "s1")))
}
