// Package expression turns a wide transcript expression matrix into a long
// table with one row per (feature, sample), optionally adding CPM, relative
// transcript abundance and sample metadata.
package expression

import (
	"go.uber.org/zap"

	"github.com/inodb/vibe-isoform/internal/table"
)

// Loader reads a tabular file into a relation.
type Loader interface {
	Load(path string) (*table.Relation, error)
}

// Pipeline runs the expression transformation.
type Pipeline struct {
	loader Loader
	logger *zap.Logger
}

// NewPipeline creates a pipeline reading files through l.
func NewPipeline(l Loader) *Pipeline {
	return &Pipeline{
		loader: l,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger used for warnings and progress messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Process loads the expression file (and the metadata file, if set) and
// returns the long relation. Options are validated before any file is read.
func (p *Pipeline) Process(opts Options) (*table.Relation, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	expr, err := p.loader.Load(opts.ExpressionPath)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("loaded expression matrix",
		zap.String("path", opts.ExpressionPath),
		zap.Int("rows", expr.NumRows()),
		zap.Int("columns", expr.NumCols()))

	long, err := p.reshape(expr, opts)
	if err != nil {
		return nil, err
	}

	if opts.MetadataPath == "" {
		return long, nil
	}

	meta, err := p.loader.Load(opts.MetadataPath)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("loaded metadata",
		zap.String("path", opts.MetadataPath),
		zap.Int("rows", meta.NumRows()))

	return p.mergeMetadata(long, meta, opts.SampleIDColumn)
}

// Transform runs the pipeline on relations already in memory. meta may be
// nil. The path fields of opts are ignored. expr is left unchanged.
func (p *Pipeline) Transform(expr, meta *table.Relation, opts Options) (*table.Relation, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	long, err := p.reshape(expr, opts)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return long, nil
	}
	return p.mergeMetadata(long, meta, opts.SampleIDColumn)
}

// reshape validates the wide relation, derives the enabled metrics and
// returns the long relation with one value column per metric.
func (p *Pipeline) reshape(src *table.Relation, opts Options) (*table.Relation, error) {
	expr := src.Clone()
	schema, err := ValidateSchema(expr, opts.TranscriptIDColumn, opts.GeneIDColumn)
	if err != nil {
		return nil, err
	}

	var raColumns, cpmColumns []string

	if opts.RelativeAbundance {
		if opts.GeneIDColumn == "" {
			p.logger.Warn("relative abundance was requested but no gene id column was given; skipping relative abundance")
		} else {
			cols, err := RelativeAbundance(expr, schema, opts.GeneIDColumn)
			if err != nil {
				return nil, err
			}
			if raColumns, err = appendDerived(expr, cols); err != nil {
				return nil, err
			}
		}
	}

	if opts.CPM {
		cols, zeroSum := CPM(expr, schema)
		if len(zeroSum) > 0 {
			p.logger.Warn("samples with a total of zero get CPM 0 for every feature",
				zap.Strings("samples", zeroSum))
		}
		if cpmColumns, err = appendDerived(expr, cols); err != nil {
			return nil, err
		}
	}

	long, err := Melt(expr, MeltSpec{
		IDColumns:    schema.Features,
		ValueColumns: schema.Samples,
		VariableName: opts.SampleIDColumn,
		ValueName:    opts.MeasureName,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug("reshaped expression matrix",
		zap.Int("features", expr.NumRows()),
		zap.Int("samples", len(schema.Samples)),
		zap.Int("rows", long.NumRows()))

	keys := append(append([]string{}, schema.Features...), opts.SampleIDColumn)

	derived := []struct {
		columns []string
		value   string
		suffix  string
	}{
		{cpmColumns, CPMColumn, CPMSuffix},
		{raColumns, RelativeAbundanceColumn, RelativeAbundanceSuffix},
	}
	for _, d := range derived {
		if d.columns == nil {
			continue
		}
		metric, err := Melt(expr, MeltSpec{
			IDColumns:    schema.Features,
			ValueColumns: d.columns,
			VariableName: opts.SampleIDColumn,
			ValueName:    d.value,
			StripSuffix:  d.suffix,
		})
		if err != nil {
			return nil, err
		}
		if long, err = attachAligned(long, metric, keys, d.value); err != nil {
			return nil, err
		}
	}

	return long, nil
}

// mergeMetadata checks sample id overlap and left-joins meta onto long.
func (p *Pipeline) mergeMetadata(long, meta *table.Relation, sampleCol string) (*table.Relation, error) {
	if !meta.Has(sampleCol) {
		return nil, &SchemaError{
			Message: "metadata sample id column is not present in the metadata relation",
			Columns: []string{sampleCol},
		}
	}

	overlap, err := SampleOverlap(long, meta, sampleCol)
	if err != nil {
		return nil, err
	}
	if len(overlap.Shared) == 0 {
		return nil, &SchemaError{Message: "no overlapping sample IDs found between expression data and metadata"}
	}
	if overlap.Partial() {
		p.logger.Warn(overlap.Warning(),
			zap.Strings("metadata_only", overlap.MetadataOnly),
			zap.Strings("expression_only", overlap.ExpressionOnly))
	}

	merged, err := LeftJoin(long, meta, []string{sampleCol})
	if err != nil {
		return nil, err
	}
	p.logger.Debug("merged metadata",
		zap.Int("shared_samples", len(overlap.Shared)),
		zap.Int("rows", merged.NumRows()))
	return merged, nil
}
