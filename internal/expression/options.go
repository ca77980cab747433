package expression

// Names of the derived value columns in the long relation, and the suffixes
// of their per-sample wide columns.
const (
	CPMColumn               = "CPM"
	RelativeAbundanceColumn = "relative_abundance"

	CPMSuffix               = "_" + CPMColumn
	RelativeAbundanceSuffix = "_" + RelativeAbundanceColumn
)

// Options configures a pipeline run.
type Options struct {
	// ExpressionPath is the wide expression matrix file.
	ExpressionPath string
	// MetadataPath is the optional sample metadata file. Empty means none.
	MetadataPath string

	// MeasureName names the primary value column of the long relation.
	MeasureName string

	CPM               bool
	RelativeAbundance bool

	// GeneIDColumn is optional; empty disables gene grouping.
	GeneIDColumn string
	// TranscriptIDColumn is required.
	TranscriptIDColumn string
	// SampleIDColumn names the sample column of the long relation and the
	// join key in the metadata relation.
	SampleIDColumn string
}

// DefaultOptions returns the default column names with every derived
// metric disabled.
func DefaultOptions() Options {
	return Options{
		MeasureName:        "counts",
		GeneIDColumn:       "gene_id",
		TranscriptIDColumn: "transcript_id",
		SampleIDColumn:     "sample_id",
	}
}

// FeatureColumns returns the identifier columns held fixed through reshaping.
func (o Options) FeatureColumns() []string {
	cols := []string{o.TranscriptIDColumn}
	if o.GeneIDColumn != "" {
		cols = append(cols, o.GeneIDColumn)
	}
	return cols
}

// Validate checks the options without touching any file.
func (o Options) Validate() error {
	if o.TranscriptIDColumn == "" {
		return &ConfigurationError{Option: "transcript_id_column", Message: "is required and cannot be empty"}
	}
	if o.MeasureName == "" {
		return &ConfigurationError{Option: "expression_measure_name", Message: "cannot be empty"}
	}
	if o.SampleIDColumn == "" {
		return &ConfigurationError{Option: "metadata_sample_id_column", Message: "cannot be empty"}
	}
	if o.GeneIDColumn == o.TranscriptIDColumn {
		return &ConfigurationError{Option: "gene_id_column", Message: "must differ from transcript_id_column"}
	}

	reserved := map[string]string{
		CPMColumn:               "derived CPM column",
		RelativeAbundanceColumn: "derived relative abundance column",
	}
	for _, c := range o.FeatureColumns() {
		reserved[c] = "feature identifier column"
	}

	if what, ok := reserved[o.SampleIDColumn]; ok {
		return &ConfigurationError{Option: "metadata_sample_id_column",
			Message: "collides with the " + what + " " + o.SampleIDColumn}
	}
	if o.MeasureName == o.SampleIDColumn {
		return &ConfigurationError{Option: "expression_measure_name",
			Message: "collides with the sample id column " + o.SampleIDColumn}
	}
	if what, ok := reserved[o.MeasureName]; ok {
		return &ConfigurationError{Option: "expression_measure_name",
			Message: "collides with the " + what + " " + o.MeasureName}
	}
	return nil
}
