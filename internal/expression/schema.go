package expression

import (
	"github.com/inodb/vibe-isoform/internal/table"
)

// Schema is the validated split of a wide expression relation into feature
// identifier columns and sample measurement columns. It is computed once
// and reused by every later step.
type Schema struct {
	Features []string
	Samples  []string
}

// ValidateSchema checks that the identifier columns exist and that every
// other column is numeric. geneCol may be empty.
func ValidateSchema(rel *table.Relation, transcriptCol, geneCol string) (Schema, error) {
	if transcriptCol == "" {
		return Schema{}, &ConfigurationError{Option: "transcript_id_column", Message: "is required and cannot be empty"}
	}

	features := []string{transcriptCol}
	if geneCol != "" {
		features = append(features, geneCol)
	}

	var missing []string
	for _, c := range features {
		if !rel.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return Schema{}, &SchemaError{
			Message: "feature id columns missing from the expression relation",
			Columns: missing,
		}
	}

	isFeature := make(map[string]bool, len(features))
	for _, c := range features {
		isFeature[c] = true
	}

	var samples, nonNumeric []string
	for _, c := range rel.Columns() {
		if isFeature[c.Name] {
			continue
		}
		if c.Kind != table.Numeric {
			nonNumeric = append(nonNumeric, c.Name)
			continue
		}
		samples = append(samples, c.Name)
	}
	if len(nonNumeric) > 0 {
		return Schema{}, &SchemaError{
			Message: "columns expected to be numeric are not",
			Columns: nonNumeric,
		}
	}

	return Schema{Features: features, Samples: samples}, nil
}
