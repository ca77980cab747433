package expression

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrConfiguration indicates a missing or inconsistent option.
	ErrConfiguration = errors.New("configuration error")

	// ErrSchema indicates a relation does not have the required shape.
	ErrSchema = errors.New("schema error")
)

// ConfigurationError reports an invalid Options value.
type ConfigurationError struct {
	Option  string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Option, e.Message)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// SchemaError reports missing, mistyped or conflicting columns.
type SchemaError struct {
	Message string
	Columns []string
}

func (e *SchemaError) Error() string {
	if len(e.Columns) == 0 {
		return "schema error: " + e.Message
	}
	return fmt.Sprintf("schema error: %s: [%s]", e.Message, strings.Join(e.Columns, ", "))
}

// Is matches ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
