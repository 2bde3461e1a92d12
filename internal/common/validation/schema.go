// Package validation checks structured values against JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FrontMatterSchema describes the machine-readable block at the top of a tour document.
const FrontMatterSchema = `{
	"type": "object",
	"required": ["arctic_code", "schema_version"],
	"properties": {
		"arctic_code":    {"type": "string", "pattern": "^[^/\\s]*$"},
		"arctic_id":      {"type": "string"},
		"website_id":     {"type": "string"},
		"variant":        {"type": "string", "enum": ["Standard", "Private"]},
		"schema_version": {"type": "integer", "minimum": 1}
	},
	"additionalProperties": true
}`

// ProposalSchema describes the upstream update payload.
const ProposalSchema = `{
	"type": "object",
	"required": ["sync_source"],
	"properties": {
		"subtitle":    {"type": "string"},
		"description": {"type": "string", "maxLength": 1500},
		"sync_source": {"type": "string", "const": "outline_update"}
	},
	"minProperties": 2,
	"additionalProperties": false
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles schemaJSON.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator is NewValidator for package-level schemas known to compile.
func MustValidator(schemaJSON string) *Validator {
	v, err := NewValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a Go value (map, struct with json tags) against the schema.
func (v *Validator) Validate(document interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
