// Package validator checks inbound JSON payloads against embedded JSON schemas.
package validator

import (
	"embed"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names.
const (
	SessionUpdate = "session_update"
	AskRequest    = "ask_request"
)

// Result is the outcome of one validation.
type Result struct {
	Valid       bool      `json:"valid"`
	Errors      []string  `json:"errors,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Validator holds compiled schemas.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	v := &Validator{schemas: map[string]*gojsonschema.Schema{}}
	for _, name := range []string{SessionUpdate, AskRequest} {
		data, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// Validate checks raw against the named schema.
func (v *Validator) Validate(name string, raw []byte) Result {
	result := Result{Valid: true, GeneratedAt: time.Now().UTC()}
	schema, ok := v.schemas[name]
	if !ok {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unknown schema %q", name))
		return result
	}
	if len(raw) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "request body is empty")
		return result
	}

	schemaResult, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("schema validation error: %v", err))
	} else if !schemaResult.Valid() {
		result.Valid = false
		for _, e := range schemaResult.Errors() {
			result.Errors = append(result.Errors, e.String())
		}
	}
	return result
}
