// Package schema validates request payloads against JSON Schemas before
// they are decoded.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema names.
const (
	ProcessRequest   = "process_request"
	ResultsRequest   = "results_request"
	EvaluateRequest  = "evaluate_request"
	QuestionsRequest = "questions_request"
	AudioFrame       = "audio_frame"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid payload")

// Validator holds the resolved schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Resolved
}

// New resolves the built-in schemas.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*jsonschema.Resolved)}
	for name, s := range builtin() {
		r, err := s.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		v.schemas[name] = r
	}
	return v, nil
}

// MustNew is New for package initialization.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a raw JSON document against the named schema.
func (v *Validator) Validate(name string, data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return v.validate(name, instance)
}

// ValidateValue checks v's JSON encoding against the named schema.
func (v *Validator) ValidateValue(name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return v.Validate(name, data)
}

func (v *Validator) validate(name string, instance any) error {
	r, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	if err := r.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func builtin() map[string]*jsonschema.Schema {
	// Schema nodes are never shared between properties.
	str := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }

	return map[string]*jsonschema.Schema{
		ProcessRequest: {
			Type:     "object",
			Required: []string{"text"},
			Properties: map[string]*jsonschema.Schema{
				"text":  str(),
				"trace": {Type: "boolean"},
			},
		},
		ResultsRequest: {
			Type:     "object",
			Required: []string{"results"},
			Properties: map[string]*jsonschema.Schema{
				"results": {
					Type: "array",
					Items: &jsonschema.Schema{
						Type:     "object",
						Required: []string{"transcript"},
						Properties: map[string]*jsonschema.Schema{
							"transcript": str(),
							"isFinal":    {Type: "boolean"},
							"confidence": {Type: "number", Minimum: ptr(0.0), Maximum: ptr(1.0)},
						},
					},
				},
			},
		},
		EvaluateRequest: {
			Type:     "object",
			Required: []string{"question"},
			Properties: map[string]*jsonschema.Schema{
				"question":       {Type: "string", MinLength: ptr(1)},
				"expectedAnswer": str(),
				"answer":         str(),
			},
		},
		QuestionsRequest: {
			Type:     "object",
			Required: []string{"position", "experience", "techStack"},
			Properties: map[string]*jsonschema.Schema{
				"position":    {Type: "string", MinLength: ptr(1)},
				"description": str(),
				"experience":  {Type: "integer", Minimum: ptr(0.0), Maximum: ptr(60.0)},
				"techStack":   {Type: "string", MinLength: ptr(1)},
			},
		},
		AudioFrame: {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"sessionId":     str(),
				"audio":         str(),
				"audioOffsetMs": {Type: "integer", Minimum: ptr(0.0)},
			},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
