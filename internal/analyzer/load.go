package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const samplesSchemaURL = "schema://analyzer-samples.json"

// samplesSchema describes a sample import file: a JSON array of samples.
const samplesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["game", "score", "level", "skillLevel"],
    "properties": {
      "game": {"type": "string", "minLength": 1},
      "score": {"type": "integer", "minimum": 0},
      "level": {"type": "integer", "minimum": 0},
      "skillLevel": {"type": "string", "minLength": 1},
      "notes": {"type": "string"}
    },
    "additionalProperties": false
  }
}`

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func samplesValidator() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(samplesSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(samplesSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(samplesSchemaURL)
	})
	return compiledSchema, compileErr
}

// LoadSamples reads and validates a JSON sample file.
func LoadSamples(r io.Reader) ([]Sample, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := samplesValidator()
	if err != nil {
		return nil, fmt.Errorf("compile sample schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var samples []Sample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	for i := range samples {
		samples[i].Game = NormalizeGame(string(samples[i].Game))
	}
	return samples, nil
}
