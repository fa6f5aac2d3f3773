package extract

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema constrains what the vision model may hand back. Anything that
// fails validation is treated as an extraction failure, never partially
// accepted.
const resultSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["fullText", "materials", "measurements", "instructions"],
  "properties": {
    "fullText":     {"type": "string"},
    "materials":    {"type": "array", "items": {"type": "string"}},
    "measurements": {"type": "array", "items": {"type": "string"}},
    "instructions": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledSchema = jsonschema.MustCompileString("extraction-result.json", resultSchema)

// parseValidated unmarshals a model reply into a Result after schema
// validation.
func parseValidated(data []byte) (*Result, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("extraction reply is not JSON: %w", err)
	}
	if err := compiledSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("extraction reply failed validation: %w", err)
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode extraction reply: %w", err)
	}
	r.Normalize()
	return &r, nil
}
