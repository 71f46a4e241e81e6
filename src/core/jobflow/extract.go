package jobflow

import (
	"encoding/json"
	"fmt"
)

// Extractor decodes the JSON payload a job embeds in its string-typed
// output field. Depth 1 decodes once; depth 2 handles integrations that
// nest a second JSON-encoded string under NestedField of the first
// decoded object.
type Extractor struct {
	Depth       int
	NestedField string
}

func (e Extractor) Extract(raw string) (json.RawMessage, error) {
	depth := e.Depth
	if depth == 0 {
		depth = 1
	}

	var payload json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &MalformedOutputError{Err: err}
	}
	if depth < 2 {
		return payload, nil
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(payload, &outer); err != nil {
		return nil, &MalformedOutputError{Err: fmt.Errorf("outer payload is not an object: %w", err)}
	}
	inner, ok := outer[e.NestedField]
	if !ok {
		return nil, &MalformedOutputError{Err: fmt.Errorf("nested field %q missing", e.NestedField)}
	}
	var innerStr string
	if err := json.Unmarshal(inner, &innerStr); err != nil {
		return nil, &MalformedOutputError{Err: fmt.Errorf("nested field %q is not a string: %w", e.NestedField, err)}
	}
	var result json.RawMessage
	if err := json.Unmarshal([]byte(innerStr), &result); err != nil {
		return nil, &MalformedOutputError{Err: err}
	}
	return result, nil
}
