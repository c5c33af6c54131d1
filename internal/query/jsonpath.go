package query

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// ExtractJSONPath evaluates a JSONPath expression against a JSON document
// and returns the matched values. An expression matching nothing returns an
// empty slice, not an error.
func ExtractJSONPath(path string, doc []byte) ([]any, error) {
	if len(doc) == 0 {
		return nil, nil
	}

	parsed, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("parse jsonpath %q: %w", path, err)
	}

	var data any
	if err := json.Unmarshal(doc, &data); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return parsed.Get(data), nil
}
