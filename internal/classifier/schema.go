package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const resultSchema = `{
  "type": "object",
  "required": ["priority", "department", "summary", "suggestedAction"],
  "properties": {
    "priority": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]},
    "department": {"type": "string", "minLength": 1},
    "summary": {"type": "string", "minLength": 1},
    "suggestedAction": {"type": "string", "minLength": 1}
  }
}`

var resultSchemaLoader = gojsonschema.NewStringLoader(resultSchema)

// ParseResult strips markdown fences, checks the payload against the result
// schema and decodes it.
func ParseResult(raw string) (Result, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return Result{}, errors.New("empty model output")
	}

	validation, err := gojsonschema.Validate(resultSchemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return Result{}, fmt.Errorf("model output is not JSON: %w", err)
	}
	if !validation.Valid() {
		msgs := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			msgs = append(msgs, e.String())
		}
		return Result{}, fmt.Errorf("model output failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var r Result
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return Result{}, fmt.Errorf("decode model output: %w", err)
	}
	r.Department = strings.TrimSpace(r.Department)
	r.Summary = strings.TrimSpace(r.Summary)
	r.SuggestedAction = strings.TrimSpace(r.SuggestedAction)
	return r, nil
}

func cleanJSON(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimSuffix(response, "```")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
	}
	return strings.TrimSpace(response)
}
