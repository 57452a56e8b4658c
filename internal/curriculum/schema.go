package curriculum

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
  "type": "object",
  "required": ["modules"],
  "properties": {
    "modules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "module_number", "name", "unit_standards"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "module_number": {"type": "integer", "minimum": 1},
          "name": {"type": "string"},
          "workplace_activity": {"type": "boolean"},
          "unit_standards": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "code", "title", "credits", "duration_days"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "code": {"type": "string"},
                "title": {"type": "string"},
                "credits": {"type": "integer", "minimum": 1},
                "level": {"type": "integer", "minimum": 1},
                "duration_days": {"type": "integer", "minimum": 1},
                "gap_days": {"type": "integer", "minimum": 0},
                "assessing_offset_days": {"type": "integer", "minimum": 0},
                "summative_offset_days": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateDocument checks a decoded YAML document against the curriculum schema.
func validateDocument(doc any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate curriculum: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("curriculum schema: %s", strings.Join(msgs, "; "))
}
