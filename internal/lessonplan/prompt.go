package lessonplan

import (
	"fmt"
	"strings"

	"github.com/p-n-ai/vocatrack/internal/curriculum"
)

const systemPrompt = `You write lesson plans for facilitators of vocational training.
Reply with a single JSON object and nothing else, using exactly these keys:
"title" (string), "objectives" (array of strings), "activities" (array of
objects with "name", "minutes" and "description"), "assessment" (string).
The activity minutes must add up to the requested duration.`

const replySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "objectives", "activities", "assessment"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "objectives": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "activities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "minutes"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "minutes": {"type": "integer", "minimum": 1},
          "description": {"type": "string"}
        }
      }
    },
    "assessment": {"type": "string"}
  }
}`

func userPrompt(unit curriculum.UnitStandard, req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unit standard %s: %s\n", unit.Code, unit.Title)
	if unit.Level > 0 {
		fmt.Fprintf(&b, "NQF level: %d\n", unit.Level)
	}
	fmt.Fprintf(&b, "Credits: %d\n", unit.Credits)
	if req.Topic != "" {
		fmt.Fprintf(&b, "Focus topic: %s\n", req.Topic)
	}
	if req.LearnerCount > 0 {
		fmt.Fprintf(&b, "Learners: %d\n", req.LearnerCount)
	}
	fmt.Fprintf(&b, "Duration: %d minutes\n", req.DurationMinutes)
	return b.String()
}
