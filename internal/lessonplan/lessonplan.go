// Package lessonplan drafts lesson plans for a unit standard with an AI
// backend and validates the structured reply.
package lessonplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/vocatrack/internal/ai"
	"github.com/p-n-ai/vocatrack/internal/curriculum"
)

const (
	defaultDurationMinutes = 60
	maxDurationMinutes     = 8 * 60
)

// ErrInvalidReply is returned when the backend answers with something that is
// not a lesson plan.
var ErrInvalidReply = errors.New("invalid lesson plan reply")

// Completer is the subset of the AI router the generator needs.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// Request describes the lesson to plan.
type Request struct {
	Topic           string `json:"topic"`
	DurationMinutes int    `json:"durationMinutes"`
	LearnerCount    int    `json:"learnerCount"`
}

// Activity is one timed block of a lesson.
type Activity struct {
	Name        string `json:"name"`
	Minutes     int    `json:"minutes"`
	Description string `json:"description"`
}

// LessonPlan is the validated reply.
type LessonPlan struct {
	UnitStandardID string     `json:"unitStandardId"`
	Title          string     `json:"title"`
	Objectives     []string   `json:"objectives"`
	Activities     []Activity `json:"activities"`
	Assessment     string     `json:"assessment"`
	Model          string     `json:"model"`
}

// ValidationError reports a bad request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Generator drafts lesson plans.
type Generator struct {
	ai     Completer
	schema *gojsonschema.Schema
	model  string
}

// NewGenerator creates a generator backed by c. model may be empty to use the
// provider default.
func NewGenerator(c Completer, model string) (*Generator, error) {
	if c == nil {
		return nil, fmt.Errorf("completer is nil")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(replySchema))
	if err != nil {
		return nil, fmt.Errorf("compile lesson plan schema: %w", err)
	}
	return &Generator{ai: c, schema: schema, model: model}, nil
}

// Generate asks the backend for a lesson plan for unit and validates the reply.
func (g *Generator) Generate(ctx context.Context, unit curriculum.UnitStandard, req Request) (LessonPlan, error) {
	if unit.ID == "" {
		return LessonPlan{}, &ValidationError{Field: "unitStandardId", Message: "is required"}
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = defaultDurationMinutes
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > maxDurationMinutes {
		return LessonPlan{}, &ValidationError{
			Field:   "durationMinutes",
			Message: fmt.Sprintf("must be between 1 and %d", maxDurationMinutes),
		}
	}

	resp, err := g.ai.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: userPrompt(unit, req)},
		},
		Model:       g.model,
		Temperature: 0.4,
		JSON:        true,
		Purpose:     "lesson_plan",
	})
	if err != nil {
		return LessonPlan{}, fmt.Errorf("request lesson plan: %w", err)
	}

	plan, err := g.parse(resp.Content)
	if err != nil {
		slog.Warn("lesson plan reply rejected",
			"unit_standard_id", unit.ID,
			"model", resp.Model,
			"error", err,
		)
		return LessonPlan{}, err
	}
	plan.UnitStandardID = unit.ID
	plan.Model = resp.Model
	return plan, nil
}

func (g *Generator) parse(content string) (LessonPlan, error) {
	body := stripFence(content)
	result, err := g.schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return LessonPlan{}, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return LessonPlan{}, fmt.Errorf("%w: %s", ErrInvalidReply, strings.Join(msgs, "; "))
	}

	var plan LessonPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return LessonPlan{}, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return plan, nil
}

// stripFence removes a surrounding markdown code fence, which some models add
// even in JSON mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
