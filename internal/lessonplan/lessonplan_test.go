package lessonplan_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/p-n-ai/vocatrack/internal/ai"
	"github.com/p-n-ai/vocatrack/internal/curriculum"
	"github.com/p-n-ai/vocatrack/internal/lessonplan"
)

var unit = curriculum.UnitStandard{ID: "us-1", Code: "119472", Title: "Oral communication", Credits: 5, Level: 3}

const validReply = `{
  "title": "Speaking to an audience",
  "objectives": ["Adapt tone to the audience"],
  "activities": [
    {"name": "Warm-up", "minutes": 15, "description": "Pair introductions"},
    {"name": "Role play", "minutes": 45, "description": "Customer briefing"}
  ],
  "assessment": "Observation checklist"
}`

func newGenerator(t *testing.T, p ai.Provider) *lessonplan.Generator {
	t.Helper()
	router := ai.NewRouter(0)
	router.Register("mock", p)
	g, err := lessonplan.NewGenerator(router, "")
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func TestGenerate(t *testing.T) {
	mock := ai.NewMockProvider(validReply)
	g := newGenerator(t, mock)

	plan, err := g.Generate(t.Context(), unit, lessonplan.Request{Topic: "briefings", LearnerCount: 12})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if plan.UnitStandardID != "us-1" || plan.Title != "Speaking to an audience" || plan.Model != "mock" {
		t.Errorf("plan = %+v", plan)
	}
	if len(plan.Activities) != 2 || plan.Activities[1].Minutes != 45 {
		t.Errorf("Activities = %+v", plan.Activities)
	}

	req := mock.LastRequest()
	if req == nil || !req.JSON || len(req.Messages) != 2 {
		t.Fatalf("request = %+v, want JSON mode with system and user messages", req)
	}
	prompt := req.Messages[1].Content
	for _, want := range []string{"119472", "Oral communication", "briefings", "Learners: 12", "Duration: 60 minutes"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerate_AcceptsFencedReply(t *testing.T) {
	g := newGenerator(t, ai.NewMockProvider("```json\n"+validReply+"\n```"))
	if _, err := g.Generate(t.Context(), unit, lessonplan.Request{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestGenerate_RejectsInvalidReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "Here is your lesson plan!"},
		{"missing objectives", `{"title":"x","activities":[{"name":"a","minutes":5}],"assessment":""}`},
		{"zero minute activity", `{"title":"x","objectives":["o"],"activities":[{"name":"a","minutes":0}],"assessment":""}`},
		{"empty title", `{"title":"","objectives":["o"],"activities":[{"name":"a","minutes":5}],"assessment":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t, ai.NewMockProvider(tt.reply))
			_, err := g.Generate(t.Context(), unit, lessonplan.Request{})
			if !errors.Is(err, lessonplan.ErrInvalidReply) {
				t.Errorf("Generate() error = %v, want ErrInvalidReply", err)
			}
		})
	}
}

func TestGenerate_ValidatesRequest(t *testing.T) {
	mock := ai.NewMockProvider(validReply)
	g := newGenerator(t, mock)

	tests := []struct {
		name  string
		unit  curriculum.UnitStandard
		req   lessonplan.Request
		field string
	}{
		{"missing unit", curriculum.UnitStandard{}, lessonplan.Request{}, "unitStandardId"},
		{"negative duration", unit, lessonplan.Request{DurationMinutes: -5}, "durationMinutes"},
		{"too long", unit, lessonplan.Request{DurationMinutes: 9 * 60}, "durationMinutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(t.Context(), tt.unit, tt.req)
			var verr *lessonplan.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Generate() error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
	if mock.Calls() != 0 {
		t.Errorf("backend called %d times for invalid requests", mock.Calls())
	}
}

func TestGenerate_BackendFailure(t *testing.T) {
	g := newGenerator(t, &ai.MockProvider{Err: errors.New("upstream down")})
	_, err := g.Generate(t.Context(), unit, lessonplan.Request{})
	if err == nil || errors.Is(err, lessonplan.ErrInvalidReply) {
		t.Errorf("Generate() error = %v, want a backend error", err)
	}
}

func TestNewGenerator_NilCompleter(t *testing.T) {
	if _, err := lessonplan.NewGenerator(nil, ""); err == nil {
		t.Error("NewGenerator(nil) should fail")
	}
}
