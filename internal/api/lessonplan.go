package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/p-n-ai/vocatrack/internal/ai"
	"github.com/p-n-ai/vocatrack/internal/lessonplan"
)

type lessonPlanRequest struct {
	UnitStandardID string `json:"unitStandardId"`
	lessonplan.Request
}

func (s *Server) handleLessonPlan(w http.ResponseWriter, r *http.Request) {
	if s.planner == nil {
		writeError(w, r, ai.ErrNoProvider)
		return
	}

	var req lessonPlanRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if req.UnitStandardID == "" {
		writeError(w, r, &lessonplan.ValidationError{Field: "unitStandardId", Message: "is required"})
		return
	}
	unit, ok := s.cur.Snapshot().UnitStandard(req.UnitStandardID)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: unit standard %s", errNotFound, req.UnitStandardID))
		return
	}

	plan, err := s.planner.Generate(r.Context(), unit, req.Request)
	if err != nil {
		writeError(w, r, upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// upstream tags AI failures that have no more specific classification.
func upstream(err error) error {
	var ve *lessonplan.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ai.ErrNoProvider),
		errors.Is(err, lessonplan.ErrInvalidReply),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", errUpstream, err)
}
