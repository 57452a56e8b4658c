package api

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/p-n-ai/vocatrack/internal/audit"
	"github.com/p-n-ai/vocatrack/internal/export"
	"github.com/p-n-ai/vocatrack/internal/group"
	"github.com/p-n-ai/vocatrack/internal/rollout"
)

type generateRolloutRequest struct {
	LearnerCount *int `json:"learnerCount"`
}

// handleGenerateRollout regenerates and replaces a group's plan. The learner
// count defaults to the roster size.
func (s *Server) handleGenerateRollout(w http.ResponseWriter, r *http.Request) {
	var req generateRolloutRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := mutationContext(r)
	id := r.PathValue("id")
	g, err := s.groups.GetGroup(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var learners int
	if req.LearnerCount != nil {
		learners = *req.LearnerCount
	} else {
		students, err := s.groups.ListStudents(ctx, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		learners = len(students)
	}

	plan, err := rollout.Generate(g.Name, learners, g.StartDateString(), s.cur.Snapshot())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.groups.SavePlan(ctx, id, plan); err != nil {
		writeError(w, r, fmt.Errorf("save rollout plan: %w", err))
		return
	}

	slog.Info("rollout plan generated",
		"group_id", id,
		"learners", learners,
		"modules", len(plan.Modules),
		"start_date", plan.StartDate.String(),
	)
	s.invalidate(ctx)
	if err := s.audit.LogEvent(ctx, audit.Event{
		EventType: audit.EventRolloutGenerated,
		Subject:   id,
		Data: map[string]any{
			"learnerCount": learners,
			"startDate":    plan.StartDate.String(),
			"modules":      len(plan.Modules),
		},
	}); err != nil {
		slog.Warn("audit event not recorded", "type", audit.EventRolloutGenerated, "group_id", id, "error", err)
	}

	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGetRollout(w http.ResponseWriter, r *http.Request) {
	plan, err := s.loadPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleExportRollout renders the stored plan as a spreadsheet. The workbook
// is buffered so a rendering failure can still produce a JSON error.
func (s *Server) handleExportRollout(w http.ResponseWriter, r *http.Request) {
	plan, err := s.loadPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePlan(&buf, plan); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(plan)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// loadPlan returns the stored plan of a group, or errNotFound when none has
// been generated.
func (s *Server) loadPlan(ctx context.Context, groupID string) (rollout.Plan, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return rollout.Plan{}, err
	}
	return planOf(g)
}

func planOf(g group.Group) (rollout.Plan, error) {
	plan, ok, err := g.Plan()
	if err != nil {
		return rollout.Plan{}, fmt.Errorf("decode rollout plan of group %s: %w", g.ID, err)
	}
	if !ok {
		return rollout.Plan{}, fmt.Errorf("%w: group %s has no rollout plan", errNotFound, g.ID)
	}
	return plan, nil
}

func (s *Server) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("progress cache not invalidated", "error", err)
	}
}
