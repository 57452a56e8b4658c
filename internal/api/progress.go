package api

import (
	"log/slog"
	"net/http"

	"github.com/p-n-ai/vocatrack/internal/assessment"
	"github.com/p-n-ai/vocatrack/internal/group"
	"github.com/p-n-ai/vocatrack/internal/pacing"
	"github.com/p-n-ai/vocatrack/internal/rollout"
)

type groupProgress struct {
	GroupID  string `json:"groupId"`
	Students int    `json:"students"`
	pacing.Report
}

// handleGroupProgress derives pacing for a group. Views are cached per group
// and day; any assessment or plan change invalidates them.
func (s *Server) handleGroupProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	today := s.now()
	name := "group:" + id + ":" + rollout.NewDate(today).String()

	var (
		gen      int64
		cacheErr error
	)
	if s.cache != nil {
		var cached groupProgress
		var ok bool
		gen, ok, cacheErr = s.cache.Get(ctx, name, &cached)
		switch {
		case cacheErr != nil:
			slog.Warn("progress cache read failed", "group_id", id, "error", cacheErr)
		case ok:
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	g, err := s.groups.GetGroup(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := planOf(g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	students, err := s.groups.ListStudents(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ids := group.StudentIDs(students)
	ix := assessment.NewIndex(nil)
	if len(ids) > 0 {
		ix, err = s.svc.Snapshot(ctx, assessment.Filter{StudentIDs: ids})
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	view := groupProgress{
		GroupID:  id,
		Students: len(ids),
		Report:   pacing.Derive(plan, ix, ids, today),
	}
	if s.cache != nil && cacheErr == nil {
		if err := s.cache.Set(ctx, gen, name, view); err != nil {
			slog.Warn("progress cache write failed", "group_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, view)
}

type studentProgress struct {
	Student        group.Student              `json:"student"`
	Credits        int                        `json:"credits"`
	CreditDrift    assessment.CreditDrift     `json:"creditDrift"`
	Compliant      bool                       `json:"compliant"`
	ComplianceGaps []assessment.ComplianceGap `json:"complianceGaps"`
	Alert          pacing.StudentAlert        `json:"alert"`
}

// handleStudentProgress reconciles one student's stored totals with the
// assessment rows. Credits come from the curriculum; compliance is checked
// against the group's plan when one exists.
func (s *Server) handleStudentProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := s.groups.GetStudent(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.groups.GetGroup(ctx, st.GroupID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap := s.cur.Snapshot()
	credits := snap.Credits()
	var unitIDs []string
	projected := 0.0
	plan, hasPlan, err := g.Plan()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if hasPlan {
		unitIDs = planUnitIDs(plan)
		projected = pacing.ProjectedProgress(plan, s.now())
	} else {
		for _, u := range snap.UnitStandards() {
			unitIDs = append(unitIDs, u.ID)
		}
	}

	ix, err := s.svc.Snapshot(ctx, assessment.Filter{StudentID: st.ID})
	if err != nil {
		writeError(w, r, err)
		return
	}

	drift := assessment.ReconcileCredits(ix, st.ID, st.TotalCreditsEarned, credits)
	if !drift.InSync() {
		slog.Warn("stored credits diverge from assessments",
			"student_id", st.ID,
			"stored", drift.Stored,
			"derived", drift.Derived,
		)
	}
	gaps := assessment.ComplianceGaps(ix, st.ID, unitIDs)
	if gaps == nil {
		gaps = []assessment.ComplianceGap{}
	}

	writeJSON(w, http.StatusOK, studentProgress{
		Student:        st,
		Credits:        drift.Derived,
		CreditDrift:    drift,
		Compliant:      assessment.Compliant(ix, st.ID, unitIDs),
		ComplianceGaps: gaps,
		Alert:          s.alerts.Evaluate(st.Progress, projected),
	})
}

func planUnitIDs(plan rollout.Plan) []string {
	var ids []string
	for _, m := range plan.Modules {
		for _, u := range m.UnitStandards {
			ids = append(ids, u.UnitStandardID)
		}
	}
	return ids
}
