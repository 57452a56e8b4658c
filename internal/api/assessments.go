package api

import (
	"net/http"

	"github.com/p-n-ai/vocatrack/internal/assessment"
	"github.com/p-n-ai/vocatrack/internal/group"
)

// handleListAssessments returns stored rows filtered by student, group roster,
// unit standard and type.
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := assessment.Filter{
		StudentID:      q.Get("studentId"),
		UnitStandardID: q.Get("unitStandardId"),
		Type:           assessment.Type(q.Get("type")),
	}
	if f.Type != "" && !f.Type.Valid() {
		writeError(w, r, &assessment.ValidationError{Field: "type", Message: "unknown assessment type " + string(f.Type)})
		return
	}

	if groupID := q.Get("groupId"); groupID != "" {
		students, err := s.groups.ListStudents(r.Context(), groupID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if len(students) == 0 {
			writeJSON(w, http.StatusOK, []assessment.Assessment{})
			return
		}
		f.StudentIDs = group.StudentIDs(students)
	}

	ix, err := s.svc.Snapshot(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ix.Rows())
}

// toggleRequest addresses a unit-standard row, or with ModuleID set a
// module's WORKPLACE row.
type toggleRequest struct {
	StudentID      string            `json:"studentId"`
	UnitStandardID string            `json:"unitStandardId"`
	ModuleID       string            `json:"moduleId"`
	Type           assessment.Type   `json:"type"`
	Result         assessment.Result `json:"result"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		res assessment.ToggleResult
		err error
	)
	if req.ModuleID != "" {
		res, err = s.toggleWorkplace(r, req)
	} else {
		key := assessment.Key{StudentID: req.StudentID, UnitStandardID: req.UnitStandardID, Type: req.Type}
		res, err = s.svc.Toggle(mutationContext(r), key, req.Result)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) toggleWorkplace(r *http.Request, req toggleRequest) (assessment.ToggleResult, error) {
	if req.UnitStandardID != "" {
		return assessment.ToggleResult{}, &assessment.ValidationError{Field: "moduleId", Message: "cannot be combined with unitStandardId"}
	}
	if req.Type != "" && req.Type != assessment.TypeWorkplace {
		return assessment.ToggleResult{}, &assessment.ValidationError{Field: "type", Message: "module rows are WORKPLACE only"}
	}
	return s.svc.ToggleWorkplace(mutationContext(r), req.StudentID, req.ModuleID, req.Result)
}

type bulkPassRequest struct {
	UnitStandardID string          `json:"unitStandardId"`
	AssessmentType assessment.Type `json:"assessmentType"`
	StudentIDs     []string        `json:"studentIds"`
}

type bulkPassResponse struct {
	assessment.BulkResult
	SuccessCount int    `json:"successCount"`
	FailedCount  int    `json:"failedCount"`
	Message      string `json:"message"`
}

// handleBulkPass reports per-student failures in the body; the request itself
// succeeds as long as the input was valid.
func (s *Server) handleBulkPass(w http.ResponseWriter, r *http.Request) {
	var req bulkPassRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.BulkPass(mutationContext(r), req.UnitStandardID, req.AssessmentType, req.StudentIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkPassResponse{
		BulkResult:   res,
		SuccessCount: res.SuccessCount(),
		FailedCount:  len(res.Failed),
		Message:      res.Message(s.lang),
	})
}
