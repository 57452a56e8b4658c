package api

import (
	"net/http"
	"strconv"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// handleAudit lists the newest audit events. limit defaults to 50 and is
// capped at 500.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, badRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, maxAuditLimit)
	}

	events, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
