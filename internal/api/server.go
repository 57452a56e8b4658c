// Package api exposes the rollout, assessment and pacing operations over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/p-n-ai/vocatrack/internal/ai"
	"github.com/p-n-ai/vocatrack/internal/assessment"
	"github.com/p-n-ai/vocatrack/internal/audit"
	"github.com/p-n-ai/vocatrack/internal/curriculum"
	"github.com/p-n-ai/vocatrack/internal/group"
	"github.com/p-n-ai/vocatrack/internal/lessonplan"
	"github.com/p-n-ai/vocatrack/internal/pacing"
	"github.com/p-n-ai/vocatrack/internal/rollout"
	"github.com/p-n-ai/vocatrack/internal/workdays"
)

const (
	maxBodyBytes = 1 << 20
	checkTimeout = 2 * time.Second
)

// Curriculum supplies the current curriculum snapshot.
type Curriculum interface {
	Snapshot() curriculum.Snapshot
}

// ProgressCache stores derived progress views. Entries are tagged with the
// generation they were computed under so a concurrent invalidation wins.
type ProgressCache interface {
	Get(ctx context.Context, name string, dst any) (gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, name string, v any) error
	Invalidate(ctx context.Context) error
}

// LessonPlanner drafts lesson plans for a unit standard.
type LessonPlanner interface {
	Generate(ctx context.Context, unit curriculum.UnitStandard, req lessonplan.Request) (lessonplan.LessonPlan, error)
}

// Check is one readiness dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Config wires the server to its collaborators. Cache, LessonPlans, Feed and
// Audit are optional. GET /api/audit is served when Audit is also an
// audit.Reader.
type Config struct {
	Curriculum  Curriculum
	Groups      group.Store
	Assessments *assessment.Service
	Cache       ProgressCache
	LessonPlans LessonPlanner
	Feed        http.Handler
	Audit       audit.Logger
	Alerts      pacing.AlertPolicy
	Language    language.Tag
	Checks      []Check
	Now         func() time.Time
}

// Server implements the HTTP API.
type Server struct {
	cur     Curriculum
	groups  group.Store
	svc     *assessment.Service
	cache   ProgressCache
	planner LessonPlanner
	feed    http.Handler
	audit   audit.Logger
	history audit.Reader
	alerts  pacing.AlertPolicy
	lang    language.Tag
	checks  []Check
	now     func() time.Time
	handler http.Handler
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	s := &Server{
		cur:     cfg.Curriculum,
		groups:  cfg.Groups,
		svc:     cfg.Assessments,
		cache:   cfg.Cache,
		planner: cfg.LessonPlans,
		feed:    cfg.Feed,
		audit:   cfg.Audit,
		alerts:  cfg.Alerts,
		lang:    cfg.Language,
		checks:  cfg.Checks,
		now:     cfg.Now,
	}
	if s.audit == nil {
		s.audit = audit.NopLogger{}
	}
	if r, ok := s.audit.(audit.Reader); ok {
		s.history = r
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.lang == language.Und {
		s.lang = language.English
	}
	s.handler = s.routes()
	return s
}

// ServeHTTP dispatches to the registered routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/groups/{id}/rollout", s.handleGenerateRollout)
	mux.HandleFunc("GET /api/groups/{id}/rollout", s.handleGetRollout)
	mux.HandleFunc("GET /api/groups/{id}/rollout.xlsx", s.handleExportRollout)
	mux.HandleFunc("GET /api/groups/{id}/progress", s.handleGroupProgress)

	mux.HandleFunc("GET /api/assessments", s.handleListAssessments)
	mux.HandleFunc("POST /api/assessments/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/assessments/bulk-pass", s.handleBulkPass)

	mux.HandleFunc("GET /api/students/{id}/progress", s.handleStudentProgress)
	mux.HandleFunc("POST /api/lesson-plans", s.handleLessonPlan)

	if s.history != nil {
		mux.HandleFunc("GET /api/audit", s.handleAudit)
	}
	if s.feed != nil {
		mux.Handle("GET /ws", s.feed)
	}
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.Name, "error", err)
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// errBadRequest marks malformed request bodies and query strings.
type errBadRequest struct{ msg string }

func (e *errBadRequest) Error() string { return e.msg }

func badRequest(msg string) error { return &errBadRequest{msg: msg} }

var errNotFound = errors.New("not found")

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer reader.Close()

	err := json.NewDecoder(reader).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return badRequest("empty body")
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return badRequest("payload exceeds limit")
	}
	return badRequest("invalid JSON")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto status codes. Server-side failures are
// logged; client errors are not.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	var (
		badReq     *errBadRequest
		dateErr    *workdays.InvalidDateError
		rolloutErr *rollout.ValidationError
		assessErr  *assessment.ValidationError
		lessonErr  *lessonplan.ValidationError
	)
	switch {
	case errors.As(err, &badReq),
		errors.As(err, &dateErr),
		errors.As(err, &rolloutErr),
		errors.As(err, &assessErr),
		errors.As(err, &lessonErr):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound),
		errors.Is(err, group.ErrNotFound),
		errors.Is(err, group.ErrStudentNotFound),
		errors.Is(err, assessment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ai.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, lessonplan.ErrInvalidReply),
		errors.Is(err, errUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// errUpstream tags failures of the AI backend.
var errUpstream = errors.New("upstream failure")

// mutationContext detaches a write from the client connection so a
// disconnect cannot abandon it half way. Deadlines still come from the
// service.
func mutationContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
