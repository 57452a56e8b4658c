package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/vocatrack/internal/ai"
	"github.com/p-n-ai/vocatrack/internal/api"
	"github.com/p-n-ai/vocatrack/internal/assessment"
	"github.com/p-n-ai/vocatrack/internal/audit"
	"github.com/p-n-ai/vocatrack/internal/curriculum"
	"github.com/p-n-ai/vocatrack/internal/group"
	"github.com/p-n-ai/vocatrack/internal/lessonplan"
	"github.com/p-n-ai/vocatrack/internal/pacing"
	"github.com/p-n-ai/vocatrack/internal/platform/cache"
	"github.com/p-n-ai/vocatrack/internal/platform/config"
	"github.com/p-n-ai/vocatrack/internal/platform/database"
	"github.com/p-n-ai/vocatrack/internal/realtime"
)

// app holds the wired HTTP handler and the resources it must release.
type app struct {
	handler http.Handler
	hub     *realtime.Hub
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp connects the configured backends. Without a database URL all state
// is kept in memory; without a cache URL progress views are computed on every
// request.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	cur, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		return nil, err
	}

	var (
		checks      []api.Check
		groups      group.Store
		assessments assessment.Store
		auditLog    audit.Logger
	)
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				return nil, err
			}
		}

		gs, err := group.NewPostgresStore(db.Pool)
		if err != nil {
			return nil, err
		}
		as, err := assessment.NewPostgresStore(db.Pool)
		if err != nil {
			return nil, err
		}
		groups, assessments, auditLog = gs, as, audit.NewPostgresLogger(db.Pool)
		checks = append(checks, api.Check{Name: "database", Ping: db.HealthCheck})
		slog.Info("using postgres stores")
	} else {
		gs := group.NewMemoryStore()
		if cfg.SeedPath != "" {
			if err := gs.Seed(cfg.SeedPath); err != nil {
				return nil, err
			}
			slog.Info("roster seeded", "path", cfg.SeedPath)
		}
		groups, assessments, auditLog = gs, assessment.NewMemoryStore(), audit.NewMemoryLogger()
		slog.Warn("no database configured, state is kept in memory")
	}

	a.hub = realtime.NewHub(realtime.HubConfig{OriginPatterns: cfg.Server.AllowedOrigins})
	notifiers := []assessment.Notifier{a.hub, audit.Notifier(auditLog)}

	var progress api.ProgressCache
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL, cache.WithNamespace(cfg.Cache.Namespace))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := c.Close(); err != nil {
				slog.Warn("closing cache", "error", err)
			}
		})
		pc := cache.NewProgressCache(c, cfg.Cache.ProgressTTL)
		progress = pc
		notifiers = append(notifiers, assessment.NotifierFunc(func(ctx context.Context, _ assessment.Change) {
			if err := pc.Invalidate(ctx); err != nil {
				slog.Warn("progress cache not invalidated", "error", err)
			}
		}))
		checks = append(checks, api.Check{Name: "cache", Ping: c.HealthCheck})
	}

	svc := assessment.NewService(assessment.ServiceConfig{
		Store:        assessments,
		Notifiers:    notifiers,
		DueIn:        time.Duration(cfg.Assessment.DueDays) * 24 * time.Hour,
		StoreTimeout: cfg.Assessment.StoreTimeout,
		Method:       cfg.Assessment.Method,
	})

	var planner api.LessonPlanner
	if cfg.HasAIProvider() {
		router := newAIRouter(cfg.AI)
		gen, err := lessonplan.NewGenerator(router, "")
		if err != nil {
			return nil, fmt.Errorf("lesson plan generator: %w", err)
		}
		planner = gen
		checks = append(checks, api.Check{Name: "ai", Ping: router.HealthCheck})
	} else {
		slog.Warn("no AI provider configured, lesson plans are disabled")
	}

	a.handler = api.New(api.Config{
		Curriculum:  cur,
		Groups:      groups,
		Assessments: svc,
		Cache:       progress,
		LessonPlans: planner,
		Feed:        a.hub,
		Audit:       auditLog,
		Alerts:      pacing.AlertPolicy{AtRiskGap: cfg.Alerts.AtRiskGap, StalledGap: cfg.Alerts.StalledGap},
		Language:    cfg.Language(),
		Checks:      checks,
	})
	return a, nil
}

// newAIRouter registers providers in fallback order: OpenAI first, then the
// self-hosted Ollama instance.
func newAIRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter(cfg.Timeout)
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey,
			ai.WithBaseURL(cfg.OpenAI.BaseURL),
			ai.WithModel(cfg.OpenAI.Model),
		))
		slog.Info("AI provider registered", "provider", "openai", "model", cfg.OpenAI.Model)
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL, ai.WithModel(cfg.Ollama.Model)))
		slog.Info("AI provider registered", "provider", "ollama", "model", cfg.Ollama.Model)
	}
	return router
}
