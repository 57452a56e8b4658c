package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/vocatrack/internal/platform/config"
)

const curriculumYAML = `
modules:
  - id: mod-1
    module_number: 1
    name: "Workplace Fundamentals"
    workplace_activity: true
    unit_standards:
      - id: us-1
        code: "119472"
        title: "Accommodate audience and context needs in oral communication"
        credits: 5
        level: 3
        duration_days: 5
`

const seedYAML = `
groups:
  - id: g1
    name: Cohort A
    start_date: 06/01/2025
    students:
      - id: s1
        name: Sipho
`

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	curDir := filepath.Join(dir, "curriculum")
	if err := os.Mkdir(curDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(curDir, "module-one.yaml"), []byte(curriculumYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	seed := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(seed, []byte(seedYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VOCA_CURRICULUM_PATH", curDir)
	t.Setenv("VOCA_SEED_PATH", seed)
	for _, key := range []string{"VOCA_DATABASE_URL", "VOCA_CACHE_URL", "VOCA_AI_OPENAI_API_KEY", "VOCA_AI_OLLAMA_ENABLED"} {
		t.Setenv(key, "")
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestNewApp_MemoryMode(t *testing.T) {
	a, err := newApp(t.Context(), memoryConfig(t))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz returns 200", http.MethodGet, "/healthz", http.StatusOK, `{"status":"ok"}`},
		{"readyz returns 200", http.MethodGet, "/readyz", http.StatusOK, `{"status":"ready"}`},
		{"seeded group gets a plan", http.MethodPost, "/api/groups/g1/rollout", http.StatusOK, `"groupName":"Cohort A"`},
		{"pacing for the seeded group", http.MethodGet, "/api/groups/g1/progress", http.StatusOK, `"groupId":"g1"`},
		{"audit lists the rollout", http.MethodGet, "/api/audit?limit=5", http.StatusOK, `"eventType":"rollout.generated"`},
		{"lesson plans disabled without AI", http.MethodPost, "/api/lesson-plans", http.StatusServiceUnavailable, `"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			a.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNewApp_BadSeed(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.SeedPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := newApp(t.Context(), cfg); err == nil {
		t.Fatal("newApp() with a missing seed file should fail")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		logger := newLogger(config.LogConfig{Level: tt.level, Format: "json"})
		if !logger.Enabled(t.Context(), tt.want) {
			t.Errorf("level %q: %v not enabled", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && logger.Enabled(t.Context(), tt.want-4) {
			t.Errorf("level %q: %v should be disabled", tt.level, tt.want-4)
		}
	}
}
