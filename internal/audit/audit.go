// Package audit records domain events (assessment changes, plan
// regenerations) for later review.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/vocatrack/internal/assessment"
)

const dbTimeout = 5 * time.Second

// Event types.
const (
	EventAssessmentsChanged = "assessments.changed"
	EventRolloutGenerated   = "rollout.generated"
)

// Event is one audit record.
type Event struct {
	EventType  string         `json:"eventType"`
	Subject    string         `json:"subject"` // group, unit standard or module the event concerns
	StudentIDs []string       `json:"studentIds"`
	Data       map[string]any `json:"data,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Logger defines event logging behavior.
type Logger interface {
	LogEvent(ctx context.Context, event Event) error
}

// Reader lists recorded events, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// NopLogger ignores all events.
type NopLogger struct{}

func (NopLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryLogger stores events in memory for tests.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{
		events: []Event{},
	}
}

func (l *MemoryLogger) LogEvent(_ context.Context, event Event) error {
	if err := validate(event); err != nil {
		return err
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// Recent returns the newest events first, up to limit.
func (l *MemoryLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, 0, min(limit, len(l.events)))
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}

// PostgresLogger inserts events into the audit_events table.
type PostgresLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresLogger(pool *pgxpool.Pool) *PostgresLogger {
	return &PostgresLogger{pool: pool}
}

func (l *PostgresLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("audit logger pool is nil")
	}
	if err := validate(event); err != nil {
		return err
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	studentIDs := event.StudentIDs
	if studentIDs == nil {
		studentIDs = []string{}
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_events (event_type, subject, student_ids, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		event.EventType,
		event.Subject,
		studentIDs,
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	slog.Debug("audit event logged",
		"type", event.EventType,
		"subject", event.Subject,
		"students", len(studentIDs),
	)
	return nil
}

// Recent returns the newest events first, up to limit.
func (l *PostgresLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("audit logger pool is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT event_type, subject, student_ids, data, created_at
		 FROM audit_events ORDER BY created_at DESC, id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			e    Event
			data []byte
		)
		if err := rows.Scan(&e.EventType, &e.Subject, &e.StudentIDs, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if err := json.Unmarshal(data, &e.Data); err != nil {
			return nil, fmt.Errorf("decode audit event data: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

// Notifier records every committed assessment change. A failed write is
// logged and never fails the mutation that triggered it.
func Notifier(l Logger) assessment.Notifier {
	return assessment.NotifierFunc(func(ctx context.Context, c assessment.Change) {
		err := l.LogEvent(ctx, Event{
			EventType:  EventAssessmentsChanged,
			Subject:    c.Subject(),
			StudentIDs: c.StudentIDs,
			Data:       map[string]any{"assessmentType": string(c.Type)},
		})
		if err != nil {
			slog.Warn("audit event not recorded",
				"type", EventAssessmentsChanged,
				"subject", c.Subject(),
				"error", err,
			)
		}
	})
}

func validate(event Event) error {
	if event.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if event.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}
