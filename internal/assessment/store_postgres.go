package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const selectColumns = `id::text, student_id, unit_standard_id, module_id, type, method, result,
	due_date, assessed_date, moderation_status, created_at, updated_at`

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.StudentID != "" {
		add("student_id = $%d", f.StudentID)
	}
	if len(f.StudentIDs) > 0 {
		add("student_id = ANY($%d)", f.StudentIDs)
	}
	if f.UnitStandardID != "" {
		add("unit_standard_id = $%d", f.UnitStandardID)
	}
	if f.ModuleID != "" {
		add("module_id = $%d", f.ModuleID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}

	query := `SELECT ` + selectColumns + ` FROM assessments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	out := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, in NewAssessment) (Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if in.StudentID == "" {
		return Assessment{}, fmt.Errorf("student_id is required")
	}
	method := in.Method
	if method == "" {
		method = defaultMethod
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO assessments (student_id, unit_standard_id, module_id, type, method, result, due_date, assessed_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+selectColumns,
		in.StudentID,
		nullIfEmpty(in.UnitStandardID),
		nullIfEmpty(in.ModuleID),
		string(in.Type),
		method,
		string(in.Result),
		in.DueDate,
		in.AssessedDate,
	)
	a, err := scanAssessment(row)
	if err != nil {
		return Assessment{}, fmt.Errorf("create assessment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, p Patch) (Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var result, moderation *string
	if p.Result != nil {
		v := string(*p.Result)
		result = &v
	}
	if p.ModerationStatus != nil {
		v := string(*p.ModerationStatus)
		moderation = &v
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE assessments
		 SET result = COALESCE($2, result),
		     assessed_date = CASE WHEN $3 THEN NULL ELSE COALESCE($4, assessed_date) END,
		     moderation_status = COALESCE($5, moderation_status),
		     updated_at = NOW()
		 WHERE id = $1::uuid
		 RETURNING `+selectColumns,
		id,
		result,
		p.ClearAssessedDate,
		p.AssessedDate,
		moderation,
	)
	a, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Assessment{}, fmt.Errorf("update assessment: %w", err)
	}
	return a, nil
}

func scanAssessment(row pgx.Row) (Assessment, error) {
	var (
		a          Assessment
		unitID     *string
		moduleID   *string
		typ        string
		result     string
		moderation string
		dueDate    *time.Time
	)
	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&unitID,
		&moduleID,
		&typ,
		&a.Method,
		&result,
		&dueDate,
		&a.AssessedDate,
		&moderation,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assessment{}, pgx.ErrNoRows
		}
		return Assessment{}, fmt.Errorf("scan assessment: %w", err)
	}
	if unitID != nil {
		a.UnitStandardID = *unitID
	}
	if moduleID != nil {
		a.ModuleID = *moduleID
	}
	if dueDate != nil {
		a.DueDate = *dueDate
	}
	a.Type = Type(typ)
	a.Result = Result(result)
	a.ModerationStatus = ModerationStatus(moderation)
	return a, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
