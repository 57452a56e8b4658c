package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/vocatrack/internal/rollout"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed group store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// CreateGroup inserts a group. An empty ID is replaced with a new UUID.
func (s *PostgresStore) CreateGroup(ctx context.Context, g Group) (Group, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO groups (id, name, start_date, notes) VALUES ($1, $2, $3, $4)`,
		g.ID, g.Name, nullDate(g.StartDate), g.Notes,
	)
	if err != nil {
		return Group{}, fmt.Errorf("insert group: %w", err)
	}
	return g, nil
}

// AddStudent inserts or replaces a roster member.
func (s *PostgresStore) AddStudent(ctx context.Context, st Student) (Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO students (id, group_id, name, progress, total_credits_earned)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   group_id = EXCLUDED.group_id,
		   name = EXCLUDED.name,
		   progress = EXCLUDED.progress,
		   total_credits_earned = EXCLUDED.total_credits_earned`,
		st.ID, st.GroupID, st.Name, st.Progress, st.TotalCreditsEarned,
	)
	if err != nil {
		return Student{}, fmt.Errorf("upsert student: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) GetGroup(ctx context.Context, id string) (Group, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		g     Group
		start *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, start_date, notes FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &start, &g.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Group{}, fmt.Errorf("query group: %w", err)
	}
	if start != nil {
		g.StartDate = start.UTC()
	}

	rows, err := s.pool.Query(ctx,
		`SELECT module_number, module_name, start_date, end_date, workplace_start, workplace_end
		 FROM group_rollout_modules WHERE group_id = $1 ORDER BY module_number`, id,
	)
	if err != nil {
		return Group{}, fmt.Errorf("query rollout modules: %w", err)
	}
	defer rows.Close()

	g.RolloutPlan = []ModuleDates{}
	for rows.Next() {
		var (
			md                       ModuleDates
			from, to, wpStart, wpEnd *time.Time
		)
		if err := rows.Scan(&md.ModuleNumber, &md.ModuleName, &from, &to, &wpStart, &wpEnd); err != nil {
			return Group{}, fmt.Errorf("scan rollout module: %w", err)
		}
		md.StartDate = fromNullable(from)
		md.EndDate = fromNullable(to)
		md.WorkplaceStart = fromNullable(wpStart)
		md.WorkplaceEnd = fromNullable(wpEnd)
		g.RolloutPlan = append(g.RolloutPlan, md)
	}
	if err := rows.Err(); err != nil {
		return Group{}, fmt.Errorf("iterate rollout modules: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) ListStudents(ctx context.Context, groupID string) ([]Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, groupID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("query group: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, groupID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, name, progress, total_credits_earned
		 FROM students WHERE group_id = $1 ORDER BY created_at, id`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	out := []Student{}
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.GroupID, &st.Name, &st.Progress, &st.TotalCreditsEarned); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetStudent(ctx context.Context, id string) (Student, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var st Student
	err := s.pool.QueryRow(ctx,
		`SELECT id, group_id, name, progress, total_credits_earned FROM students WHERE id = $1`, id,
	).Scan(&st.ID, &st.GroupID, &st.Name, &st.Progress, &st.TotalCreditsEarned)
	if errors.Is(err, pgx.ErrNoRows) {
		return Student{}, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	if err != nil {
		return Student{}, fmt.Errorf("query student: %w", err)
	}
	return st, nil
}

// SavePlan writes the plan blob and the structured module rows in one
// transaction, so readers never see one without the other.
func (s *PostgresStore) SavePlan(ctx context.Context, groupID string, plan rollout.Plan) (Group, error) {
	blob, err := plan.Encode()
	if err != nil {
		return Group{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Group{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE groups SET notes = $2, updated_at = NOW() WHERE id = $1`, groupID, string(blob),
	)
	if err != nil {
		return Group{}, fmt.Errorf("update group notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Group{}, fmt.Errorf("%w: %s", ErrNotFound, groupID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM group_rollout_modules WHERE group_id = $1`, groupID); err != nil {
		return Group{}, fmt.Errorf("clear rollout modules: %w", err)
	}

	dates := ModuleDatesFromPlan(plan)
	batch := &pgx.Batch{}
	for _, md := range dates {
		batch.Queue(
			`INSERT INTO group_rollout_modules
			   (group_id, module_number, module_name, start_date, end_date, workplace_start, workplace_end)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			groupID, md.ModuleNumber, md.ModuleName,
			nullDate(md.StartDate.Time), nullDate(md.EndDate.Time),
			nullDate(md.WorkplaceStart.Time), nullDate(md.WorkplaceEnd.Time),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return Group{}, fmt.Errorf("insert rollout modules: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Group{}, fmt.Errorf("commit tx: %w", err)
	}

	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func fromNullable(t *time.Time) rollout.Date {
	if t == nil {
		return rollout.Date{}
	}
	return rollout.NewDate(*t)
}
