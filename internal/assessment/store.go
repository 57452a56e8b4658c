package assessment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists assessment rows. It does not enforce key uniqueness; Service
// looks up before creating.
type Store interface {
	List(ctx context.Context, f Filter) ([]Assessment, error)
	Create(ctx context.Context, in NewAssessment) (Assessment, error)
	Update(ctx context.Context, id string, p Patch) (Assessment, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	rows map[string]*Assessment
	now  func() time.Time
	mu   sync.RWMutex
}

// NewMemoryStore creates a new in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]*Assessment),
		now:  time.Now,
	}
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Assessment{}
	for _, a := range s.rows {
		if matches(f, a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, in NewAssessment) (Assessment, error) {
	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}
	if in.StudentID == "" {
		return Assessment{}, fmt.Errorf("student_id is required")
	}

	now := s.now()
	a := Assessment{
		ID:               uuid.NewString(),
		StudentID:        in.StudentID,
		UnitStandardID:   in.UnitStandardID,
		ModuleID:         in.ModuleID,
		Type:             in.Type,
		Method:           in.Method,
		Result:           in.Result,
		DueDate:          in.DueDate,
		AssessedDate:     in.AssessedDate,
		ModerationStatus: ModerationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if a.Method == "" {
		a.Method = defaultMethod
	}

	s.mu.Lock()
	s.rows[a.ID] = &a
	s.mu.Unlock()
	return a, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, p Patch) (Assessment, error) {
	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	applyPatch(a, p)
	a.UpdatedAt = s.now()
	return *a, nil
}

func applyPatch(a *Assessment, p Patch) {
	if p.Result != nil {
		a.Result = *p.Result
	}
	switch {
	case p.ClearAssessedDate:
		a.AssessedDate = nil
	case p.AssessedDate != nil:
		t := *p.AssessedDate
		a.AssessedDate = &t
	}
	if p.ModerationStatus != nil {
		a.ModerationStatus = *p.ModerationStatus
	}
}

func matches(f Filter, a *Assessment) bool {
	if f.StudentID != "" && a.StudentID != f.StudentID {
		return false
	}
	if len(f.StudentIDs) > 0 {
		found := false
		for _, id := range f.StudentIDs {
			if id == a.StudentID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.UnitStandardID != "" && a.UnitStandardID != f.UnitStandardID {
		return false
	}
	if f.ModuleID != "" && a.ModuleID != f.ModuleID {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	return true
}
