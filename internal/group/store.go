package group

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/p-n-ai/vocatrack/internal/rollout"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	groups   map[string]*Group
	students map[string]*Student
	order    []string // student IDs in insertion order
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory group store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:   make(map[string]*Group),
		students: make(map[string]*Student),
	}
}

// CreateGroup adds a group. An empty ID is replaced with a new UUID.
func (s *MemoryStore) CreateGroup(g Group) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if _, exists := s.groups[g.ID]; exists {
		return Group{}, fmt.Errorf("group already exists: %s", g.ID)
	}
	s.groups[g.ID] = &g
	return g, nil
}

// AddStudent adds a student to an existing group.
func (s *MemoryStore) AddStudent(st Student) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[st.GroupID]; !ok {
		return Student{}, fmt.Errorf("%w: %s", ErrNotFound, st.GroupID)
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if _, exists := s.students[st.ID]; !exists {
		s.order = append(s.order, st.ID)
	}
	s.students[st.ID] = &st
	return st, nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, id string) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyGroup(g), nil
}

func (s *MemoryStore) ListStudents(ctx context.Context, groupID string) ([]Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, groupID)
	}
	out := []Student{}
	for _, id := range s.order {
		if st := s.students[id]; st.GroupID == groupID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetStudent(ctx context.Context, id string) (Student, error) {
	if err := ctx.Err(); err != nil {
		return Student{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return Student{}, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	return *st, nil
}

// SavePlan replaces the group's plan blob and structured dates under one lock.
func (s *MemoryStore) SavePlan(ctx context.Context, groupID string, plan rollout.Plan) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	blob, err := plan.Encode()
	if err != nil {
		return Group{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrNotFound, groupID)
	}
	g.Notes = string(blob)
	g.RolloutPlan = ModuleDatesFromPlan(plan)
	return copyGroup(g), nil
}

func copyGroup(g *Group) Group {
	out := *g
	out.RolloutPlan = append([]ModuleDates(nil), g.RolloutPlan...)
	return out
}
