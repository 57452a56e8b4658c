package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Change describes a committed mutation so dependents can drop derived views.
// Workplace changes carry ModuleID instead of UnitStandardID.
type Change struct {
	StudentIDs     []string `json:"studentIds"`
	UnitStandardID string   `json:"unitStandardId,omitempty"`
	ModuleID       string   `json:"moduleId,omitempty"`
	Type           Type     `json:"type"`
}

// Subject returns the unit standard or module the change concerns.
func (c Change) Subject() string {
	if c.UnitStandardID != "" {
		return c.UnitStandardID
	}
	return c.ModuleID
}

// Notifier is told about every committed mutation.
type Notifier interface {
	AssessmentsChanged(ctx context.Context, c Change)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Change)

func (f NotifierFunc) AssessmentsChanged(ctx context.Context, c Change) {
	f(ctx, c)
}

// ServiceConfig holds dependencies for the assessment service.
type ServiceConfig struct {
	Store        Store
	Notifiers    []Notifier
	Now          func() time.Time
	DueIn        time.Duration // default due date offset for new rows (default 7 days)
	StoreTimeout time.Duration // per store call (default 10s)
	Method       string        // method recorded on new rows (default OBSERVATION)
}

// Service applies toggle and bulk-pass transitions on top of a Store.
type Service struct {
	store     Store
	notifiers []Notifier
	now       func() time.Time
	dueIn     time.Duration
	timeout   time.Duration
	method    string
	locks     keyLocks[Key]
	modLocks  keyLocks[moduleKey]
}

// NewService creates a new assessment service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	dueIn := cfg.DueIn
	if dueIn == 0 {
		dueIn = defaultDueIn
	}
	timeout := cfg.StoreTimeout
	if timeout == 0 {
		timeout = defaultStoreTimeout
	}
	method := cfg.Method
	if method == "" {
		method = defaultMethod
	}
	return &Service{
		store:     store,
		notifiers: cfg.Notifiers,
		now:       now,
		dueIn:     dueIn,
		timeout:   timeout,
		method:    method,
		locks:     keyLocks[Key]{locks: make(map[Key]*refLock)},
		modLocks:  keyLocks[moduleKey]{locks: make(map[moduleKey]*refLock)},
	}
}

// Snapshot lists assessments matching f and indexes them.
func (s *Service) Snapshot(ctx context.Context, f Filter) (*Index, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return NewIndex(rows), nil
}

// ToggleResult reports the outcome of a toggle.
type ToggleResult struct {
	Previous   Result      `json:"previous"`
	Result     Result      `json:"result"`
	Changed    bool        `json:"changed"`
	Assessment *Assessment `json:"assessment,omitempty"`
}

// Toggle applies the three-state toggle: marking the current result again
// clears it to PENDING, any other mark overwrites. target must be COMPETENT or
// NOT_YET_COMPETENT.
func (s *Service) Toggle(ctx context.Context, k Key, target Result) (ToggleResult, error) {
	if err := validateKey(k); err != nil {
		return ToggleResult{}, err
	}
	if err := validateTarget(target); err != nil {
		return ToggleResult{}, err
	}

	unlock := s.locks.lock(k)
	defer unlock()

	existing, found, err := s.lookup(ctx, k)
	if err != nil {
		return ToggleResult{}, err
	}
	res, err := s.transition(ctx, NewAssessment{StudentID: k.StudentID, UnitStandardID: k.UnitStandardID, Type: k.Type}, existing, found, target)
	if err != nil || !res.Changed {
		return res, err
	}

	slog.Debug("assessment toggled",
		"student_id", k.StudentID,
		"unit_standard_id", k.UnitStandardID,
		"type", k.Type,
		"previous", res.Previous,
		"result", res.Result,
	)
	s.notify(ctx, Change{StudentIDs: []string{k.StudentID}, UnitStandardID: k.UnitStandardID, Type: k.Type})
	return res, nil
}

// ToggleWorkplace applies the same toggle to a student's module-level
// WORKPLACE row, which carries a module instead of a unit standard.
func (s *Service) ToggleWorkplace(ctx context.Context, studentID, moduleID string, target Result) (ToggleResult, error) {
	if studentID == "" {
		return ToggleResult{}, &ValidationError{Field: "studentId", Message: "is required"}
	}
	if moduleID == "" {
		return ToggleResult{}, &ValidationError{Field: "moduleId", Message: "is required"}
	}
	if err := validateTarget(target); err != nil {
		return ToggleResult{}, err
	}

	unlock := s.modLocks.lock(moduleKey{StudentID: studentID, ModuleID: moduleID, Type: TypeWorkplace})
	defer unlock()

	ix, err := s.Snapshot(ctx, Filter{StudentID: studentID, ModuleID: moduleID, Type: TypeWorkplace})
	if err != nil {
		return ToggleResult{}, err
	}
	existing, found := ix.LookupModule(studentID, moduleID, TypeWorkplace)
	res, err := s.transition(ctx, NewAssessment{StudentID: studentID, ModuleID: moduleID, Type: TypeWorkplace}, existing, found, target)
	if err != nil || !res.Changed {
		return res, err
	}

	slog.Debug("workplace assessment toggled",
		"student_id", studentID,
		"module_id", moduleID,
		"previous", res.Previous,
		"result", res.Result,
	)
	s.notify(ctx, Change{StudentIDs: []string{studentID}, ModuleID: moduleID, Type: TypeWorkplace})
	return res, nil
}

// transition moves the row identified by id from its current result toward
// target. The caller holds the row's lock.
func (s *Service) transition(ctx context.Context, id NewAssessment, existing Assessment, found bool, target Result) (ToggleResult, error) {
	current := ResultPending
	if found {
		current = existing.Result
	}
	next := target
	if current == target {
		next = ResultPending
	}

	res := ToggleResult{Previous: current, Result: next}
	if !found && next == ResultPending {
		return res, nil
	}

	a, err := s.write(ctx, id, existing, found, next)
	if err != nil {
		return ToggleResult{}, err
	}
	res.Changed = true
	res.Assessment = &a
	return res, nil
}

// Failure records a student whose bulk transition could not be written.
type Failure struct {
	StudentID string
	Err       error
}

func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		StudentID string `json:"studentId"`
		Error     string `json:"error"`
	}{f.StudentID, msg})
}

// BulkResult summarises a bulk pass. Updated+Skipped+len(Failed) always equals
// the number of student IDs submitted.
type BulkResult struct {
	Updated int       `json:"updated"`
	Skipped int       `json:"skipped"`
	Failed  []Failure `json:"failed"`
}

// BulkPass marks every PENDING student in studentIDs COMPETENT for the unit
// and type. Students already COMPETENT or NOT_YET_COMPETENT are skipped.
// Students are processed one at a time; a failed write is recorded and the
// loop continues, and earlier successes are kept.
func (s *Service) BulkPass(ctx context.Context, unitStandardID string, t Type, studentIDs []string) (BulkResult, error) {
	if unitStandardID == "" {
		return BulkResult{}, &ValidationError{Field: "unitStandardId", Message: "is required"}
	}
	if !t.Valid() {
		return BulkResult{}, &ValidationError{Field: "assessmentType", Message: fmt.Sprintf("unknown assessment type %q", t)}
	}
	if len(studentIDs) == 0 {
		return BulkResult{}, &ValidationError{Field: "studentIds", Message: "at least one student is required"}
	}
	for _, id := range studentIDs {
		if id == "" {
			return BulkResult{}, &ValidationError{Field: "studentIds", Message: "contains an empty id"}
		}
	}

	res := BulkResult{Failed: []Failure{}}
	var changed []string
	for _, id := range studentIDs {
		updated, err := s.passOne(ctx, Key{StudentID: id, UnitStandardID: unitStandardID, Type: t})
		switch {
		case err != nil:
			slog.Warn("bulk pass failed for student",
				"student_id", id,
				"unit_standard_id", unitStandardID,
				"type", t,
				"error", err,
			)
			res.Failed = append(res.Failed, Failure{StudentID: id, Err: err})
		case updated:
			res.Updated++
			changed = append(changed, id)
		default:
			res.Skipped++
		}
	}

	slog.Info("bulk pass applied",
		"unit_standard_id", unitStandardID,
		"type", t,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"failed", len(res.Failed),
	)
	if len(changed) > 0 {
		s.notify(ctx, Change{StudentIDs: changed, UnitStandardID: unitStandardID, Type: t})
	}
	return res, nil
}

func (s *Service) passOne(ctx context.Context, k Key) (bool, error) {
	unlock := s.locks.lock(k)
	defer unlock()

	existing, found, err := s.lookup(ctx, k)
	if err != nil {
		return false, err
	}
	if found && existing.Result != ResultPending {
		return false, nil
	}
	id := NewAssessment{StudentID: k.StudentID, UnitStandardID: k.UnitStandardID, Type: k.Type}
	if _, err := s.write(ctx, id, existing, found, ResultCompetent); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) lookup(ctx context.Context, k Key) (Assessment, bool, error) {
	ix, err := s.Snapshot(ctx, Filter{StudentID: k.StudentID, UnitStandardID: k.UnitStandardID, Type: k.Type})
	if err != nil {
		return Assessment{}, false, err
	}
	a, ok := ix.Lookup(k)
	return a, ok, nil
}

// write updates the existing row or creates one carrying id's student, unit,
// module and type. It is only called with next == PENDING when a row exists.
func (s *Service) write(ctx context.Context, id NewAssessment, existing Assessment, found bool, next Result) (Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	if found {
		p := Patch{Result: &next}
		if next == ResultPending {
			p.ClearAssessedDate = true
		} else {
			p.AssessedDate = &now
		}
		a, err := s.store.Update(ctx, existing.ID, p)
		if err != nil {
			return Assessment{}, fmt.Errorf("update assessment: %w", err)
		}
		return a, nil
	}

	in := id
	in.Method = s.method
	in.Result = next
	in.DueDate = now.Add(s.dueIn)
	in.AssessedDate = &now
	a, err := s.store.Create(ctx, in)
	if err != nil {
		return Assessment{}, fmt.Errorf("create assessment: %w", err)
	}
	return a, nil
}

func (s *Service) notify(ctx context.Context, c Change) {
	for _, n := range s.notifiers {
		n.AssessmentsChanged(ctx, c)
	}
}

// keyLocks serialises work on the same key while letting distinct keys run
// concurrently. Entries are dropped once no goroutine holds or waits on them.
type keyLocks[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*refLock
}


type refLock struct {
	sync.Mutex
	refs int
}

func (l *keyLocks[K]) lock(k K) func() {
	l.mu.Lock()
	rl, ok := l.locks[k]
	if !ok {
		rl = &refLock{}
		l.locks[k] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()
	return func() {
		rl.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, k)
		}
		l.mu.Unlock()
	}
}
