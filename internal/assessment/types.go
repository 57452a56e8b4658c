// Package assessment holds per-student assessment state, the index used to
// reconcile it, and the derived progress metrics.
package assessment

import (
	"errors"
	"fmt"
	"time"
)

// Result is the outcome of an assessment. An absent row means ResultPending.
type Result string

const (
	ResultPending         Result = "PENDING"
	ResultCompetent       Result = "COMPETENT"
	ResultNotYetCompetent Result = "NOT_YET_COMPETENT"
)

// Valid reports whether r is a known result.
func (r Result) Valid() bool {
	switch r {
	case ResultPending, ResultCompetent, ResultNotYetCompetent:
		return true
	}
	return false
}

// Type is one of the independently markable assessment kinds.
type Type string

const (
	TypeFormative  Type = "FORMATIVE"
	TypeSummative  Type = "SUMMATIVE"
	TypeWorkplace  Type = "WORKPLACE"
	TypeIntegrated Type = "INTEGRATED"
)

// Valid reports whether t is a known assessment type.
func (t Type) Valid() bool {
	switch t {
	case TypeFormative, TypeSummative, TypeWorkplace, TypeIntegrated:
		return true
	}
	return false
}

// ModerationStatus tracks moderation independently of the result.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "PENDING"
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationRejected ModerationStatus = "REJECTED"
	ModerationResubmit ModerationStatus = "RESUBMIT"
)

const (
	defaultMethod       = "OBSERVATION"
	defaultDueIn        = 7 * 24 * time.Hour
	defaultStoreTimeout = 10 * time.Second
)

// Status is the derived state of a unit standard (or module workplace
// component) across a set of students.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusOverdue    Status = "OVERDUE"
)

// Assessment is one persisted result for a student.
type Assessment struct {
	ID               string           `json:"id"`
	StudentID        string           `json:"studentId"`
	UnitStandardID   string           `json:"unitStandardId,omitempty"`
	ModuleID         string           `json:"moduleId,omitempty"`
	Type             Type             `json:"type"`
	Method           string           `json:"method"`
	Result           Result           `json:"result"`
	DueDate          time.Time        `json:"dueDate"`
	AssessedDate     *time.Time       `json:"assessedDate"`
	ModerationStatus ModerationStatus `json:"moderationStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Key identifies the single assessment a student may hold per unit and type.
type Key struct {
	StudentID      string `json:"studentId"`
	UnitStandardID string `json:"unitStandardId"`
	Type           Type   `json:"type"`
}

// Key returns the index key of a.
func (a Assessment) Key() Key {
	return Key{StudentID: a.StudentID, UnitStandardID: a.UnitStandardID, Type: a.Type}
}

// NewAssessment is the input to Store.Create.
type NewAssessment struct {
	StudentID      string
	UnitStandardID string
	ModuleID       string
	Type           Type
	Method         string
	Result         Result
	DueDate        time.Time
	AssessedDate   *time.Time
}

// Patch is a partial update. ClearAssessedDate nulls the assessed date and
// takes precedence over AssessedDate.
type Patch struct {
	Result            *Result
	AssessedDate      *time.Time
	ClearAssessedDate bool
	ModerationStatus  *ModerationStatus
}

// Filter narrows Store.List. Empty fields match everything.
type Filter struct {
	StudentID      string
	StudentIDs     []string
	UnitStandardID string
	ModuleID       string
	Type           Type
}

// ErrNotFound is returned when an assessment ID does not exist.
var ErrNotFound = errors.New("assessment not found")

// ValidationError reports input rejected before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func validateKey(k Key) error {
	if k.StudentID == "" {
		return &ValidationError{Field: "studentId", Message: "is required"}
	}
	if k.UnitStandardID == "" {
		return &ValidationError{Field: "unitStandardId", Message: "is required"}
	}
	if !k.Type.Valid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown assessment type %q", k.Type)}
	}
	return nil
}

func validateTarget(target Result) error {
	if target != ResultCompetent && target != ResultNotYetCompetent {
		return &ValidationError{Field: "result", Message: fmt.Sprintf("cannot mark %q", target)}
	}
	return nil
}
