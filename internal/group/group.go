// Package group persists cohorts, their rosters and generated rollout plans.
package group

import (
	"context"
	"errors"
	"time"

	"github.com/p-n-ai/vocatrack/internal/rollout"
)

var (
	// ErrNotFound is returned when a group does not exist.
	ErrNotFound = errors.New("group not found")
	// ErrStudentNotFound is returned when a student does not exist.
	ErrStudentNotFound = errors.New("student not found")
)

// Group is a cohort of students following the curriculum together. Notes
// carries the serialised rollout plan; RolloutPlan repeats its per-module
// dates in structured form and is always written together with Notes.
type Group struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	StartDate   time.Time     `json:"startDate"`
	Notes       string        `json:"notes"`
	RolloutPlan []ModuleDates `json:"rolloutPlan"`
}

// ModuleDates is the structured per-module projection of a plan.
type ModuleDates struct {
	ModuleNumber   int          `json:"moduleNumber"`
	ModuleName     string       `json:"moduleName"`
	StartDate      rollout.Date `json:"startDate"`
	EndDate        rollout.Date `json:"endDate"`
	WorkplaceStart rollout.Date `json:"workplaceStart"`
	WorkplaceEnd   rollout.Date `json:"workplaceEnd"`
}

// Student is a roster member. Progress and TotalCreditsEarned are stored
// externally and may diverge from values derived from assessments.
type Student struct {
	ID                 string  `json:"id"`
	GroupID            string  `json:"groupId"`
	Name               string  `json:"name"`
	Progress           float64 `json:"progress"`
	TotalCreditsEarned int     `json:"totalCreditsEarned"`
}

// Store reads groups and writes generated plans.
type Store interface {
	GetGroup(ctx context.Context, id string) (Group, error)
	ListStudents(ctx context.Context, groupID string) ([]Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	SavePlan(ctx context.Context, groupID string, plan rollout.Plan) (Group, error)
}

// Plan decodes the rollout plan stored on the group. ok is false when no plan
// has been generated yet.
func (g Group) Plan() (plan rollout.Plan, ok bool, err error) {
	if g.Notes == "" {
		return rollout.Plan{}, false, nil
	}
	plan, err = rollout.Decode([]byte(g.Notes))
	if err != nil {
		return rollout.Plan{}, false, err
	}
	return plan, true, nil
}

// StartDateString renders the group's start date as DD/MM/YYYY, the generator input.
func (g Group) StartDateString() string {
	if g.StartDate.IsZero() {
		return ""
	}
	return rollout.NewDate(g.StartDate).String()
}

// ModuleDatesFromPlan derives the structured projection stored beside the blob.
func ModuleDatesFromPlan(plan rollout.Plan) []ModuleDates {
	out := make([]ModuleDates, 0, len(plan.Modules))
	for _, m := range plan.Modules {
		md := ModuleDates{
			ModuleNumber: m.ModuleNumber,
			ModuleName:   m.ModuleName,
			StartDate:    m.StartDate,
			EndDate:      m.EndDate,
		}
		if m.Workplace != nil {
			md.WorkplaceStart = m.Workplace.StartDate
			md.WorkplaceEnd = m.Workplace.EndDate
		}
		out = append(out, md)
	}
	return out
}

// StudentIDs returns the IDs of a roster in order.
func StudentIDs(students []Student) []string {
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	return ids
}
