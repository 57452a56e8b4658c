// Package rollout generates a group's scheduling plan from its start date and
// the curriculum using working-day arithmetic.
package rollout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/p-n-ai/vocatrack/internal/workdays"
)

// Date is a calendar date that encodes as DD/MM/YYYY.
type Date struct {
	time.Time
}

// NewDate wraps t as a date-only value.
func NewDate(t time.Time) Date {
	return Date{workdays.Date(t)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return workdays.Format(d.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(workdays.Format(d.Time))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	t, err := workdays.Parse("date", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// UnitStandardPlan is the schedule for one unit standard.
type UnitStandardPlan struct {
	UnitStandardID string `json:"unitStandardId"`
	Code           string `json:"code"`
	Title          string `json:"title"`
	Credits        int    `json:"credits"`
	StartDate      Date   `json:"startDate"`
	EndDate        Date   `json:"endDate"`
	AssessingDate  Date   `json:"assessingDate"`
	SummativeDate  Date   `json:"summativeDate"`
}

// Deadline is the date after which an incomplete unit counts as overdue.
func (u UnitStandardPlan) Deadline() time.Time {
	switch {
	case !u.SummativeDate.IsZero():
		return u.SummativeDate.Time
	case !u.AssessingDate.IsZero():
		return u.AssessingDate.Time
	default:
		return u.EndDate.Time
	}
}

// WorkplaceActivity is the on-the-job window that follows a module.
type WorkplaceActivity struct {
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
	Label     string `json:"label"`
}

// ModulePlan is the schedule for one module.
type ModulePlan struct {
	ModuleID      string             `json:"moduleId"`
	ModuleNumber  int                `json:"moduleNumber"`
	ModuleName    string             `json:"moduleName"`
	StartDate     Date               `json:"startDate"`
	EndDate       Date               `json:"endDate"`
	UnitStandards []UnitStandardPlan `json:"unitStandards"`
	Workplace     *WorkplaceActivity `json:"workplaceActivity,omitempty"`
}

// Plan is a complete, regenerable rollout for one group.
type Plan struct {
	GroupName    string       `json:"groupName"`
	LearnerCount int          `json:"learnerCount"`
	StartDate    Date         `json:"startDate"`
	Modules      []ModulePlan `json:"modules"`
}

// UnitStandard returns the scheduled entry for a unit standard.
func (p Plan) UnitStandard(id string) (UnitStandardPlan, bool) {
	for _, m := range p.Modules {
		for _, u := range m.UnitStandards {
			if u.UnitStandardID == id {
				return u, true
			}
		}
	}
	return UnitStandardPlan{}, false
}

// Encode serialises the plan to the JSON blob stored on the group.
func (p Plan) Encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode rollout plan: %w", err)
	}
	return data, nil
}

// Decode parses a plan blob produced by Encode.
func Decode(data []byte) (Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("decode rollout plan: %w", err)
	}
	if p.Modules == nil {
		p.Modules = []ModulePlan{}
	}
	return p, nil
}
