// Package pacing compares a group's rollout schedule with its reconciled
// assessment state.
package pacing

import (
	"time"

	"github.com/p-n-ai/vocatrack/internal/assessment"
	"github.com/p-n-ai/vocatrack/internal/rollout"
	"github.com/p-n-ai/vocatrack/internal/workdays"
)

// Status classifies a group's pace.
type Status string

const (
	StatusAhead   Status = "ahead"
	StatusBehind  Status = "behind"
	StatusOnTrack Status = "on-track"
)

// UnitProgress is the derived status of one scheduled unit standard.
type UnitProgress struct {
	ModuleNumber   int               `json:"moduleNumber"`
	UnitStandardID string            `json:"unitStandardId"`
	Code           string            `json:"code"`
	Deadline       rollout.Date      `json:"deadline"`
	Status         assessment.Status `json:"status"`
}

// WorkplaceProgress is the derived status of a module's workplace activity.
type WorkplaceProgress struct {
	ModuleNumber int               `json:"moduleNumber"`
	ModuleID     string            `json:"moduleId"`
	EndDate      rollout.Date      `json:"endDate"`
	Status       assessment.Status `json:"status"`
}

// Report is the pacing view of one group on one day.
type Report struct {
	Today           rollout.Date        `json:"today"`
	ProjectedModule int                 `json:"projectedModule"`
	ActualModule    int                 `json:"actualModule"`
	Status          Status              `json:"status"`
	WeeksAhead      int                 `json:"weeksAhead"`
	WeeksBehind     int                 `json:"weeksBehind"`
	WorkingDaysLeft int                 `json:"workingDaysLeft"` // today through the plan's last day
	Units           []UnitProgress      `json:"units"`
	Workplace       []WorkplaceProgress `json:"workplace"`
}

// Derive computes the pacing report for a roster against plan.
//
// The projected module is the highest module whose last unit standard ends on
// or before today. The actual module is the highest module whose unit
// standards are all COMPLETED for the whole roster. Modules without unit
// standards count towards neither.
//
// WorkingDaysLeft counts working days from today through the end of the last
// module, workplace activity included, and is zero once the plan has ended.
func Derive(plan rollout.Plan, ix *assessment.Index, studentIDs []string, today time.Time) Report {
	today = workdays.Date(today)
	r := Report{
		Today:     rollout.NewDate(today),
		Status:    StatusOnTrack,
		Units:     []UnitProgress{},
		Workplace: []WorkplaceProgress{},
	}

	var projectedEnd, actualEnd, planEnd time.Time
	for _, m := range plan.Modules {
		if m.EndDate.After(planEnd) {
			planEnd = m.EndDate.Time
		}
		if len(m.UnitStandards) == 0 {
			continue
		}

		complete := true
		for _, u := range m.UnitStandards {
			status := assessment.UnitStatus(ix, studentIDs, u.UnitStandardID, u.Deadline(), today)
			if status != assessment.StatusCompleted {
				complete = false
			}
			r.Units = append(r.Units, UnitProgress{
				ModuleNumber:   m.ModuleNumber,
				UnitStandardID: u.UnitStandardID,
				Code:           u.Code,
				Deadline:       rollout.NewDate(u.Deadline()),
				Status:         status,
			})
		}

		end := unitsEnd(m)
		if !end.After(today) && m.ModuleNumber > r.ProjectedModule {
			r.ProjectedModule = m.ModuleNumber
			projectedEnd = end
		}
		if complete && m.ModuleNumber > r.ActualModule {
			r.ActualModule = m.ModuleNumber
			actualEnd = end
		}

		if m.Workplace != nil {
			r.Workplace = append(r.Workplace, WorkplaceProgress{
				ModuleNumber: m.ModuleNumber,
				ModuleID:     m.ModuleID,
				EndDate:      m.Workplace.EndDate,
				Status:       assessment.WorkplaceStatus(ix, studentIDs, m.ModuleID, m.Workplace.EndDate.Time, today),
			})
		}
	}

	if !planEnd.IsZero() {
		r.WorkingDaysLeft = workdays.WorkingDaysBetween(today, planEnd)
	}

	switch {
	case r.ActualModule > r.ProjectedModule:
		r.Status = StatusAhead
		r.WeeksAhead = max(0, workdays.DaysBetween(today, actualEnd)/7)
	case r.ActualModule < r.ProjectedModule:
		r.Status = StatusBehind
		r.WeeksBehind = max(0, workdays.DaysBetween(projectedEnd, today)/7)
	}
	return r
}

// unitsEnd is the latest unit standard end date of a module, ignoring its
// workplace activity.
func unitsEnd(m rollout.ModulePlan) time.Time {
	var end time.Time
	for _, u := range m.UnitStandards {
		if u.EndDate.After(end) {
			end = u.EndDate.Time
		}
	}
	return end
}
