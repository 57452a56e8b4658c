package rollout

import (
	"fmt"
	"time"

	"github.com/p-n-ai/vocatrack/internal/curriculum"
	"github.com/p-n-ai/vocatrack/internal/workdays"
)

// workplaceWindowDays is the length of a workplace activity, start inclusive.
const workplaceWindowDays = 10

// ValidationError reports a rejected generator input other than a date.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Generate builds the rollout plan for a group. startDate is DD/MM/YYYY. All
// inputs are validated before any scheduling happens, so a failed call never
// yields a partial plan.
func Generate(groupName string, learnerCount int, startDate string, cur curriculum.Snapshot) (Plan, error) {
	start, err := workdays.Parse("startDate", startDate)
	if err != nil {
		return Plan{}, err
	}
	if learnerCount < 0 {
		return Plan{}, &ValidationError{Field: "learnerCount", Message: "must not be negative"}
	}
	for _, m := range cur.Modules {
		for _, u := range m.UnitStandards {
			if u.DurationDays < 1 {
				return Plan{}, &ValidationError{
					Field:   "curriculum",
					Message: fmt.Sprintf("unit standard %s has duration %d", u.ID, u.DurationDays),
				}
			}
		}
	}

	plan := Plan{
		GroupName:    groupName,
		LearnerCount: learnerCount,
		StartDate:    NewDate(start),
		Modules:      make([]ModulePlan, 0, len(cur.Modules)),
	}

	// cursor is the last occupied instructional day; zero before the first unit.
	var cursor time.Time
	for _, m := range cur.Modules {
		mp := ModulePlan{
			ModuleID:      m.ID,
			ModuleNumber:  m.Number,
			ModuleName:    m.Name,
			UnitStandards: make([]UnitStandardPlan, 0, len(m.UnitStandards)),
		}

		for _, u := range m.UnitStandards {
			var unitStart time.Time
			if cursor.IsZero() {
				unitStart = workdays.NextWorkingDay(start)
			} else {
				unitStart = workdays.AddWorkingDays(cursor, u.GapDays+1)
			}
			unitEnd := workdays.AddWorkingDays(unitStart, u.DurationDays-1)

			mp.UnitStandards = append(mp.UnitStandards, UnitStandardPlan{
				UnitStandardID: u.ID,
				Code:           u.Code,
				Title:          u.Title,
				Credits:        u.Credits,
				StartDate:      NewDate(unitStart),
				EndDate:        NewDate(unitEnd),
				AssessingDate:  NewDate(workdays.AddWorkingDays(unitEnd, u.AssessingOffsetDays)),
				SummativeDate:  NewDate(workdays.AddWorkingDays(unitEnd, u.SummativeOffsetDays)),
			})
			cursor = unitEnd
		}

		if len(mp.UnitStandards) > 0 {
			first := mp.UnitStandards[0]
			last := mp.UnitStandards[len(mp.UnitStandards)-1]
			mp.StartDate = first.StartDate
			mp.EndDate = last.EndDate

			if m.WorkplaceActivity {
				wp := workplaceWindow(last.AssessingDate.Time)
				mp.Workplace = &wp
				mp.EndDate = wp.EndDate
				cursor = wp.EndDate.Time
			}
		}

		plan.Modules = append(plan.Modules, mp)
	}

	return plan, nil
}

func workplaceWindow(lastAssessing time.Time) WorkplaceActivity {
	start := workdays.NextMonday(lastAssessing)
	end := workdays.AddWorkingDays(start, workplaceWindowDays-1)
	return WorkplaceActivity{
		StartDate: NewDate(start),
		EndDate:   NewDate(end),
		Label:     WorkplaceLabel(start, end),
	}
}

// WorkplaceLabel renders "Workplace Activity - (DD MMM - DD MMM YYYY)".
func WorkplaceLabel(start, end time.Time) string {
	return fmt.Sprintf("Workplace Activity - (%s - %s)", workdays.Short(start), workdays.Long(end))
}
