package pacing

import (
	"time"

	"github.com/p-n-ai/vocatrack/internal/rollout"
	"github.com/p-n-ai/vocatrack/internal/workdays"
)

// Alert flags an individual student who is falling behind the schedule.
type Alert string

const (
	AlertNone    Alert = ""
	AlertAtRisk  Alert = "at-risk"
	AlertStalled Alert = "stalled"
)

// AlertPolicy holds the per-student thresholds, in percentage points of
// progress behind the projected value. It is independent of group pacing and
// the two may disagree.
type AlertPolicy struct {
	AtRiskGap  float64
	StalledGap float64
}

// DefaultAlertPolicy is used when no thresholds are configured.
var DefaultAlertPolicy = AlertPolicy{AtRiskGap: 10, StalledGap: 25}

// StudentAlert is the evaluated alert for one student.
type StudentAlert struct {
	Progress  float64 `json:"progress"`
	Projected float64 `json:"projected"`
	Gap       float64 `json:"gap"`
	Level     Alert   `json:"level"`
}

// Evaluate compares stored progress with the projected progress for today.
func (p AlertPolicy) Evaluate(progress, projected float64) StudentAlert {
	gap := projected - progress
	a := StudentAlert{Progress: progress, Projected: projected, Gap: gap}
	switch {
	case p.StalledGap > 0 && gap >= p.StalledGap:
		a.Level = AlertStalled
	case p.AtRiskGap > 0 && gap >= p.AtRiskGap:
		a.Level = AlertAtRisk
	}
	return a
}

// ProjectedProgress is the percentage of the plan's credits whose unit
// standards were scheduled to end on or before today. A plan without credits
// projects 0.
func ProjectedProgress(plan rollout.Plan, today time.Time) float64 {
	today = workdays.Date(today)
	var total, due int
	for _, m := range plan.Modules {
		for _, u := range m.UnitStandards {
			total += u.Credits
			if !u.EndDate.IsZero() && !u.EndDate.After(today) {
				due += u.Credits
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(due) * 100 / float64(total)
}
