package assessment

import (
	"time"

	"github.com/p-n-ai/vocatrack/internal/workdays"
)

// Credits sums the credit value of every unit standard the student holds at
// least one COMPETENT row for. Each unit counts once no matter how many of its
// assessment types are COMPETENT. Units missing from credits contribute 0.
func Credits(ix *Index, studentID string, credits map[string]int) int {
	earned := make(map[string]bool)
	for _, a := range ix.ForStudent(studentID) {
		if a.Result == ResultCompetent && a.UnitStandardID != "" {
			earned[a.UnitStandardID] = true
		}
	}

	total := 0
	for unitID := range earned {
		total += credits[unitID]
	}
	return total
}

// UnitStatus classifies a unit standard across studentIDs. Checks run in the
// order COMPLETED, OVERDUE, IN_PROGRESS, NOT_STARTED and the first match wins.
//
// COMPLETED needs every student COMPETENT in both FORMATIVE and SUMMATIVE; an
// empty roster never completes. OVERDUE applies when deadline is set and falls
// strictly before today's date.
func UnitStatus(ix *Index, studentIDs []string, unitStandardID string, deadline, today time.Time) Status {
	if len(studentIDs) > 0 && allCompetent(ix, studentIDs, unitStandardID) {
		return StatusCompleted
	}
	if !deadline.IsZero() && workdays.Date(deadline).Before(workdays.Date(today)) {
		return StatusOverdue
	}
	if hasAnyRow(ix, studentIDs, unitStandardID) {
		return StatusInProgress
	}
	return StatusNotStarted
}

// WorkplaceStatus classifies a module's workplace component from module-level
// WORKPLACE rows, using the same precedence as UnitStatus.
func WorkplaceStatus(ix *Index, studentIDs []string, moduleID string, deadline, today time.Time) Status {
	if len(studentIDs) > 0 {
		complete := true
		for _, id := range studentIDs {
			if ix.ModuleResult(id, moduleID, TypeWorkplace) != ResultCompetent {
				complete = false
				break
			}
		}
		if complete {
			return StatusCompleted
		}
	}
	if !deadline.IsZero() && workdays.Date(deadline).Before(workdays.Date(today)) {
		return StatusOverdue
	}
	for _, id := range studentIDs {
		if ix.HasModuleRow(id, moduleID, TypeWorkplace) {
			return StatusInProgress
		}
	}
	return StatusNotStarted
}

// Compliant reports whether the student has at least one FORMATIVE and one
// SUMMATIVE row, of any result, for every listed unit standard.
func Compliant(ix *Index, studentID string, unitStandardIDs []string) bool {
	return len(ComplianceGaps(ix, studentID, unitStandardIDs)) == 0
}

// ComplianceGap names a missing assessment type for one unit standard.
type ComplianceGap struct {
	UnitStandardID string `json:"unitStandardId"`
	Missing        []Type `json:"missing"`
}

// ComplianceGaps lists the unit standards that keep a student non-compliant,
// in the order given.
func ComplianceGaps(ix *Index, studentID string, unitStandardIDs []string) []ComplianceGap {
	var gaps []ComplianceGap
	for _, unitID := range unitStandardIDs {
		var missing []Type
		for _, t := range []Type{TypeFormative, TypeSummative} {
			if _, ok := ix.Lookup(Key{StudentID: studentID, UnitStandardID: unitID, Type: t}); !ok {
				missing = append(missing, t)
			}
		}
		if len(missing) > 0 {
			gaps = append(gaps, ComplianceGap{UnitStandardID: unitID, Missing: missing})
		}
	}
	return gaps
}

// CreditDrift compares the externally stored credit total with the derived one.
type CreditDrift struct {
	Stored  int `json:"stored"`
	Derived int `json:"derived"`
	Delta   int `json:"delta"`
}

// InSync reports whether stored and derived totals agree.
func (d CreditDrift) InSync() bool {
	return d.Delta == 0
}

// ReconcileCredits reports the divergence between a stored total and the
// value derived from the index. The derived value is authoritative.
func ReconcileCredits(ix *Index, studentID string, stored int, credits map[string]int) CreditDrift {
	derived := Credits(ix, studentID, credits)
	return CreditDrift{Stored: stored, Derived: derived, Delta: derived - stored}
}

func allCompetent(ix *Index, studentIDs []string, unitID string) bool {
	for _, id := range studentIDs {
		for _, t := range []Type{TypeFormative, TypeSummative} {
			if ix.Result(Key{StudentID: id, UnitStandardID: unitID, Type: t}) != ResultCompetent {
				return false
			}
		}
	}
	return true
}

func hasAnyRow(ix *Index, studentIDs []string, unitID string) bool {
	for _, a := range ix.ForUnit(unitID) {
		for _, id := range studentIDs {
			if a.StudentID == id {
				return true
			}
		}
	}
	return false
}
