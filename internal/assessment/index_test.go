package assessment_test

import (
	"testing"
	"time"

	"github.com/p-n-ai/vocatrack/internal/assessment"
)

func TestIndex_LookupAndResult(t *testing.T) {
	ix := assessment.NewIndex([]assessment.Assessment{
		row("1", "s1", "us-1", assessment.TypeFormative, assessment.ResultCompetent),
		row("2", "s1", "us-1", assessment.TypeSummative, assessment.ResultNotYetCompetent),
	})

	a, ok := ix.Lookup(key("s1"))
	if !ok || a.ID != "1" {
		t.Fatalf("Lookup() = %+v, %v; want row 1", a, ok)
	}
	if got := ix.Result(assessment.Key{StudentID: "s1", UnitStandardID: "us-1", Type: assessment.TypeWorkplace}); got != assessment.ResultPending {
		t.Errorf("Result(absent) = %s, want PENDING", got)
	}
	if got := len(ix.ForStudent("s1")); got != 2 {
		t.Errorf("ForStudent() = %d rows, want 2", got)
	}
	if got := len(ix.ForUnit("us-1")); got != 2 {
		t.Errorf("ForUnit() = %d rows, want 2", got)
	}
}

func TestIndex_DuplicateKeyLatestWins(t *testing.T) {
	older := row("old", "s1", "us-1", assessment.TypeFormative, assessment.ResultNotYetCompetent)
	older.UpdatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := row("new", "s1", "us-1", assessment.TypeFormative, assessment.ResultCompetent)
	newer.UpdatedAt = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	ix := assessment.NewIndex([]assessment.Assessment{newer, older})
	if a, _ := ix.Lookup(key("s1")); a.ID != "new" {
		t.Errorf("Lookup() = %s, want newest row", a.ID)
	}
}

func TestIndex_ModuleRowsKeptSeparate(t *testing.T) {
	ix := assessment.NewIndex([]assessment.Assessment{
		{ID: "1", StudentID: "s1", ModuleID: "mod-1", Type: assessment.TypeWorkplace, Result: assessment.ResultCompetent},
	})

	if got := ix.ModuleResult("s1", "mod-1", assessment.TypeWorkplace); got != assessment.ResultCompetent {
		t.Errorf("ModuleResult() = %s, want COMPETENT", got)
	}
	if got := ix.ModuleResult("s1", "mod-2", assessment.TypeWorkplace); got != assessment.ResultPending {
		t.Errorf("ModuleResult(other) = %s, want PENDING", got)
	}
	if _, ok := ix.Lookup(assessment.Key{StudentID: "s1", Type: assessment.TypeWorkplace}); ok {
		t.Error("module row should not be addressable by unit key")
	}
}

func TestIndex_LookupModule(t *testing.T) {
	older := assessment.Assessment{ID: "old", StudentID: "s1", ModuleID: "mod-1", Type: assessment.TypeWorkplace, Result: assessment.ResultNotYetCompetent}
	older.UpdatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := assessment.Assessment{ID: "new", StudentID: "s1", ModuleID: "mod-1", Type: assessment.TypeWorkplace, Result: assessment.ResultCompetent}
	newer.UpdatedAt = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	ix := assessment.NewIndex([]assessment.Assessment{newer, older})
	a, ok := ix.LookupModule("s1", "mod-1", assessment.TypeWorkplace)
	if !ok || a.ID != "new" {
		t.Errorf("LookupModule() = %+v, %v; want newest row", a, ok)
	}
	if _, ok := ix.LookupModule("s2", "mod-1", assessment.TypeWorkplace); ok {
		t.Error("LookupModule() for another student should miss")
	}
}
