package group_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/vocatrack/internal/group"
)

const seedYAML = `groups:
  - id: g1
    name: Cohort A
    start_date: 06/01/2025
    students:
      - id: s1
        name: Sipho
        progress: 12.5
        total_credits_earned: 5
      - id: s2
        name: Thandi
  - id: g2
    name: Cohort B
`

func TestMemoryStore_Seed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	store := group.NewMemoryStore()
	if err := store.Seed(path); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	g, err := store.GetGroup(t.Context(), "g1")
	if err != nil {
		t.Fatalf("GetGroup() error = %v", err)
	}
	if g.StartDateString() != "06/01/2025" {
		t.Errorf("StartDateString() = %q", g.StartDateString())
	}
	students, err := store.ListStudents(t.Context(), "g1")
	if err != nil || len(students) != 2 {
		t.Fatalf("ListStudents() = %+v, %v", students, err)
	}
	if students[0].Progress != 12.5 || students[0].TotalCreditsEarned != 5 {
		t.Errorf("s1 = %+v", students[0])
	}
	other, err := store.GetGroup(t.Context(), "g2")
	if err != nil || other.StartDateString() != "" {
		t.Errorf("g2 = %+v, %v", other, err)
	}
}

func TestParseSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "groups: [\n"},
		{"missing name", "groups:\n  - id: g1\n"},
		{"bad start date", "groups:\n  - id: g1\n    name: A\n    start_date: 2025-01-06\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := group.ParseSeed([]byte(tt.yaml)); err == nil {
				t.Error("ParseSeed() should fail")
			}
		})
	}
}
