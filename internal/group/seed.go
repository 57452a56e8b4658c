package group

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/vocatrack/internal/workdays"
)

// seedFile is the on-disk shape of a roster seed.
type seedFile struct {
	Groups []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		StartDate string `yaml:"start_date"` // DD/MM/YYYY
		Students  []struct {
			ID                 string  `yaml:"id"`
			Name               string  `yaml:"name"`
			Progress           float64 `yaml:"progress"`
			TotalCreditsEarned int     `yaml:"total_credits_earned"`
		} `yaml:"students"`
	} `yaml:"groups"`
}

// ParseSeed decodes a YAML roster seed into groups and their students.
func ParseSeed(data []byte) ([]Group, []Student, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse seed: %w", err)
	}

	var (
		groups   []Group
		students []Student
	)
	for i, sg := range doc.Groups {
		if sg.ID == "" || sg.Name == "" {
			return nil, nil, fmt.Errorf("seed group %d: id and name are required", i)
		}
		g := Group{ID: sg.ID, Name: sg.Name}
		if sg.StartDate != "" {
			start, err := workdays.Parse("start_date", sg.StartDate)
			if err != nil {
				return nil, nil, fmt.Errorf("seed group %s: %w", sg.ID, err)
			}
			g.StartDate = start
		}
		groups = append(groups, g)
		for _, ss := range sg.Students {
			students = append(students, Student{
				ID:                 ss.ID,
				GroupID:            sg.ID,
				Name:               ss.Name,
				Progress:           ss.Progress,
				TotalCreditsEarned: ss.TotalCreditsEarned,
			})
		}
	}
	return groups, students, nil
}

// Seed loads the roster file at path into the store.
func (s *MemoryStore) Seed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	groups, students, err := ParseSeed(data)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := s.CreateGroup(g); err != nil {
			return err
		}
	}
	for _, st := range students {
		if _, err := s.AddStudent(st); err != nil {
			return err
		}
	}
	return nil
}
