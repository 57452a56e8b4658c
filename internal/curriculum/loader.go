// Package curriculum loads the module and unit-standard structure that the
// rollout engine and assessment derivations read from.
package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches curriculum content from the filesystem.
type Loader struct {
	rootDir  string
	snapshot Snapshot
	mu       sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all content under rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{rootDir: rootDir}

	if err := l.Reload(); err != nil {
		return nil, err
	}

	snap := l.Snapshot()
	slog.Info("curriculum loaded",
		"modules", len(snap.Modules),
		"unit_standards", len(snap.UnitStandards()),
	)
	return l, nil
}

// Snapshot returns the current curriculum. Callers must treat it as read-only.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Reload rereads every curriculum file. The previous snapshot is kept on error.
func (l *Loader) Reload() error {
	var modules []Module
	err := filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		loaded, err := loadFile(path)
		if err != nil {
			return err
		}
		modules = append(modules, loaded...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading curriculum: %w", err)
	}

	snap, err := buildSnapshot(modules)
	if err != nil {
		return fmt.Errorf("loading curriculum: %w", err)
	}

	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()
	return nil
}

// Parse decodes and validates a single curriculum document.
func Parse(data []byte) (Snapshot, error) {
	modules, err := decode(data)
	if err != nil {
		return Snapshot{}, err
	}
	return buildSnapshot(modules)
}

func loadFile(path string) ([]Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	modules, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return modules, nil
}

func decode(data []byte) ([]Module, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	return doc.Modules, nil
}

// buildSnapshot orders modules by number and stamps unit standards with their
// owning module. Unit order inside a module is kept as written.
func buildSnapshot(modules []Module) (Snapshot, error) {
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].Number < modules[j].Number
	})

	seenModules := make(map[int]bool)
	seenUnits := make(map[string]bool)
	for i := range modules {
		m := &modules[i]
		if seenModules[m.Number] {
			return Snapshot{}, fmt.Errorf("duplicate module number %d", m.Number)
		}
		seenModules[m.Number] = true

		for j := range m.UnitStandards {
			u := &m.UnitStandards[j]
			if seenUnits[u.ID] {
				return Snapshot{}, fmt.Errorf("duplicate unit standard %q", u.ID)
			}
			seenUnits[u.ID] = true
			u.ModuleID = m.ID
		}
	}

	return Snapshot{Modules: modules}, nil
}
