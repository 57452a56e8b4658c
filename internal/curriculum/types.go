package curriculum

// UnitStandard is a credit-bearing curriculum item together with the
// scheduling template the rollout engine consumes.
type UnitStandard struct {
	ID                  string `yaml:"id" json:"id"`
	Code                string `yaml:"code" json:"code"`
	Title               string `yaml:"title" json:"title"`
	Credits             int    `yaml:"credits" json:"credits"`
	Level               int    `yaml:"level" json:"level"`
	ModuleID            string `yaml:"-" json:"moduleId"`
	DurationDays        int    `yaml:"duration_days" json:"durationDays"`
	GapDays             int    `yaml:"gap_days" json:"gapDays"`
	AssessingOffsetDays int    `yaml:"assessing_offset_days" json:"assessingOffsetDays"`
	SummativeOffsetDays int    `yaml:"summative_offset_days" json:"summativeOffsetDays"`
}

// Module is an ordered container of unit standards.
type Module struct {
	ID                string         `yaml:"id" json:"id"`
	Number            int            `yaml:"module_number" json:"moduleNumber"`
	Name              string         `yaml:"name" json:"name"`
	WorkplaceActivity bool           `yaml:"workplace_activity" json:"workplaceActivity"`
	UnitStandards     []UnitStandard `yaml:"unit_standards" json:"unitStandards"`
}

// Snapshot is a read-only view of the curriculum in module order.
type Snapshot struct {
	Modules []Module `json:"modules"`
}

// UnitStandards returns every unit standard in curriculum order.
func (s Snapshot) UnitStandards() []UnitStandard {
	var units []UnitStandard
	for _, m := range s.Modules {
		units = append(units, m.UnitStandards...)
	}
	return units
}

// UnitStandard finds a unit standard by ID.
func (s Snapshot) UnitStandard(id string) (UnitStandard, bool) {
	for _, m := range s.Modules {
		for _, u := range m.UnitStandards {
			if u.ID == id {
				return u, true
			}
		}
	}
	return UnitStandard{}, false
}

// Module finds a module by its number.
func (s Snapshot) Module(number int) (Module, bool) {
	for _, m := range s.Modules {
		if m.Number == number {
			return m, true
		}
	}
	return Module{}, false
}

// Credits maps unit standard IDs to their credit value.
func (s Snapshot) Credits() map[string]int {
	credits := make(map[string]int)
	for _, u := range s.UnitStandards() {
		credits[u.ID] = u.Credits
	}
	return credits
}

// document is the on-disk shape of a curriculum file.
type document struct {
	Modules []Module `yaml:"modules"`
}
