package assessment

// moduleKey addresses module-level rows that carry no unit standard.
type moduleKey struct {
	StudentID string
	ModuleID  string
	Type      Type
}

// Index is a read-only lookup over a flat list of assessments. It is rebuilt
// wholesale whenever the list changes.
//
// When the source list holds more than one row for a key, the row with the
// latest UpdatedAt wins (later position breaks ties).
type Index struct {
	rows      []Assessment
	byKey     map[Key]int
	byModule  map[moduleKey]int
	byStudent map[string][]int
	byUnit    map[string][]int
}

// NewIndex builds an index over rows. The slice is copied.
func NewIndex(rows []Assessment) *Index {
	ix := &Index{
		rows:      append([]Assessment(nil), rows...),
		byKey:     make(map[Key]int),
		byModule:  make(map[moduleKey]int),
		byStudent: make(map[string][]int),
		byUnit:    make(map[string][]int),
	}

	for i, a := range ix.rows {
		ix.byStudent[a.StudentID] = append(ix.byStudent[a.StudentID], i)

		if a.UnitStandardID == "" {
			mk := moduleKey{StudentID: a.StudentID, ModuleID: a.ModuleID, Type: a.Type}
			if prev, ok := ix.byModule[mk]; !ok || !ix.rows[prev].UpdatedAt.After(a.UpdatedAt) {
				ix.byModule[mk] = i
			}
			continue
		}

		ix.byUnit[a.UnitStandardID] = append(ix.byUnit[a.UnitStandardID], i)
		k := a.Key()
		if prev, ok := ix.byKey[k]; !ok || !ix.rows[prev].UpdatedAt.After(a.UpdatedAt) {
			ix.byKey[k] = i
		}
	}
	return ix
}

// Len returns the number of rows in the index.
func (ix *Index) Len() int {
	return len(ix.rows)
}

// Rows returns a copy of the indexed rows.
func (ix *Index) Rows() []Assessment {
	return append([]Assessment{}, ix.rows...)
}

// Lookup returns the assessment stored for k.
func (ix *Index) Lookup(k Key) (Assessment, bool) {
	i, ok := ix.byKey[k]
	if !ok {
		return Assessment{}, false
	}
	return ix.rows[i], true
}

// Result returns the result for k, PENDING when no row exists.
func (ix *Index) Result(k Key) Result {
	if a, ok := ix.Lookup(k); ok {
		return a.Result
	}
	return ResultPending
}

// LookupModule returns the module-level row a student holds for moduleID.
func (ix *Index) LookupModule(studentID, moduleID string, t Type) (Assessment, bool) {
	i, ok := ix.byModule[moduleKey{StudentID: studentID, ModuleID: moduleID, Type: t}]
	if !ok {
		return Assessment{}, false
	}
	return ix.rows[i], true
}

// ModuleResult returns the result of a module-level row, PENDING when absent.
func (ix *Index) ModuleResult(studentID, moduleID string, t Type) Result {
	if a, ok := ix.LookupModule(studentID, moduleID, t); ok {
		return a.Result
	}
	return ResultPending
}

// HasModuleRow reports whether any module-level row exists for the student.
func (ix *Index) HasModuleRow(studentID, moduleID string, t Type) bool {
	_, ok := ix.byModule[moduleKey{StudentID: studentID, ModuleID: moduleID, Type: t}]
	return ok
}

// ForStudent returns every row held by a student.
func (ix *Index) ForStudent(studentID string) []Assessment {
	return ix.collect(ix.byStudent[studentID])
}

// ForUnit returns every row recorded against a unit standard.
func (ix *Index) ForUnit(unitStandardID string) []Assessment {
	return ix.collect(ix.byUnit[unitStandardID])
}

func (ix *Index) collect(positions []int) []Assessment {
	out := make([]Assessment, 0, len(positions))
	for _, i := range positions {
		out = append(out, ix.rows[i])
	}
	return out
}
