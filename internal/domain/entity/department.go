package entity

// Department is one organizational unit from the directory snapshot.
// Membership sets are keyed by lower-cased email. The snapshot is loaded
// once per session and treated as immutable; staleness is accepted.
type Department struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Bosses         map[string]bool `json:"bosses"`
	Assistants     map[string]bool `json:"assistants"`
	Administrators map[string]bool `json:"administrators"`
	Members        map[string]bool `json:"members"`

	// IsFinance is computed once at load time from the department name
	// ("accounting"/"contabilidad" substring, case and accent insensitive)
	// so authorization checks never re-match strings.
	IsFinance bool `json:"is_finance"`
}

// NewDepartment creates a department with initialized membership sets
func NewDepartment(id, name string) *Department {
	return &Department{
		ID:             id,
		Name:           name,
		Bosses:         make(map[string]bool),
		Assistants:     make(map[string]bool),
		Administrators: make(map[string]bool),
		Members:        make(map[string]bool),
	}
}

// HasAssistants returns true if the department has at least one assistant.
// The expense workflow treats the assistant stage as satisfied when this
// is false.
func (d *Department) HasAssistants() bool {
	return len(d.Assistants) > 0
}
