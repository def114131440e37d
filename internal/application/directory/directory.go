package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/grupoandino/portal-approvals/internal/application/port"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

// Directory is an immutable snapshot of the organizational data: every
// department with its categorized membership, plus a precomputed
// per-user role index. Authorization queries are pure lookups; the
// snapshot is rebuilt only on explicit reload.
type Directory struct {
	departments map[string]*entity.Department
	byEmail     map[string][]entity.RoleAssignment
}

// Build constructs a directory snapshot from the loaded departments and
// explicit role assignment records. One assignment is emitted per
// (department, membership set) pair the user appears in; explicit records
// are merged on top so global Administrator assignments survive even when
// the user belongs to no department.
func Build(departments []*entity.Department, assignments []*entity.RoleAssignment) *Directory {
	d := &Directory{
		departments: make(map[string]*entity.Department, len(departments)),
		byEmail:     make(map[string][]entity.RoleAssignment),
	}

	for _, dept := range departments {
		dept.IsFinance = isFinanceName(dept.Name)
		d.departments[dept.ID] = dept

		for email := range dept.Bosses {
			d.addAssignment(email, dept.ID, entity.RoleBoss)
		}
		for email := range dept.Assistants {
			d.addAssignment(email, dept.ID, entity.RoleAssistant)
		}
		for email := range dept.Administrators {
			d.addAssignment(email, dept.ID, entity.RoleAdministrator)
		}
		for email := range dept.Members {
			d.addAssignment(email, dept.ID, entity.RoleMember)
		}
	}

	for _, a := range assignments {
		if !a.Kind.IsValid() {
			continue
		}
		d.addAssignment(a.UserEmail, a.DepartmentID, a.Kind)
	}

	return d
}

func (d *Directory) addAssignment(email, departmentID string, kind entity.RoleKind) {
	email = normalizeEmail(email)
	if email == "" {
		return
	}
	for _, existing := range d.byEmail[email] {
		if existing.DepartmentID == departmentID && existing.Kind == kind {
			return
		}
	}
	d.byEmail[email] = append(d.byEmail[email], entity.RoleAssignment{
		UserEmail:    email,
		DepartmentID: departmentID,
		Kind:         kind,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RolesFor returns every assignment the user holds. A user absent from
// all departments yields an empty slice, never an error: every
// downstream authorization check must then answer "cannot act".
func (d *Directory) RolesFor(email string) []entity.RoleAssignment {
	return d.byEmail[normalizeEmail(email)]
}

// PrimaryRole returns the highest-priority role the user holds across
// all assignments, RoleMember when there are none.
func (d *Directory) PrimaryRole(email string) entity.RoleKind {
	primary := entity.RoleMember
	for _, a := range d.RolesFor(email) {
		if a.Kind.Priority() > primary.Priority() {
			primary = a.Kind
		}
	}
	return primary
}

// HasRole reports whether the user holds the given role in the given
// department.
func (d *Directory) HasRole(email, departmentID string, kind entity.RoleKind) bool {
	for _, a := range d.RolesFor(email) {
		if a.DepartmentID == departmentID && a.Kind == kind {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the user holds an Administrator
// assignment anywhere. Administrator scope is global.
func (d *Directory) IsAdministrator(email string) bool {
	for _, a := range d.RolesFor(email) {
		if a.Kind == entity.RoleAdministrator {
			return true
		}
	}
	return false
}

// Department returns the department by ID
func (d *Directory) Department(id string) (*entity.Department, bool) {
	dept, ok := d.departments[id]
	return dept, ok
}

// HasAssistants reports whether the department has at least one
// assistant. Unknown departments report false.
func (d *Directory) HasAssistants(departmentID string) bool {
	dept, ok := d.departments[departmentID]
	return ok && dept.HasAssistants()
}

// IsInFinanceDepartment reports whether the user appears in any
// membership set of a finance department.
func (d *Directory) IsInFinanceDepartment(email string) bool {
	for _, a := range d.RolesFor(email) {
		if dept, ok := d.departments[a.DepartmentID]; ok && dept.IsFinance {
			return true
		}
	}
	return false
}

// FinanceRole returns the strongest of the Boss/Assistant roles the user
// holds in any finance department. The boolean is false when the user
// holds neither.
func (d *Directory) FinanceRole(email string) (entity.RoleKind, bool) {
	role := entity.RoleKind("")
	for _, a := range d.RolesFor(email) {
		dept, ok := d.departments[a.DepartmentID]
		if !ok || !dept.IsFinance {
			continue
		}
		switch a.Kind {
		case entity.RoleBoss:
			return entity.RoleBoss, true
		case entity.RoleAssistant:
			role = entity.RoleAssistant
		}
	}
	return role, role != ""
}

// DepartmentFor resolves the department a user belongs to: the first
// department (in load order) whose membership contains the user.
// Department-scoped assignments win over the global Administrator kind.
func (d *Directory) DepartmentFor(email string) (string, bool) {
	for _, a := range d.RolesFor(email) {
		if a.DepartmentID != "" {
			return a.DepartmentID, true
		}
	}
	return "", false
}

// Provider owns the current directory snapshot and its reloads. The
// snapshot is read-only for engines; RequestLifecycleController reloads
// it after every successful transition so the next authorization
// decision never runs against a pre-transition view.
type Provider struct {
	source port.DirectorySource

	mu      sync.RWMutex
	current *Directory
}

// NewProvider creates a provider over the given directory source
func NewProvider(source port.DirectorySource) *Provider {
	return &Provider{source: source}
}

// Load fetches both bulk feeds and builds a fresh snapshot
func (p *Provider) Load(ctx context.Context) error {
	departments, err := p.source.LoadDepartments(ctx)
	if err != nil {
		return fmt.Errorf("load departments: %w", err)
	}

	assignments, err := p.source.LoadRoleAssignments(ctx)
	if err != nil {
		return fmt.Errorf("load role assignments: %w", err)
	}

	snapshot := Build(departments, assignments)

	p.mu.Lock()
	p.current = snapshot
	p.mu.Unlock()

	return nil
}

// Reload refreshes the snapshot; alias of Load kept for call-site clarity
func (p *Provider) Reload(ctx context.Context) error {
	return p.Load(ctx)
}

// Current returns the latest snapshot, or an empty directory if Load has
// never succeeded.
func (p *Provider) Current() *Directory {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return Build(nil, nil)
	}
	return p.current
}
