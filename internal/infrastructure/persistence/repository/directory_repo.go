package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/grupoandino/portal-approvals/internal/application/port"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	"github.com/grupoandino/portal-approvals/internal/infrastructure/persistence/sqlite"
)

// DirectoryRepository implements port.DirectorySource over the local
// replica of the list store's department and role tables. Both loads
// are idempotent bulk reads; nothing ever writes through this type.
type DirectoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *sql.DB, logger *zap.Logger) port.DirectorySource {
	return &DirectoryRepository{db: db, logger: logger}
}

// LoadDepartments returns every department with its categorized
// membership sets.
func (r *DirectoryRepository) LoadDepartments(ctx context.Context) ([]*entity.Department, error) {
	exec := sqlite.ExecutorFrom(ctx, r.db)

	rows, err := exec.QueryContext(ctx, `SELECT id, name FROM departments ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to load departments", zap.Error(err))
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*entity.Department)
	var departments []*entity.Department
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		dept := entity.NewDepartment(id, name)
		byID[id] = dept
		departments = append(departments, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := exec.QueryContext(ctx,
		`SELECT department_id, user_email, role FROM department_members`)
	if err != nil {
		r.logger.Error("Failed to load department members", zap.Error(err))
		return nil, fmt.Errorf("failed to load department members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var departmentID, email, role string
		if err := memberRows.Scan(&departmentID, &email, &role); err != nil {
			return nil, err
		}
		dept, ok := byID[departmentID]
		if !ok {
			continue
		}
		switch entity.RoleKind(role) {
		case entity.RoleBoss:
			dept.Bosses[email] = true
		case entity.RoleAssistant:
			dept.Assistants[email] = true
		case entity.RoleAdministrator:
			dept.Administrators[email] = true
		default:
			dept.Members[email] = true
		}
	}

	return departments, memberRows.Err()
}

// LoadRoleAssignments returns the explicit role assignment records.
// These are merged on top of department membership; an empty
// department_id marks a globally scoped assignment.
func (r *DirectoryRepository) LoadRoleAssignments(ctx context.Context) ([]*entity.RoleAssignment, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx,
		`SELECT user_email, department_id, kind FROM role_assignments`)
	if err != nil {
		r.logger.Error("Failed to load role assignments", zap.Error(err))
		return nil, fmt.Errorf("failed to load role assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*entity.RoleAssignment
	for rows.Next() {
		var a entity.RoleAssignment
		if err := rows.Scan(&a.UserEmail, &a.DepartmentID, &a.Kind); err != nil {
			return nil, err
		}
		assignments = append(assignments, &a)
	}

	return assignments, rows.Err()
}

// Verify interface compliance
var _ port.DirectorySource = (*DirectoryRepository)(nil)
