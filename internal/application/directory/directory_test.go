package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

func testDepartments() []*entity.Department {
	sales := entity.NewDepartment("sales", "Sales")
	sales.Bosses["boss@example.com"] = true
	sales.Assistants["assistant@example.com"] = true
	sales.Members["member@example.com"] = true

	accounting := entity.NewDepartment("acct", "Contabilidad")
	accounting.Bosses["finboss@example.com"] = true
	accounting.Assistants["finassist@example.com"] = true

	ops := entity.NewDepartment("ops", "Operations")
	ops.Bosses["opsboss@example.com"] = true

	return []*entity.Department{sales, accounting, ops}
}

func TestFinanceNameMatching(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Accounting", true},
		{"accounting department", true},
		{"Contabilidad", true},
		{"CONTABILIDÁD", true},
		{"Contabilidad y Finanzas", true},
		{"Sales", false},
		{"Recursos Humanos", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isFinanceName(tt.name), "name %q", tt.name)
	}
}

func TestBuildComputesFinanceFlag(t *testing.T) {
	dir := Build(testDepartments(), nil)

	acct, ok := dir.Department("acct")
	require.True(t, ok)
	assert.True(t, acct.IsFinance)

	sales, ok := dir.Department("sales")
	require.True(t, ok)
	assert.False(t, sales.IsFinance)
}

func TestRolesFor(t *testing.T) {
	dir := Build(testDepartments(), nil)

	roles := dir.RolesFor("boss@example.com")
	require.Len(t, roles, 1)
	assert.Equal(t, entity.RoleBoss, roles[0].Kind)
	assert.Equal(t, "sales", roles[0].DepartmentID)

	// Lookups are case-insensitive
	assert.Len(t, dir.RolesFor("Boss@Example.com"), 1)

	// Unknown users yield an empty slice, never an error
	assert.Empty(t, dir.RolesFor("stranger@example.com"))
}

func TestGlobalAdministratorAssignment(t *testing.T) {
	assignments := []*entity.RoleAssignment{
		{UserEmail: "admin@example.com", DepartmentID: "", Kind: entity.RoleAdministrator},
	}
	dir := Build(testDepartments(), assignments)

	assert.True(t, dir.IsAdministrator("admin@example.com"))
	assert.False(t, dir.IsAdministrator("boss@example.com"))

	// Global assignment resolves no home department
	_, ok := dir.DepartmentFor("admin@example.com")
	assert.False(t, ok)
}

func TestDepartmentFor(t *testing.T) {
	dir := Build(testDepartments(), nil)

	dept, ok := dir.DepartmentFor("member@example.com")
	require.True(t, ok)
	assert.Equal(t, "sales", dept)

	_, ok = dir.DepartmentFor("nobody@example.com")
	assert.False(t, ok)
}

func TestHasAssistants(t *testing.T) {
	dir := Build(testDepartments(), nil)

	assert.True(t, dir.HasAssistants("sales"))
	assert.False(t, dir.HasAssistants("ops"))
	assert.False(t, dir.HasAssistants("missing"))
}

func TestFinanceRolePrecedence(t *testing.T) {
	dir := Build(testDepartments(), nil)

	role, ok := dir.FinanceRole("finboss@example.com")
	require.True(t, ok)
	assert.Equal(t, entity.RoleBoss, role)

	role, ok = dir.FinanceRole("finassist@example.com")
	require.True(t, ok)
	assert.Equal(t, entity.RoleAssistant, role)

	// Boss in a non-finance department holds no finance role
	_, ok = dir.FinanceRole("boss@example.com")
	assert.False(t, ok)
}

func TestPrimaryRole(t *testing.T) {
	assignments := []*entity.RoleAssignment{
		{UserEmail: "boss@example.com", DepartmentID: "", Kind: entity.RoleAdministrator},
	}
	dir := Build(testDepartments(), assignments)

	assert.Equal(t, entity.RoleAdministrator, dir.PrimaryRole("boss@example.com"))
	assert.Equal(t, entity.RoleAssistant, dir.PrimaryRole("assistant@example.com"))
	assert.Equal(t, entity.RoleMember, dir.PrimaryRole("nobody@example.com"))
}

type stubSource struct {
	departments []*entity.Department
	assignments []*entity.RoleAssignment
	err         error
	loads       int
}

func (s *stubSource) LoadDepartments(ctx context.Context) ([]*entity.Department, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.departments, nil
}

func (s *stubSource) LoadRoleAssignments(ctx context.Context) ([]*entity.RoleAssignment, error) {
	return s.assignments, s.err
}

func TestProviderLoadAndReload(t *testing.T) {
	source := &stubSource{departments: testDepartments()}
	provider := NewProvider(source)

	// Before any load the provider serves an empty snapshot
	assert.Empty(t, provider.Current().RolesFor("boss@example.com"))

	require.NoError(t, provider.Load(context.Background()))
	assert.Len(t, provider.Current().RolesFor("boss@example.com"), 1)

	require.NoError(t, provider.Reload(context.Background()))
	assert.Equal(t, 2, source.loads)
}

func TestProviderKeepsSnapshotOnFailedReload(t *testing.T) {
	source := &stubSource{departments: testDepartments()}
	provider := NewProvider(source)
	require.NoError(t, provider.Load(context.Background()))

	source.err = errors.New("replica unavailable")
	require.Error(t, provider.Reload(context.Background()))

	// Stale snapshot survives the failed reload
	assert.Len(t, provider.Current().RolesFor("boss@example.com"), 1)
}
