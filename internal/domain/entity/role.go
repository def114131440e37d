package entity

// RoleKind identifies the capacity a user holds within a department
type RoleKind string

const (
	// RoleAdministrator is the HR role in the overtime workflow. Its scope
	// is global: an administrator acts on requests from every department.
	RoleAdministrator RoleKind = "ADMINISTRATOR"

	// RoleBoss (jefatura) approves the boss stage of their own department
	RoleBoss RoleKind = "BOSS"

	// RoleAssistant (asistente de jefatura) reviews the assistant stage of
	// their own department
	RoleAssistant RoleKind = "ASSISTANT"

	// RoleMember (colaborador) is the default when no department role
	// record exists; never authorized to approve anything
	RoleMember RoleKind = "MEMBER"
)

// rolePriority orders roles for PrimaryRole resolution
var rolePriority = map[RoleKind]int{
	RoleAdministrator: 4,
	RoleBoss:          3,
	RoleAssistant:     2,
	RoleMember:        1,
}

// Priority returns the precedence of the role kind; higher wins
func (k RoleKind) Priority() int {
	return rolePriority[k]
}

// IsValid returns true if the role kind is one of the defined constants
func (k RoleKind) IsValid() bool {
	_, ok := rolePriority[k]
	return ok
}

// String returns the string representation of the role kind
func (k RoleKind) String() string {
	return string(k)
}

// RoleAssignment binds a user to a role within a department. A user may
// hold any number of assignments across departments; nothing in the
// authorization rules may assume exactly one. Administrator assignments
// carry an empty DepartmentID because their scope is global.
type RoleAssignment struct {
	UserEmail    string   `json:"user_email"`
	DepartmentID string   `json:"department_id"`
	Kind         RoleKind `json:"kind"`
}
