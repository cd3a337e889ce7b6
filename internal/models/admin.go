package models

import "time"

// AdminRole represents the available roles for the RBAC system.
type AdminRole string

const (
	RoleSuperAdmin      AdminRole = "super_admin"
	RoleDepartmentAdmin AdminRole = "department_admin"
	RolePhotoAdmin      AdminRole = "photo_admin"
)

// Valid reports whether the role is one of the known roles.
func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleDepartmentAdmin, RolePhotoAdmin:
		return true
	}
	return false
}

// Admin represents an operator account stored in the admins table.
// Department admins carry the department they are scoped to; the other
// roles leave it empty.
type Admin struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         AdminRole  `db:"role" json:"role"`
	Department   string     `db:"department" json:"department,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CanAccessDepartment reports whether the admin may operate on records
// of the given department. Super admins see everything; department
// admins only their own department (names compared by normalized key).
func (a *Admin) CanAccessDepartment(department string) bool {
	switch a.Role {
	case RoleSuperAdmin:
		return true
	case RoleDepartmentAdmin:
		return NormalizeDepartment(a.Department) == NormalizeDepartment(department)
	default:
		return false
	}
}
