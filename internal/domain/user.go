package domain

import "time"

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleViewer  Role = "viewer"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser, RoleViewer:
		return true
	}
	return false
}

// Capability is a named permission grantable independently of role.
type Capability string

const (
	CapabilityCreate      Capability = "create"
	CapabilityRead        Capability = "read"
	CapabilityUpdate      Capability = "update"
	CapabilityDelete      Capability = "delete"
	CapabilityManageUsers Capability = "manage_users"
	CapabilityViewStats   Capability = "view_stats"
	CapabilityExportData  Capability = "export_data"
)

// DefaultCapabilities returns the capability set implied by a role. Explicit
// grants can extend these defaults.
func DefaultCapabilities(role Role) []Capability {
	switch role {
	case RoleAdmin:
		return []Capability{
			CapabilityCreate, CapabilityRead, CapabilityUpdate, CapabilityDelete,
			CapabilityManageUsers, CapabilityViewStats, CapabilityExportData,
		}
	case RoleManager:
		return []Capability{
			CapabilityCreate, CapabilityRead, CapabilityUpdate, CapabilityDelete,
			CapabilityViewStats, CapabilityExportData,
		}
	case RoleUser:
		return []Capability{CapabilityCreate, CapabilityRead, CapabilityUpdate}
	case RoleViewer:
		return []Capability{CapabilityRead}
	}
	return nil
}

// User is the acting principal for every operation.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Department   string
	Role         Role
	Capabilities []Capability
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
