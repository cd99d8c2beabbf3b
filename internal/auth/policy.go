package auth

import "github.com/spec-kit/worklog-service/internal/domain"

// Visibility policy: a pure function of (user, requested operation). All
// role and capability checks for work-log access go through here so the
// rules cannot drift between call sites.

// HasCapability reports whether the user holds the capability. Admins
// implicitly hold every capability.
func HasCapability(user *domain.User, capability domain.Capability) bool {
	if user == nil {
		return false
	}
	if user.Role == domain.RoleAdmin {
		return true
	}
	for _, granted := range user.Capabilities {
		if granted == capability {
			return true
		}
	}
	return false
}

// managerial reports whether the user holds one of the two roles allowed to
// work with deleted records and audit history.
func managerial(user *domain.User) bool {
	if user == nil {
		return false
	}
	return user.Role == domain.RoleAdmin || user.Role == domain.RoleManager
}

// CanViewDeleted gates listing and viewing soft-deleted work logs.
func CanViewDeleted(user *domain.User) bool {
	return managerial(user)
}

// CanRestore gates restoring soft-deleted work logs. Restore is role-gated
// only, never capability-gated.
func CanRestore(user *domain.User) bool {
	return managerial(user)
}

// CanViewHistory gates reading a work log's audit trail.
func CanViewHistory(user *domain.User) bool {
	return managerial(user)
}

// CanManageSettings gates changing department and category options.
func CanManageSettings(user *domain.User) bool {
	return managerial(user)
}
