package domain

import "time"

// OptionKind identifies a configurable value domain.
type OptionKind string

const (
	OptionKindDepartment OptionKind = "department"
	OptionKindCategory   OptionKind = "category"
)

// SettingOption is one entry of a versioned configuration table, replacing
// the ad hoc client-side lists the service previously relied on.
type SettingOption struct {
	ID        int64
	Kind      OptionKind
	Name      string
	Floor     string
	Position  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoginLog records one authentication attempt.
type LoginLog struct {
	ID        int64
	UserID    int64
	IPAddress string
	UserAgent string
	Status    string
	CreatedAt time.Time

	Username string
	FullName string
}
