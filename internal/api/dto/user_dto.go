package dto

import (
	"time"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token plus its owner.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ResetPasswordRequest payload for administrative resets.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Username     string              `json:"username"`
	Password     string              `json:"password"`
	FullName     string              `json:"full_name"`
	Email        string              `json:"email"`
	Department   string              `json:"department"`
	Role         domain.Role         `json:"role"`
	Capabilities []domain.Capability `json:"capabilities"`
}

// UpdateUserRequest payload.
type UpdateUserRequest struct {
	FullName     string              `json:"full_name"`
	Email        string              `json:"email"`
	Department   string              `json:"department"`
	Role         domain.Role         `json:"role"`
	Capabilities []domain.Capability `json:"capabilities"`
	IsActive     bool                `json:"is_active"`
}

// UserResponse never exposes the password hash.
type UserResponse struct {
	ID           int64               `json:"id"`
	Username     string              `json:"username"`
	FullName     string              `json:"full_name"`
	Email        string              `json:"email,omitempty"`
	Department   string              `json:"department,omitempty"`
	Role         domain.Role         `json:"role"`
	Capabilities []domain.Capability `json:"capabilities"`
	IsActive     bool                `json:"is_active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// LoginLogResponse is one recorded authentication attempt.
type LoginLogResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// FromUser maps the domain user to its response form.
func FromUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		Email:        user.Email,
		Department:   user.Department,
		Role:         user.Role,
		Capabilities: user.Capabilities,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// FromLoginLog maps a login attempt.
func FromLoginLog(entry domain.LoginLog) LoginLogResponse {
	return LoginLogResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Username:  entry.Username,
		FullName:  entry.FullName,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Status:    entry.Status,
		CreatedAt: entry.CreatedAt,
	}
}
