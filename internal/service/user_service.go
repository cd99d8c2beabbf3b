package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/repository"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

// UserService manages user accounts. Every operation is gated on the
// manage_users capability.
type UserService struct {
	users      repository.UserRepository
	loginLogs  repository.LoginLogRepository
	bcryptCost int
}

// UserDependencies bundles collaborators for the service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	LoginLogRepo repository.LoginLogRepository
	BcryptCost   int
}

// CreateUserInput carries the new account's fields.
type CreateUserInput struct {
	Username     string
	Password     string
	FullName     string
	Email        string
	Department   string
	Role         domain.Role
	Capabilities []domain.Capability
}

// UpdateUserInput carries mutable account fields.
type UpdateUserInput struct {
	FullName     string
	Email        string
	Department   string
	Role         domain.Role
	Capabilities []domain.Capability
	IsActive     bool
}

// LoginLogPage is one page of login attempts plus the total.
type LoginLogPage struct {
	Items []domain.LoginLog
	Total int64
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		loginLogs:  deps.LoginLogRepo,
		bcryptCost: deps.BcryptCost,
	}
}

// Create registers a new user account.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	if !auth.HasCapability(actor, domain.CapabilityManageUsers) {
		return nil, apperrors.NewForbidden("manage_users capability required")
	}
	if err := validateUserInput(input.Username, input.FullName, input.Role); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	caps := input.Capabilities
	if len(caps) == 0 {
		caps = domain.DefaultCapabilities(input.Role)
	}
	user := &domain.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        strings.TrimSpace(input.Email),
		Department:   strings.TrimSpace(input.Department),
		Role:         input.Role,
		Capabilities: caps,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("username already exists", map[string]any{
				"username": user.Username,
			})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update modifies an existing account. The username is immutable.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id int64, input UpdateUserInput) (*domain.User, error) {
	if !auth.HasCapability(actor, domain.CapabilityManageUsers) {
		return nil, apperrors.NewForbidden("manage_users capability required")
	}
	if !domain.ValidRole(input.Role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(input.Role)})
	}
	if actor.ID == id && !input.IsActive {
		return nil, apperrors.NewValidationError("cannot deactivate your own account", nil)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	user.FullName = strings.TrimSpace(input.FullName)
	user.Email = strings.TrimSpace(input.Email)
	user.Department = strings.TrimSpace(input.Department)
	user.Role = input.Role
	user.Capabilities = input.Capabilities
	if len(user.Capabilities) == 0 {
		user.Capabilities = domain.DefaultCapabilities(input.Role)
	}
	user.IsActive = input.IsActive

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Get fetches one account.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.User, error) {
	if !auth.HasCapability(actor, domain.CapabilityManageUsers) {
		return nil, apperrors.NewForbidden("manage_users capability required")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns accounts matching the filter.
func (s *UserService) List(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if !auth.HasCapability(actor, domain.CapabilityManageUsers) {
		return nil, apperrors.NewForbidden("manage_users capability required")
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// LoginLogs returns recent authentication attempts, newest first.
func (s *UserService) LoginLogs(ctx context.Context, actor *domain.User, limit, offset int) (*LoginLogPage, error) {
	if !auth.HasCapability(actor, domain.CapabilityManageUsers) {
		return nil, apperrors.NewForbidden("manage_users capability required")
	}
	items, err := s.loginLogs.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.loginLogs.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &LoginLogPage{Items: items, Total: total}, nil
}

func validateUserInput(username, fullName string, role domain.Role) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.NewValidationError("username is required", nil)
	}
	if strings.TrimSpace(fullName) == "" {
		return apperrors.NewValidationError("full name is required", nil)
	}
	if !domain.ValidRole(role) {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	return nil
}
