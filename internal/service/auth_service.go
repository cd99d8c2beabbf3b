package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/repository"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

const (
	loginStatusSuccess = "success"
	loginStatusFailed  = "failed"
)

// AuthService handles login, password management, and the bootstrap admin.
type AuthService struct {
	users      repository.UserRepository
	loginLogs  repository.LoginLogRepository
	tokens     *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies bundles collaborators for the service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	LoginLogRepo repository.LoginLogRepository
	Tokens       *auth.TokenManager
	Logger       *zap.Logger
	BcryptCost   int
}

// LoginResult carries the issued token and its owner.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		loginLogs:  deps.LoginLogRepo,
		tokens:     deps.Tokens,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// Login verifies credentials and issues a JWT. Every attempt against a known
// account is recorded, failed ones included.
func (s *AuthService) Login(ctx context.Context, username, password string, prov domain.Provenance) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid username or password")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		s.recordAttempt(ctx, user.ID, loginStatusFailed, prov)
		return nil, apperrors.NewUnauthorized("account is disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordAttempt(ctx, user.ID, loginStatusFailed, prov)
		return nil, apperrors.NewUnauthorized("invalid username or password")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordAttempt(ctx, user.ID, loginStatusSuccess, prov)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ChangePassword lets an authenticated user rotate their own password after
// proving knowledge of the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if err := auth.ComparePassword(actor.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.UpdatePassword(ctx, actor.ID, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ResetPassword sets another user's password. Restricted to user managers.
func (s *AuthService) ResetPassword(ctx context.Context, actor *domain.User, userID int64, newPassword string) error {
	if !auth.HasCapability(actor, domain.CapabilityManageUsers) {
		return apperrors.NewForbidden("manage_users capability required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// EnsureDefaultAdmin creates the bootstrap admin account when the user table
// has no admin yet. Intended for first startup against an empty database.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	exists, err := s.users.HasAdmin(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     "Administrator",
		Department:   "IT",
		Role:         domain.RoleAdmin,
		Capabilities: domain.DefaultCapabilities(domain.RoleAdmin),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil
		}
		return err
	}

	if s.logger != nil {
		s.logger.Warn("bootstrap admin created, change the password immediately",
			zap.String("username", username))
	}
	return nil
}

func (s *AuthService) recordAttempt(ctx context.Context, userID int64, status string, prov domain.Provenance) {
	entry := &domain.LoginLog{
		UserID:    userID,
		IPAddress: prov.IPAddress,
		UserAgent: prov.UserAgent,
		Status:    status,
	}
	if err := s.loginLogs.Create(ctx, entry); err != nil && s.logger != nil {
		s.logger.Error("failed to record login attempt",
			zap.Int64("user_id", userID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	return nil
}
