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

// SettingsService serves the configurable department and category options.
// Reads are open to any authenticated reader; mutations are managerial.
type SettingsService struct {
	settings repository.SettingsRepository
}

// SettingOptionInput carries a new or updated option.
type SettingOptionInput struct {
	Name     string
	Floor    string
	Position int
	IsActive bool
}

// NewSettingsService constructs the service.
func NewSettingsService(settings repository.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// ListOptions returns options of one kind, ordered by position.
func (s *SettingsService) ListOptions(ctx context.Context, actor *domain.User, kind domain.OptionKind) ([]domain.SettingOption, error) {
	if !auth.HasCapability(actor, domain.CapabilityRead) {
		return nil, apperrors.NewForbidden("read capability required")
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	options, err := s.settings.ListByKind(ctx, kind)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return options, nil
}

// CreateOption registers a new option of the given kind.
func (s *SettingsService) CreateOption(ctx context.Context, actor *domain.User, kind domain.OptionKind, input SettingOptionInput) (*domain.SettingOption, error) {
	if !auth.CanManageSettings(actor) {
		return nil, apperrors.NewForbidden("admin or manager role required to change settings")
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("option name is required", nil)
	}

	option := &domain.SettingOption{
		Kind:     kind,
		Name:     name,
		Floor:    strings.TrimSpace(input.Floor),
		Position: input.Position,
		IsActive: input.IsActive,
	}
	if err := s.settings.Create(ctx, option); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("option already exists", map[string]any{
				"kind": string(kind),
				"name": name,
			})
		}
		return nil, apperrors.MapError(err)
	}
	return option, nil
}

// UpdateOption modifies an existing option in place. Renames do not rewrite
// historical work logs; old rows keep the name they were created with.
func (s *SettingsService) UpdateOption(ctx context.Context, actor *domain.User, id int64, input SettingOptionInput) (*domain.SettingOption, error) {
	if !auth.CanManageSettings(actor) {
		return nil, apperrors.NewForbidden("admin or manager role required to change settings")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("option name is required", nil)
	}

	option := &domain.SettingOption{
		ID:       id,
		Name:     name,
		Floor:    strings.TrimSpace(input.Floor),
		Position: input.Position,
		IsActive: input.IsActive,
	}
	if err := s.settings.Update(ctx, option); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("setting option", map[string]any{"id": id})
		}
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("option already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return option, nil
}

// SchemaVersion reports the settings schema revision.
func (s *SettingsService) SchemaVersion(ctx context.Context) (int, error) {
	version, err := s.settings.SchemaVersion(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return version, nil
}

func validateKind(kind domain.OptionKind) error {
	switch kind {
	case domain.OptionKindDepartment, domain.OptionKindCategory:
		return nil
	}
	return apperrors.NewValidationError("unknown option kind", map[string]any{"kind": string(kind)})
}
