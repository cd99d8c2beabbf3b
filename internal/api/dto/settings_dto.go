package dto

import (
	"time"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// SettingOptionRequest payload for creating or updating an option.
type SettingOptionRequest struct {
	Name     string `json:"name"`
	Floor    string `json:"floor"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

// SettingOptionResponse is the wire form of one option.
type SettingOptionResponse struct {
	ID        int64             `json:"id"`
	Kind      domain.OptionKind `json:"kind"`
	Name      string            `json:"name"`
	Floor     string            `json:"floor,omitempty"`
	Position  int               `json:"position"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FromSettingOption maps one option.
func FromSettingOption(option domain.SettingOption) SettingOptionResponse {
	return SettingOptionResponse{
		ID:        option.ID,
		Kind:      option.Kind,
		Name:      option.Name,
		Floor:     option.Floor,
		Position:  option.Position,
		IsActive:  option.IsActive,
		CreatedAt: option.CreatedAt,
		UpdatedAt: option.UpdatedAt,
	}
}
