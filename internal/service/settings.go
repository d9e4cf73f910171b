package service

import (
	"context"
	"fmt"

	"github.com/cloudsupply/storebot/internal/repository"
)

const (
	settingWelcomeMessage  = "welcome_message"
	settingMaintenanceMode = "maintenance_mode"

	defaultWelcomeMessage = "Welcome to Cloud Supply! Browse the catalog and place your order."
)

// SettingsService wraps the key/value store with typed accessors and
// defaults for the settings the bot actually uses.
type SettingsService struct {
	settingRepo repository.SettingRepository
}

func NewSettingsService(settingRepo repository.SettingRepository) *SettingsService {
	return &SettingsService{settingRepo: settingRepo}
}

// WelcomeMessage returns the configured greeting, seeding the default on
// first read so admins can see and edit the current value.
func (s *SettingsService) WelcomeMessage(ctx context.Context) (string, error) {
	value, ok, err := s.settingRepo.Get(ctx, settingWelcomeMessage)
	if err != nil {
		return "", fmt.Errorf("get welcome message: %w", err)
	}
	if !ok {
		if err := s.settingRepo.Set(ctx, settingWelcomeMessage, defaultWelcomeMessage); err != nil {
			return "", fmt.Errorf("seed welcome message: %w", err)
		}
		return defaultWelcomeMessage, nil
	}
	return value, nil
}

func (s *SettingsService) SetWelcomeMessage(ctx context.Context, text string) error {
	if err := s.settingRepo.Set(ctx, settingWelcomeMessage, text); err != nil {
		return fmt.Errorf("set welcome message: %w", err)
	}
	return nil
}

// MaintenanceMode reports whether the storefront is closed to buyers.
// Missing or malformed values read as off.
func (s *SettingsService) MaintenanceMode(ctx context.Context) (bool, error) {
	value, ok, err := s.settingRepo.Get(ctx, settingMaintenanceMode)
	if err != nil {
		return false, fmt.Errorf("get maintenance mode: %w", err)
	}
	return ok && value == "true", nil
}

func (s *SettingsService) SetMaintenanceMode(ctx context.Context, on bool) error {
	value := "false"
	if on {
		value = "true"
	}
	if err := s.settingRepo.Set(ctx, settingMaintenanceMode, value); err != nil {
		return fmt.Errorf("set maintenance mode: %w", err)
	}
	return nil
}
