package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_WelcomeMessage_SeedsDefault(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingsService(repo)

	text, err := svc.WelcomeMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultWelcomeMessage, text)
	// Seeded as a row so the admin panel can show and edit it.
	assert.Equal(t, defaultWelcomeMessage, repo.values[settingWelcomeMessage])

	require.NoError(t, svc.SetWelcomeMessage(context.Background(), "Hello there"))
	text, err = svc.WelcomeMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)
}

func TestSettingsService_MaintenanceMode(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingsService(repo)

	on, err := svc.MaintenanceMode(context.Background())
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, svc.SetMaintenanceMode(context.Background(), true))
	on, err = svc.MaintenanceMode(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, "true", repo.values[settingMaintenanceMode])

	require.NoError(t, svc.SetMaintenanceMode(context.Background(), false))
	on, err = svc.MaintenanceMode(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
}

func TestSettingsService_MaintenanceMode_MalformedValue(t *testing.T) {
	repo := newMockSettingRepo()
	repo.values[settingMaintenanceMode] = "yes"
	svc := NewSettingsService(repo)

	on, err := svc.MaintenanceMode(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
}
