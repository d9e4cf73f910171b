package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Identify_CreatesThenRefreshes(t *testing.T) {
	svc := NewUserService(newMockUserRepo())

	first, err := svc.Identify(context.Background(), 12345, "alice", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), first.TelegramID)

	// Same chat peer with a renamed account keeps the same record.
	second, err := svc.Identify(context.Background(), 12345, "alice_new", "Alice", "B")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice_new", second.Username)
}

func TestUserService_SetBanned(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)

	user, err := svc.Identify(context.Background(), 12345, "alice", "Alice", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetBanned(context.Background(), user.ID, true))
	banned, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, banned.Banned)

	require.NoError(t, svc.SetBanned(context.Background(), user.ID, false))
	unbanned, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, unbanned.Banned)
}

func TestUserService_SetBanned_NotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo())
	err := svc.SetBanned(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
