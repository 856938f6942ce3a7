package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestGetProfile(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")

	got, err := env.svc.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)

	_, err = env.svc.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")

	got, err := env.svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{
		Username: strptr("alice-renamed"),
		Country:  strptr("FR"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice-renamed", got.Username)
	assert.Equal(t, "FR", got.Country)
	// Untouched fields survive.
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Phone, got.Phone)
}

func TestUpdateAvatar_ReplacesAndCleansUp(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")

	first, err := env.svc.UpdateAvatar(context.Background(), u.ID, []byte("image-1"), "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, first.AvatarRef)

	second, err := env.svc.UpdateAvatar(context.Background(), u.ID, []byte("image-2"), "image/png")
	require.NoError(t, err)
	require.NotEqual(t, first.AvatarRef, second.AvatarRef)

	// The replaced image is gone, the current one is fetchable.
	_, err = env.files.Fetch(context.Background(), first.AvatarRef)
	assert.Error(t, err)
	data, err := env.files.Fetch(context.Background(), second.AvatarRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-2"), data)
}

func TestRemoveAccount(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")
	updated, err := env.svc.UpdateAvatar(context.Background(), u.ID, []byte("image"), "image/png")
	require.NoError(t, err)

	require.NoError(t, env.svc.RemoveAccount(context.Background(), u.ID))

	_, err = env.repo.FindByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.files.Fetch(context.Background(), updated.AvatarRef)
	assert.Error(t, err, "avatar is removed with the account")

	assert.ErrorIs(t, env.svc.RemoveAccount(context.Background(), u.ID), ErrNotFound)
}

func TestToggleBan(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("u1", "alice@example.com", "password123")

	banned, err := env.svc.ToggleBan(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, banned.IsBanned)

	unbanned, err := env.svc.ToggleBan(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, unbanned.IsBanned)

	_, err = env.svc.ToggleBan(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
