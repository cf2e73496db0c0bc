package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/models"
	"github.com/iudanet/entsync/internal/server/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func newTestUser(username string) *models.User {
	return &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "$2a$10$fakehashfortesting",
		CreatedAt:    time.Now(),
	}
}

func TestCreateUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Username, got.Username)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.Nil(t, got.LastLogin)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newTestUser("alice")))

	err := s.CreateUser(ctx, newTestUser("alice"))
	require.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetUserByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestGetUserByID(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("bob")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = s.GetUserByID(ctx, uuid.New().String())
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUpdateLastLogin(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("carol")
	require.NoError(t, s.CreateUser(ctx, user))

	loginTime := time.Now().Truncate(time.Second)
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID, loginTime))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.WithinDuration(t, loginTime, *got.LastLogin, time.Second)
}

func TestUpdateLastLogin_UnknownUser(t *testing.T) {
	s := newTestStorage(t)

	err := s.UpdateLastLogin(context.Background(), uuid.New().String(), time.Now())
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}
