package auth

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/client/api"
	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/models"
	pkgapi "github.com/iudanet/entsync/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memAuthStore — простое in-memory хранилище для тестов сервиса
type memAuthStore struct {
	auth *storage.AuthData
}

func (m *memAuthStore) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	cp := *auth
	m.auth = &cp
	return nil
}

func (m *memAuthStore) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	if m.auth == nil {
		return nil, storage.ErrAuthNotFound
	}
	cp := *m.auth
	return &cp, nil
}

func (m *memAuthStore) DeleteAuth(ctx context.Context) error {
	m.auth = nil
	return nil
}

func (m *memAuthStore) IsAuthenticated(ctx context.Context) (bool, error) {
	return m.auth != nil && time.Now().Before(m.auth.ExpiresAt), nil
}

func TestService_Login_SavesTokens(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		LoginFunc: func(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error) {
			assert.Equal(t, "alice", req.Username)
			return &pkgapi.TokenResponse{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				ExpiresIn:    900,
				UserID:       "user-1",
			}, nil
		},
	}
	store := &memAuthStore{}
	svc := NewService(mockAPI, store, testLogger())

	require.NoError(t, svc.Login(context.Background(), "alice", "password-123456"))

	require.NotNil(t, store.auth)
	assert.Equal(t, "alice", store.auth.Username)
	assert.Equal(t, "access-1", store.auth.AccessToken)
	assert.Equal(t, "refresh-1", store.auth.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(900*time.Second), store.auth.ExpiresAt, 5*time.Second)
}

func TestService_Login_InvalidInput(t *testing.T) {
	mockAPI := &api.ClientAPIMock{}
	svc := NewService(mockAPI, &memAuthStore{}, testLogger())

	assert.Error(t, svc.Login(context.Background(), "", "password-123456"))
	assert.Error(t, svc.Login(context.Background(), "alice", "short"))
	assert.Empty(t, mockAPI.LoginCalls())
}

func TestService_Register_ThenLogin(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		RegisterFunc: func(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error) {
			return &pkgapi.RegisterResponse{UserID: "user-1"}, nil
		},
		LoginFunc: func(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error) {
			return &pkgapi.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
		},
	}
	store := &memAuthStore{}
	svc := NewService(mockAPI, store, testLogger())

	require.NoError(t, svc.Register(context.Background(), "alice", "password-123456"))
	assert.Len(t, mockAPI.RegisterCalls(), 1)
	assert.Len(t, mockAPI.LoginCalls(), 1)
	require.NotNil(t, store.auth)
}

func TestService_AccessToken_Fresh(t *testing.T) {
	store := &memAuthStore{auth: &storage.AuthData{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	mockAPI := &api.ClientAPIMock{}
	svc := NewService(mockAPI, store, testLogger())

	token, err := svc.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Empty(t, mockAPI.RefreshCalls())
}

func TestService_AccessToken_RefreshesExpired(t *testing.T) {
	store := &memAuthStore{auth: &storage.AuthData{
		Username:     "alice",
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}}
	mockAPI := &api.ClientAPIMock{
		RefreshFunc: func(ctx context.Context, req pkgapi.RefreshRequest) (*pkgapi.TokenResponse, error) {
			assert.Equal(t, "refresh-1", req.RefreshToken)
			return &pkgapi.TokenResponse{AccessToken: "fresh", RefreshToken: "refresh-2", ExpiresIn: 900}, nil
		},
	}
	svc := NewService(mockAPI, store, testLogger())

	token, err := svc.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, "refresh-2", store.auth.RefreshToken)
}

func TestService_AccessToken_NoAuth(t *testing.T) {
	svc := NewService(&api.ClientAPIMock{}, &memAuthStore{}, testLogger())

	_, err := svc.AccessToken(context.Background())
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestService_Refresh_RejectedClearsAuth(t *testing.T) {
	store := &memAuthStore{auth: &storage.AuthData{
		Username:     "alice",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}}
	mockAPI := &api.ClientAPIMock{
		RefreshFunc: func(ctx context.Context, req pkgapi.RefreshRequest) (*pkgapi.TokenResponse, error) {
			return nil, models.ErrUnauthorized
		},
	}
	svc := NewService(mockAPI, store, testLogger())

	err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, store.auth)
}

func TestService_Logout(t *testing.T) {
	store := &memAuthStore{auth: &storage.AuthData{Username: "alice"}}
	svc := NewService(&api.ClientAPIMock{}, store, testLogger())

	require.NoError(t, svc.Logout(context.Background()))
	assert.Nil(t, store.auth)

	// Повторный logout без учётных данных не ошибка
	require.NoError(t, svc.Logout(context.Background()))
}
