// Package auth управляет учётными данными клиента: регистрация, вход,
// хранение и обновление токенов. Сервис — источник access token для
// remote-слоя цепочки и обработчика re-authentication в очереди запросов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/entsync/internal/client/api"
	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/models"
	"github.com/iudanet/entsync/internal/validation"
	pkgapi "github.com/iudanet/entsync/pkg/api"
)

//go:generate moq -out service_mock.go . Service

// Service определяет операции над учётными данными клиента.
type Service interface {
	// Register регистрирует нового пользователя и сразу выполняет вход
	Register(ctx context.Context, username, password string) error

	// Login выполняет аутентификацию и сохраняет токены в хранилище
	Login(ctx context.Context, username, password string) error

	// Refresh обновляет access token по сохранённому refresh token
	Refresh(ctx context.Context) error

	// AccessToken возвращает действующий access token, при истечении
	// срока автоматически выполняя Refresh. ErrUnauthorized — если
	// учётных данных нет или refresh token отвергнут сервером.
	AccessToken(ctx context.Context) (string, error)

	// IsAuthenticated проверяет наличие действующих учётных данных
	IsAuthenticated(ctx context.Context) (bool, error)

	// Logout удаляет локальные учётные данные
	Logout(ctx context.Context) error
}

// refreshSkew — запас до истечения токена, при котором он уже считается
// протухшим: лучше обновить заранее, чем получить 401 в полёте.
const refreshSkew = 30 * time.Second

// AuthService реализует Service поверх HTTP API и bolt-хранилища токенов.
type AuthService struct {
	apiClient api.ClientAPI
	store     storage.AuthStorage
	logger    *slog.Logger

	now func() time.Time
}

var _ Service = (*AuthService)(nil)

// NewService создает сервис авторизации.
func NewService(apiClient api.ClientAPI, store storage.AuthStorage, logger *slog.Logger) *AuthService {
	return &AuthService{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Register регистрирует пользователя и сразу выполняет вход, чтобы
// клиент получил токены одной операцией.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	s.logger.Info("user registered", "username", username, "user_id", resp.UserID)

	return s.Login(ctx, username, password)
}

// Login выполняет аутентификацию и сохраняет токены.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.saveTokens(ctx, username, resp); err != nil {
		return err
	}
	s.logger.Info("user logged in", "username", username)
	return nil
}

// Refresh обновляет пару токенов по сохранённому refresh token.
// Отвергнутый сервером refresh token означает конец сессии: локальные
// учётные данные удаляются, чтобы клиент не долбил сервер впустую.
func (s *AuthService) Refresh(ctx context.Context) error {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return models.ErrUnauthorized
		}
		return fmt.Errorf("load auth data: %w", err)
	}

	resp, err := s.apiClient.Refresh(ctx, pkgapi.RefreshRequest{
		RefreshToken: auth.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			s.logger.Warn("refresh token rejected, clearing credentials", "username", auth.Username)
			if delErr := s.store.DeleteAuth(ctx); delErr != nil {
				s.logger.Error("failed to delete stale auth data", "error", delErr)
			}
			return models.ErrUnauthorized
		}
		return fmt.Errorf("token refresh failed: %w", err)
	}

	if err := s.saveTokens(ctx, auth.Username, resp); err != nil {
		return err
	}
	s.logger.Debug("tokens refreshed", "username", auth.Username)
	return nil
}

// AccessToken возвращает действующий access token, обновляя его при
// необходимости.
func (s *AuthService) AccessToken(ctx context.Context) (string, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return "", models.ErrUnauthorized
		}
		return "", fmt.Errorf("load auth data: %w", err)
	}

	if s.now().Before(auth.ExpiresAt.Add(-refreshSkew)) {
		return auth.AccessToken, nil
	}

	if err := s.Refresh(ctx); err != nil {
		return "", err
	}
	auth, err = s.store.GetAuth(ctx)
	if err != nil {
		return "", fmt.Errorf("load auth data after refresh: %w", err)
	}
	return auth.AccessToken, nil
}

// IsAuthenticated проверяет, что учётные данные существуют и не истекли.
func (s *AuthService) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.store.IsAuthenticated(ctx)
}

// Logout удаляет локальные учётные данные.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil
		}
		return fmt.Errorf("delete auth data: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

func (s *AuthService) saveTokens(ctx context.Context, username string, resp *pkgapi.TokenResponse) error {
	auth := &storage.AuthData{
		Username:     username,
		UserID:       resp.UserID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return fmt.Errorf("save auth data: %w", err)
	}
	return nil
}
