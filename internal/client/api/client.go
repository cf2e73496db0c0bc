// Package api реализует HTTP клиент к серверу синхронизации.
// Ошибки сервера приводятся к таксономии движка на этой границе.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/entsync/internal/models"
	"github.com/iudanet/entsync/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет контракт remote-бэкенда: аутентификация плюс
// execute-операции над сущностями. Очередь запросов и remote-слой
// цепочки работают только через этот интерфейс.
type ClientAPI interface {
	// Register регистрирует нового пользователя
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)

	// Login выполняет аутентификацию пользователя
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)

	// Refresh обновляет пару токенов по refresh token
	Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error)

	// GetEntities пакетно выбирает сущности типа по remote-идентификаторам
	GetEntities(ctx context.Context, accessToken string, req api.GetRequest) (*api.GetResponse, error)

	// SearchEntities выгружает сущности типа, изменённые после версии Since
	SearchEntities(ctx context.Context, accessToken string, req api.SearchRequest) (*api.SearchResponse, error)

	// Mutate выполняет одну мутирующую операцию
	Mutate(ctx context.Context, accessToken string, req api.MutateRequest) (*api.MutateResponse, error)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обновляет пару токенов по refresh token
func (c *Client) Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", "", req, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// GetEntities пакетно выбирает сущности по remote-идентификаторам
func (c *Client) GetEntities(ctx context.Context, accessToken string, req api.GetRequest) (*api.GetResponse, error) {
	var resp api.GetResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/entities/get", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("get entities request failed: %w", err)
	}
	return &resp, nil
}

// SearchEntities выгружает сущности типа, изменённые после версии Since
func (c *Client) SearchEntities(ctx context.Context, accessToken string, req api.SearchRequest) (*api.SearchResponse, error) {
	var resp api.SearchResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/entities/search", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("search entities request failed: %w", err)
	}
	return &resp, nil
}

// Mutate выполняет одну мутирующую операцию
func (c *Client) Mutate(ctx context.Context, accessToken string, req api.MutateRequest) (*api.MutateResponse, error) {
	var resp api.MutateResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/entities/mutate", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("mutate request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Сетевые ошибки и таймауты — транзиентный класс
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// mapError приводит HTTP ошибку сервера к таксономии движка
func (c *Client) mapError(status int, body []byte) error {
	message := string(body)
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Message
		if message == "" {
			message = errResp.Error
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", models.ErrUnauthorized, message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrNotFound, message)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", models.ErrConflictingWrite, message)
	case status >= 500 || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: server error (%d): %s", models.ErrBackendUnavailable, status, message)
	default:
		return fmt.Errorf("server error (%d): %s", status, message)
	}
}
