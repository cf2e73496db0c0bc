package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/entsync/internal/client/api"
	"github.com/iudanet/entsync/internal/models"
	pkgapi "github.com/iudanet/entsync/pkg/api"
)

// Executor исполняет одну операцию против сервера.
type Executor interface {
	Execute(ctx context.Context, op *models.QueuedOperation) (*pkgapi.MutateResponse, error)
}

// TokenSource выдаёт действующий access token для вызовов API.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// APIExecutor — исполнитель поверх HTTP API. Таймаут запроса — свойство
// исполнителя: истечение трактуется планировщиком как временная ошибка.
type APIExecutor struct {
	client  api.ClientAPI
	tokens  TokenSource
	timeout time.Duration
}

// NewAPIExecutor создает исполнителя. timeout <= 0 отключает ограничение.
func NewAPIExecutor(client api.ClientAPI, tokens TokenSource, timeout time.Duration) *APIExecutor {
	return &APIExecutor{client: client, tokens: tokens, timeout: timeout}
}

// Execute переводит операцию в mutate-запрос и отправляет на сервер.
func (e *APIExecutor) Execute(ctx context.Context, op *models.QueuedOperation) (*pkgapi.MutateResponse, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	token, err := e.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	resp, err := e.client.Mutate(ctx, token, pkgapi.MutateRequest{
		Kind:     string(op.Kind),
		Type:     op.EntityType,
		LocalID:  op.ID.Local,
		RemoteID: op.ID.Remote,
		Data:     op.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("mutate %s %s: %w", op.Kind, op.EntityType, err)
	}
	return resp, nil
}
