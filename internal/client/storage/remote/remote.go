// Package remote реализует read-слой цепочки хранения поверх HTTP API
// сервера синхронизации. Мутации через этот бэкенд не проходят: Set и
// RemoveAll возвращают ErrNotSupported, запись едет через очередь запросов.
package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/entsync/internal/client/api"
	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/models"
	pkgapi "github.com/iudanet/entsync/pkg/api"
)

// TokenSource выдаёт действующий access token для вызовов API.
// Реализуется сервисом авторизации клиента.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Backend — самый глубокий слой цепочки для одного типа сущностей.
type Backend struct {
	client api.ClientAPI
	tokens TokenSource
	desc   *models.Descriptor
	logger *slog.Logger
}

var _ storage.Backend = (*Backend)(nil)

// NewBackend создает remote-бэкенд для типа desc.Type.
func NewBackend(client api.ClientAPI, tokens TokenSource, desc *models.Descriptor, logger *slog.Logger) *Backend {
	return &Backend{
		client: client,
		tokens: tokens,
		desc:   desc,
		logger: logger,
	}
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "remote" }

// Get загружает сущность с сервера по remote-идентификатору. Сущность
// без remote-значения серверу неизвестна в принципе: это не ошибка
// транспорта, а честный промах.
func (b *Backend) Get(ctx context.Context, id models.Identifier, q *models.Query) (models.Entity, error) {
	if !id.HasRemote() {
		return nil, models.ErrNotFound
	}

	token, err := b.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	resp, err := b.client.GetEntities(ctx, token, pkgapi.GetRequest{
		Type:      b.desc.Type,
		RemoteIDs: []string{id.Remote},
	})
	if err != nil {
		return nil, fmt.Errorf("get entities: %w", err)
	}

	for _, p := range resp.Entities {
		if p.RemoteID != id.Remote || p.Deleted {
			continue
		}
		e, err := b.decode(p, id.MarkSynced())
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, models.ErrNotFound
}

// Set не поддерживается: мутации идут только через очередь запросов,
// которая сохраняет порядок и переживает рестарт. Цепочка воспринимает
// ErrNotSupported как конфигурационный выбор слоя, а не как сбой.
func (b *Backend) Set(ctx context.Context, entities []models.Entity) ([]models.Entity, error) {
	return nil, models.ErrNotSupported
}

// Search обслуживает обе формы запроса. Выборка по идентификаторам —
// пакетный GetEntities, всё-или-ничего. Предикатный поиск выгружает
// сущности типа и вычисляет предикат на клиенте: сервер полей не знает.
func (b *Backend) Search(ctx context.Context, q *models.Query) ([]models.Entity, error) {
	token, err := b.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	if q != nil && len(q.IDs) > 0 {
		return b.searchByIDs(ctx, token, q)
	}
	return b.searchScan(ctx, token, q)
}

func (b *Backend) searchByIDs(ctx context.Context, token string, q *models.Query) ([]models.Entity, error) {
	remoteIDs := make([]string, 0, len(q.IDs))
	for _, id := range q.IDs {
		if !id.HasRemote() {
			// Локальная сущность на сервере отсутствовать обязана:
			// полный набор недостижим
			return nil, models.ErrNotFound
		}
		remoteIDs = append(remoteIDs, id.Remote)
	}

	resp, err := b.client.GetEntities(ctx, token, pkgapi.GetRequest{
		Type:      b.desc.Type,
		RemoteIDs: remoteIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("get entities: %w", err)
	}

	byRemote := make(map[string]pkgapi.EntityPayload, len(resp.Entities))
	for _, p := range resp.Entities {
		byRemote[p.RemoteID] = p
	}

	found := make([]models.Entity, 0, len(q.IDs))
	for _, id := range q.IDs {
		p, ok := byRemote[id.Remote]
		if !ok || p.Deleted {
			return nil, models.ErrNotFound
		}
		e, err := b.decode(p, id.MarkSynced())
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	return found, nil
}

func (b *Backend) searchScan(ctx context.Context, token string, q *models.Query) ([]models.Entity, error) {
	resp, err := b.client.SearchEntities(ctx, token, pkgapi.SearchRequest{
		Type: b.desc.Type,
	})
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}

	var found []models.Entity
	for _, p := range resp.Entities {
		if p.Deleted {
			continue
		}
		e, err := b.decode(p, models.FromRemote(p.RemoteID))
		if err != nil {
			// Битая запись в ответе сервера не валит весь поиск
			b.logger.Warn("skipping undecodable entity",
				"type", b.desc.Type,
				"remote_id", p.RemoteID,
				"error", err,
			)
			continue
		}
		if !models.Matches(b.desc, e, q) {
			continue
		}
		found = append(found, e)
	}

	if q != nil {
		models.SortEntities(b.desc, found, q.OrderBy)
		found = models.Paginate(found, q.Limit, q.Offset)
	}
	return found, nil
}

// RemoveAll не поддерживается: удаления распространяются через очередь
// запросов, а очистка локальных слоёв сервер не затрагивает.
func (b *Backend) RemoveAll(ctx context.Context, q *models.Query) (int, error) {
	return 0, models.ErrNotSupported
}

// Close implements storage.Backend.
func (b *Backend) Close() error { return nil }

func (b *Backend) decode(p pkgapi.EntityPayload, id models.Identifier) (models.Entity, error) {
	e, err := b.desc.Decode(p.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s entity: %w", b.desc.Type, err)
	}
	return b.desc.WithIdent(e, id), nil
}
