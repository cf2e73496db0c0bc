package storage

import (
	"context"

	"github.com/iudanet/entsync/internal/models"
)

//go:generate moq -out backend_mock.go . Backend

// Backend — единый контракт слоя хранения в цепочке. Реализации:
// memory (кэш), boltdb (durable), remote (HTTP API сервера).
// Отсутствие какого-то слоя для типа сущности — выбор конфигурации,
// а не ошибка: цепочка просто короче.
type Backend interface {
	// Name returns the backend name used in logs and partial-failure
	// diagnostics ("memory", "boltdb", "remote")
	Name() string

	// Get retrieves a single entity by identifier.
	// Returns models.ErrNotFound if the backend does not hold it.
	Get(ctx context.Context, id models.Identifier, q *models.Query) (models.Entity, error)

	// Set stores the entities and returns them as stored.
	// Returns models.ErrNotSupported if the backend only accepts writes
	// through the request queue.
	Set(ctx context.Context, entities []models.Entity) ([]models.Entity, error)

	// Search returns entities matching the query.
	Search(ctx context.Context, q *models.Query) ([]models.Entity, error)

	// RemoveAll removes entities matching the query and returns the count.
	RemoveAll(ctx context.Context, q *models.Query) (int, error)

	// Close releases backend resources.
	Close() error
}
