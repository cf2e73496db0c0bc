package storage

import (
	"context"

	"github.com/iudanet/entsync/internal/models"
)

// EntityStorage defines interface for entity record persistence.
// Версии выдаёт хранилище: каждая запись получает следующее значение
// per-user счётчика, по которому клиенты выгружают инкременты.
type EntityStorage interface {
	// GetByRemoteIDs retrieves records of a type by their remote IDs.
	// Missing and deleted records are silently omitted from the result.
	GetByRemoteIDs(ctx context.Context, userID, entityType string, remoteIDs []string) ([]*models.EntityRecord, error)

	// ListSince retrieves records of a type written after the given version,
	// tombstones included, ordered by version. limit <= 0 means no limit.
	ListSince(ctx context.Context, userID, entityType string, since uint64, limit int) ([]*models.EntityRecord, error)

	// CurrentVersion returns the latest version assigned for the user,
	// zero if the user has no records yet.
	CurrentVersion(ctx context.Context, userID string) (uint64, error)

	// CreateEntity inserts a new record under the given remote ID
	// and assigns it the next version.
	CreateEntity(ctx context.Context, rec *models.EntityRecord) (*models.EntityRecord, error)

	// UpdateEntity replaces payload of an existing record.
	// Returns ErrEntityNotFound if the record doesn't exist or is deleted,
	// ErrVersionConflict if baseVersion is nonzero and doesn't match the
	// stored version. baseVersion == 0 skips the check (last write wins).
	UpdateEntity(ctx context.Context, userID, entityType, remoteID string, baseVersion uint64, data []byte) (*models.EntityRecord, error)

	// DeleteEntity marks a record as deleted (soft delete) with a new version.
	// Returns ErrEntityNotFound if the record doesn't exist or is already
	// deleted, ErrVersionConflict if baseVersion doesn't match.
	DeleteEntity(ctx context.Context, userID, entityType, remoteID string, baseVersion uint64) (*models.EntityRecord, error)
}
