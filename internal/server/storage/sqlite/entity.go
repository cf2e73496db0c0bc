package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/entsync/internal/models"
	"github.com/iudanet/entsync/internal/server/storage"
)

const entityColumns = `remote_id, user_id, type, data, version, deleted, created_at, updated_at`

// GetByRemoteIDs retrieves records of a type by their remote IDs.
// Missing and deleted records are silently omitted from the result.
func (s *Storage) GetByRemoteIDs(ctx context.Context, userID, entityType string, remoteIDs []string) ([]*models.EntityRecord, error) {
	if len(remoteIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(remoteIDs)), ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM entities
		WHERE user_id = ? AND type = ? AND deleted = 0 AND remote_id IN (%s)
		ORDER BY version ASC
	`, entityColumns, placeholders)

	args := make([]any, 0, len(remoteIDs)+2)
	args = append(args, userID, entityType)
	for _, id := range remoteIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanEntityRows(rows)
}

// ListSince retrieves records of a type written after the given version,
// tombstones included, ordered by version
func (s *Storage) ListSince(ctx context.Context, userID, entityType string, since uint64, limit int) ([]*models.EntityRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM entities
		WHERE user_id = ? AND type = ? AND version > ?
		ORDER BY version ASC
	`, entityColumns)

	args := []any{userID, entityType, since}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities since version: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanEntityRows(rows)
}

// CurrentVersion returns the latest version assigned for the user
func (s *Storage) CurrentVersion(ctx context.Context, userID string) (uint64, error) {
	var version uint64
	query := `SELECT COALESCE(MAX(version), 0) FROM entities WHERE user_id = ?`

	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	return version, nil
}

// CreateEntity inserts a new record and assigns it the next version
func (s *Storage) CreateEntity(ctx context.Context, rec *models.EntityRecord) (*models.EntityRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	version, err := nextVersion(ctx, tx, rec.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	query := `
		INSERT INTO entities (remote_id, user_id, type, data, version, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		rec.RemoteID,
		rec.UserID,
		rec.Type,
		rec.Data,
		version,
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	saved := *rec
	saved.Version = version
	saved.Deleted = false
	saved.CreatedAt = now
	saved.UpdatedAt = now
	return &saved, nil
}

// UpdateEntity replaces payload of an existing record
func (s *Storage) UpdateEntity(ctx context.Context, userID, entityType, remoteID string, baseVersion uint64, data []byte) (*models.EntityRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, err := getForMutation(ctx, tx, userID, entityType, remoteID, baseVersion)
	if err != nil {
		return nil, err
	}

	version, err := nextVersion(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	query := `
		UPDATE entities
		SET data = ?, version = ?, updated_at = ?
		WHERE remote_id = ?
	`

	if _, err := tx.ExecContext(ctx, query, data, version, now.Unix(), remoteID); err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	existing.Data = data
	existing.Version = version
	existing.UpdatedAt = now
	return existing, nil
}

// DeleteEntity marks a record as deleted (soft delete) with a new version
func (s *Storage) DeleteEntity(ctx context.Context, userID, entityType, remoteID string, baseVersion uint64) (*models.EntityRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, err := getForMutation(ctx, tx, userID, entityType, remoteID, baseVersion)
	if err != nil {
		return nil, err
	}

	version, err := nextVersion(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	query := `
		UPDATE entities
		SET deleted = 1, data = NULL, version = ?, updated_at = ?
		WHERE remote_id = ?
	`

	if _, err := tx.ExecContext(ctx, query, version, now.Unix(), remoteID); err != nil {
		return nil, fmt.Errorf("failed to delete entity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	existing.Data = nil
	existing.Deleted = true
	existing.Version = version
	existing.UpdatedAt = now
	return existing, nil
}

// nextVersion выделяет следующее значение per-user счётчика версий.
// Работает внутри транзакции мутации, поэтому выдача монотонна.
func nextVersion(ctx context.Context, tx *sql.Tx, userID string) (uint64, error) {
	var current uint64
	query := `SELECT COALESCE(MAX(version), 0) FROM entities WHERE user_id = ?`

	if err := tx.QueryRowContext(ctx, query, userID).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to allocate version: %w", err)
	}

	return current + 1, nil
}

// getForMutation reads a live record and checks the optimistic version
func getForMutation(ctx context.Context, tx *sql.Tx, userID, entityType, remoteID string, baseVersion uint64) (*models.EntityRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM entities
		WHERE user_id = ? AND type = ? AND remote_id = ?
	`, entityColumns)

	rec, err := scanEntityRow(tx.QueryRowContext(ctx, query, userID, entityType, remoteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	if rec.Deleted {
		return nil, storage.ErrEntityNotFound
	}

	// baseVersion == 0 — клиент не следит за версией, last write wins
	if baseVersion != 0 && rec.Version != baseVersion {
		return nil, fmt.Errorf("%w: base %d, stored %d", storage.ErrVersionConflict, baseVersion, rec.Version)
	}

	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntityRow(row rowScanner) (*models.EntityRecord, error) {
	rec := &models.EntityRecord{}
	var data sql.NullString
	var deleted int
	var createdAt, updatedAt int64

	err := row.Scan(
		&rec.RemoteID,
		&rec.UserID,
		&rec.Type,
		&data,
		&rec.Version,
		&deleted,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if data.Valid {
		rec.Data = []byte(data.String)
	}
	rec.Deleted = deleted != 0
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)

	return rec, nil
}

func scanEntityRows(rows *sql.Rows) ([]*models.EntityRecord, error) {
	var records []*models.EntityRecord

	for rows.Next() {
		rec, err := scanEntityRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
