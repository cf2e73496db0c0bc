// Package boltdb реализует durable-слой цепочки хранилищ поверх BoltDB,
// а также хранение токенов аутентификации. Файл БД делят durable-бэкенды
// всех типов сущностей и очередь запросов.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketAuth = []byte("auth")

	// bucketEntityPrefix и bucketRemoteIdxPrefix образуют имена бакетов
	// per-type: "entities:movie", "remote_idx:movie"
	bucketEntityPrefix    = "entities:"
	bucketRemoteIdxPrefix = "remote_idx:"
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	// Инициализируем общие buckets
	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying bolt database. Используется очередью запросов,
// разделяющей файл с durable-бэкендами.
func (s *Storage) DB() *bbolt.DB {
	return s.db
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return nil
	})
}
