package boltdb

import (
	"context"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"

	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/models"
)

// Backend — durable-слой цепочки для одного типа сущностей. Сущности
// хранятся по локальному ключу идентификатора; отдельный бакет
// отображает remote-значения на локальные ключи.
type Backend struct {
	db        *bbolt.DB
	desc      *models.Descriptor
	logger    *slog.Logger
	bucket    []byte
	remoteIdx []byte
}

var _ storage.Backend = (*Backend)(nil)

// NewBackend создает durable-бэкенд для типа сущностей desc поверх
// общего хранилища st.
func NewBackend(st *Storage, desc *models.Descriptor, logger *slog.Logger) *Backend {
	return &Backend{
		db:        st.db,
		desc:      desc,
		logger:    logger,
		bucket:    []byte(bucketEntityPrefix + desc.Type),
		remoteIdx: []byte(bucketRemoteIdxPrefix + desc.Type),
	}
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "boltdb" }

// Get retrieves an entity by identifier, resolving the remote value
// through the index bucket when the local key misses.
func (b *Backend) Get(ctx context.Context, id models.Identifier, q *models.Query) (models.Entity, error) {
	if b.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entity models.Entity

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return models.ErrNotFound
		}

		data := bucket.Get([]byte(id.Key()))
		if data == nil && id.HasRemote() {
			// Пробуем найти по remote-значению
			if idx := tx.Bucket(b.remoteIdx); idx != nil {
				if localKey := idx.Get([]byte(id.Remote)); localKey != nil {
					data = bucket.Get(localKey)
				}
			}
		}
		if data == nil {
			return models.ErrNotFound
		}

		e, err := b.desc.Decode(data)
		if err != nil {
			// Повреждённая запись фатальна только для самой записи:
			// логируем и отвечаем "не найдено", цепочка пойдёт глубже
			b.logger.Error("corrupt durable record, skipping",
				"type", b.desc.Type, "id", id.Key(), "error", err)
			return models.ErrNotFound
		}
		entity = e
		return nil
	})

	if err != nil {
		return nil, err
	}

	if !b.satisfiesExtras(entity, q) {
		return nil, models.ErrNotFound
	}
	return entity, nil
}

// Set stores the entities and maintains the remote index.
func (b *Backend) Set(ctx context.Context, entities []models.Entity) ([]models.Entity, error) {
	if b.db == nil {
		return nil, storage.ErrStorageClosed
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(b.bucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		idx, err := tx.CreateBucketIfNotExists(b.remoteIdx)
		if err != nil {
			return fmt.Errorf("failed to create index bucket: %w", err)
		}

		for _, e := range entities {
			data, err := b.desc.Encode(e)
			if err != nil {
				return fmt.Errorf("failed to encode entity: %w", err)
			}
			id := e.Ident()
			if err := bucket.Put([]byte(id.Key()), data); err != nil {
				return fmt.Errorf("failed to save entity: %w", err)
			}
			if id.HasRemote() {
				if err := idx.Put([]byte(id.Remote), []byte(id.Key())); err != nil {
					return fmt.Errorf("failed to update remote index: %w", err)
				}
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("transaction failed: %w", err)
	}
	return entities, nil
}

// Search выполняет прямую выборку по идентификаторам либо полный обход
// бакета с вычислением предиката. Прямая выборка отвечает только полным
// набором: частичный результат означает промах всего слоя.
func (b *Backend) Search(ctx context.Context, q *models.Query) ([]models.Entity, error) {
	if b.db == nil {
		return nil, storage.ErrStorageClosed
	}

	if q != nil && len(q.IDs) > 0 {
		found := make([]models.Entity, 0, len(q.IDs))
		for _, id := range q.IDs {
			e, err := b.Get(ctx, id, q)
			if err != nil {
				return nil, nil
			}
			found = append(found, e)
		}
		return found, nil
	}

	var found []models.Entity

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			e, err := b.desc.Decode(v)
			if err != nil {
				b.logger.Error("corrupt durable record, skipping",
					"type", b.desc.Type, "key", string(k), "error", err)
				return nil
			}
			if models.Matches(b.desc, e, q) && b.satisfiesExtras(e, q) {
				found = append(found, e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if q != nil {
		models.SortEntities(b.desc, found, q.OrderBy)
		found = models.Paginate(found, q.Limit, q.Offset)
	}
	return found, nil
}

// RemoveAll удаляет все сущности, совпавшие с запросом, и чистит
// remote-индекс. Возвращает количество удалённых записей.
func (b *Backend) RemoveAll(ctx context.Context, q *models.Query) (int, error) {
	if b.db == nil {
		return 0, storage.ErrStorageClosed
	}

	removed := 0

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		idx := tx.Bucket(b.remoteIdx)

		// Сначала собираем ключи, потом удаляем: Delete внутри ForEach
		// не определён для bbolt
		type victim struct {
			key    []byte
			remote string
		}
		var victims []victim

		if q != nil && len(q.IDs) > 0 {
			for _, id := range q.IDs {
				key := []byte(id.Key())
				data := bucket.Get(key)
				if data == nil && id.HasRemote() && idx != nil {
					if localKey := idx.Get([]byte(id.Remote)); localKey != nil {
						key = append([]byte(nil), localKey...)
						data = bucket.Get(key)
					}
				}
				if data != nil {
					victims = append(victims, victim{key: key, remote: id.Remote})
				}
			}
		} else {
			err := bucket.ForEach(func(k, v []byte) error {
				e, err := b.desc.Decode(v)
				if err != nil {
					b.logger.Error("corrupt durable record, skipping",
						"type", b.desc.Type, "key", string(k), "error", err)
					return nil
				}
				if models.Matches(b.desc, e, q) {
					victims = append(victims, victim{
						key:    append([]byte(nil), k...),
						remote: e.Ident().Remote,
					})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		for _, v := range victims {
			if err := bucket.Delete(v.key); err != nil {
				return fmt.Errorf("failed to delete entity: %w", err)
			}
			if v.remote != "" && idx != nil {
				if err := idx.Delete([]byte(v.remote)); err != nil {
					return fmt.Errorf("failed to delete index entry: %w", err)
				}
			}
			removed++
		}
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("transaction failed: %w", err)
	}
	return removed, nil
}

// Close is a no-op: файлом БД владеет Storage.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) satisfiesExtras(e models.Entity, q *models.Query) bool {
	if q == nil {
		return true
	}
	for _, idx := range q.Extras {
		if !b.desc.HasExtra(e, idx) {
			return false
		}
	}
	return true
}
