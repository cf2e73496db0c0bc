// Package memory реализует самый быстрый слой цепочки — in-memory бэкенд
// поверх LRU-кэша с вытеснением.
package memory

import (
	"context"
	"sync"

	"github.com/iudanet/entsync/internal/client/cache"
	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/models"
)

// Backend — кэширующий слой для одного типа сущностей.
type Backend struct {
	cache *cache.Cache
	desc  *models.Descriptor

	// remoteIdx отображает remote-значение идентификатора на локальный
	// ключ кэша: сущность, пришедшая с сервера, должна находиться и по
	// идентификатору с другим local-значением, но тем же remote
	mu        sync.Mutex
	remoteIdx map[string]string
}

var _ storage.Backend = (*Backend)(nil)

// New создает memory-бэкенд с кэшем заданной ёмкости.
func New(desc *models.Descriptor, capacity int) (*Backend, error) {
	c, err := cache.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Backend{
		cache:     c,
		desc:      desc,
		remoteIdx: make(map[string]string),
	}, nil
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "memory" }

// Get возвращает закэшированную сущность. Сущность без запрошенных
// extra-полей не считается попаданием: запрос обязан провалиться глубже.
func (b *Backend) Get(ctx context.Context, id models.Identifier, q *models.Query) (models.Entity, error) {
	e, ok := b.lookup(id)
	if !ok {
		return nil, models.ErrNotFound
	}
	if !b.satisfiesExtras(e, q) {
		return nil, models.ErrNotFound
	}
	return e, nil
}

// Set сохраняет сущности в кэш.
func (b *Backend) Set(ctx context.Context, entities []models.Entity) ([]models.Entity, error) {
	for _, e := range entities {
		id := e.Ident()
		b.cache.Set(id.Key(), e)
		if id.HasRemote() {
			b.mu.Lock()
			b.remoteIdx[id.Remote] = id.Key()
			b.mu.Unlock()
		}
	}
	return entities, nil
}

// Search обслуживает только прямые выборки по идентификаторам, и только
// когда кэш содержит все запрошенные сущности. Поиск по предикату кэш
// обслуживать не может: он не знает, полон ли его набор данных.
func (b *Backend) Search(ctx context.Context, q *models.Query) ([]models.Entity, error) {
	if q == nil || len(q.IDs) == 0 {
		return nil, models.ErrNotSupported
	}

	found := make([]models.Entity, 0, len(q.IDs))
	for _, id := range q.IDs {
		e, ok := b.lookup(id)
		if !ok || !b.satisfiesExtras(e, q) {
			// Неполный набор: отдаём пустой результат, чтобы цепочка
			// спустилась к durable/remote слою
			return nil, nil
		}
		found = append(found, e)
	}
	return found, nil
}

// RemoveAll удаляет из кэша сущности, совпавшие с запросом.
func (b *Backend) RemoveAll(ctx context.Context, q *models.Query) (int, error) {
	removed := 0

	if q != nil && len(q.IDs) > 0 {
		for _, id := range q.IDs {
			if e, ok := b.lookup(id); ok {
				b.remove(e.Ident())
				removed++
			}
		}
		return removed, nil
	}

	for _, e := range b.cache.Values() {
		if models.Matches(b.desc, e, q) {
			b.remove(e.Ident())
			removed++
		}
	}
	return removed, nil
}

// Close очищает кэш.
func (b *Backend) Close() error {
	b.cache.Purge()
	b.mu.Lock()
	b.remoteIdx = make(map[string]string)
	b.mu.Unlock()
	return nil
}

func (b *Backend) lookup(id models.Identifier) (models.Entity, bool) {
	if e, ok := b.cache.Get(id.Key()); ok {
		return e, true
	}
	if !id.HasRemote() {
		return nil, false
	}

	b.mu.Lock()
	localKey, ok := b.remoteIdx[id.Remote]
	b.mu.Unlock()
	if !ok {
		return nil, false
	}

	e, ok := b.cache.Get(localKey)
	if !ok {
		// Запись вытеснена из кэша — индекс устарел
		b.mu.Lock()
		delete(b.remoteIdx, id.Remote)
		b.mu.Unlock()
		return nil, false
	}
	return e, true
}

func (b *Backend) remove(id models.Identifier) {
	b.cache.Remove(id.Key())
	if id.HasRemote() {
		b.mu.Lock()
		delete(b.remoteIdx, id.Remote)
		b.mu.Unlock()
	}
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
