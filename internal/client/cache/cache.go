// Package cache реализует ограниченный по ёмкости LRU-кэш сущностей —
// самый быстрый слой цепочки хранилищ.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iudanet/entsync/internal/models"
)

// Cache — кэш с вытеснением наименее недавно использованных записей.
// Ёмкость фиксируется при создании и не меняется за время жизни процесса.
// Кэшем владеет ровно один координатор; все мутации сериализованы его
// мьютексом, поэтому синхронное вытеснение никогда не затрагивает запись,
// участвующую в незавершённом мерже.
type Cache struct {
	lru      *lru.Cache[string, models.Entity]
	capacity int
}

// New создает кэш заданной ёмкости.
func New(capacity int) (*Cache, error) {
	l, err := lru.New[string, models.Entity](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &Cache{lru: l, capacity: capacity}, nil
}

// Get возвращает сущность по ключу идентификатора и обновляет её recency.
func (c *Cache) Get(key string) (models.Entity, bool) {
	return c.lru.Get(key)
}

// Set сохраняет сущность; при превышении ёмкости синхронно вытесняется
// наименее недавно использованная запись.
func (c *Cache) Set(key string, e models.Entity) {
	c.lru.Add(key, e)
}

// Remove инвалидирует запись по ключу.
func (c *Cache) Remove(key string) bool {
	return c.lru.Remove(key)
}

// Keys возвращает ключи от наименее к наиболее недавно использованному.
func (c *Cache) Keys() []string {
	return c.lru.Keys()
}

// Values возвращает закэшированные сущности от наименее к наиболее
// недавно использованной.
func (c *Cache) Values() []models.Entity {
	return c.lru.Values()
}

// Len возвращает текущее количество записей.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Capacity возвращает ёмкость, заданную при создании.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Purge очищает кэш целиком. Используется в logout/clear сценариях.
func (c *Cache) Purge() {
	c.lru.Purge()
}
