package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/iudanet/entsync/internal/models"
)

// Chain — упорядоченная композиция бэкендов от самого быстрого и
// волатильного к самому медленному и долговечному (memory → boltdb →
// remote). Чтение идёт по порядку до первого попадания; найденное в
// глубоком слое записывается обратно в предыдущие. Запись веером уходит
// во все слои; отказ части слоёв даёт best-effort успех с PartialError.
type Chain struct {
	logger   *slog.Logger
	backends []Backend
}

// NewChain создает цепочку из упорядоченного списка бэкендов.
func NewChain(logger *slog.Logger, backends ...Backend) (*Chain, error) {
	if len(backends) == 0 {
		return nil, ErrEmptyChain
	}
	return &Chain{logger: logger, backends: backends}, nil
}

// Backends возвращает имена слоёв в порядке обхода.
func (c *Chain) Backends() []string {
	names := make([]string, 0, len(c.backends))
	for _, b := range c.backends {
		names = append(names, b.Name())
	}
	return names
}

// Get читает сущность по идентификатору, останавливаясь на первом
// попадании. Попадание в глубоком слое записывается обратно в предыдущие
// слои. Ошибки слоёв на пути чтения понижаются до диагностики в логе,
// пока хоть один слой дал результат; полный промах с ошибками
// возвращает агрегированную ошибку.
func (c *Chain) Get(ctx context.Context, id models.Identifier, q *models.Query) (models.Entity, error) {
	var errs error
	var failed []string

	for i, b := range c.backends {
		e, err := b.Get(ctx, id, q)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrNotSupported) {
				continue
			}
			c.logger.Warn("backend get failed, falling through",
				"backend", b.Name(), "id", id.Key(), "error", err)
			failed = append(failed, b.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}

		if len(failed) > 0 {
			// Часть слоёв недоступна, но данные есть: успех со stale-данными
			c.logger.Warn("serving possibly stale entity",
				"backend", b.Name(), "id", id.Key(), "failed", failed)
		}
		c.writeBack(ctx, c.backends[:i], []models.Entity{e})
		return e, nil
	}

	if errs != nil {
		return nil, &models.PartialError{Err: errs, Failed: failed}
	}
	return nil, models.ErrNotFound
}

// Search выполняет поиск, останавливаясь на первом слое, давшем
// непустой результат; результат записывается обратно в предыдущие слои.
func (c *Chain) Search(ctx context.Context, q *models.Query) ([]models.Entity, error) {
	var errs error
	var failed []string

	for i, b := range c.backends {
		found, err := b.Search(ctx, q)
		if err != nil {
			if errors.Is(err, models.ErrNotSupported) {
				continue
			}
			c.logger.Warn("backend search failed, falling through",
				"backend", b.Name(), "error", err)
			failed = append(failed, b.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		if len(found) == 0 {
			continue
		}

		c.writeBack(ctx, c.backends[:i], found)
		return found, nil
	}

	if errs != nil {
		return nil, &models.PartialError{Err: errs, Failed: failed}
	}
	return nil, nil
}

// Set веером записывает сущности во все слои. Слои, не принимающие
// прямую запись (ErrNotSupported), пропускаются. Частичный отказ
// возвращает записанные сущности вместе с PartialError; полный отказ —
// только ошибку.
func (c *Chain) Set(ctx context.Context, entities []models.Entity) ([]models.Entity, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	var errs error
	var succeeded, failed []string

	result := entities
	for _, b := range c.backends {
		stored, err := b.Set(ctx, entities)
		if err != nil {
			if errors.Is(err, models.ErrNotSupported) {
				continue
			}
			failed = append(failed, b.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		succeeded = append(succeeded, b.Name())
		if len(stored) == len(entities) {
			result = stored
		}
	}

	if errs == nil {
		return result, nil
	}
	if len(succeeded) == 0 {
		return nil, fmt.Errorf("all backends failed: %w", errs)
	}
	return result, &models.PartialError{Err: errs, Succeeded: succeeded, Failed: failed}
}

// RemoveAll вычисляет запрос над каждым слоем и удаляет совпадения
// отовсюду. Возвращает максимальное число удалённых записей среди слоёв.
func (c *Chain) RemoveAll(ctx context.Context, q *models.Query) (int, error) {
	var errs error
	var succeeded, failed []string

	removed := 0
	for _, b := range c.backends {
		n, err := b.RemoveAll(ctx, q)
		if err != nil {
			if errors.Is(err, models.ErrNotSupported) {
				continue
			}
			failed = append(failed, b.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		succeeded = append(succeeded, b.Name())
		if n > removed {
			removed = n
		}
	}

	if errs == nil {
		return removed, nil
	}
	if len(succeeded) == 0 {
		return 0, fmt.Errorf("all backends failed: %w", errs)
	}
	return removed, &models.PartialError{Err: errs, Succeeded: succeeded, Failed: failed}
}

// Close закрывает все слои цепочки.
func (c *Chain) Close() error {
	var errs error
	for _, b := range c.backends {
		if err := b.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	return errs
}

// writeBack записывает результат чтения в более быстрые слои.
// Отказ write-back не влияет на результат чтения.
func (c *Chain) writeBack(ctx context.Context, earlier []Backend, entities []models.Entity) {
	for _, b := range earlier {
		if _, err := b.Set(ctx, entities); err != nil && !errors.Is(err, models.ErrNotSupported) {
			c.logger.Warn("write-back failed", "backend", b.Name(), "error", err)
		}
	}
}
