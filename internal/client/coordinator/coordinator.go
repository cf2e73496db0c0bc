// Package coordinator реализует единственного владельца цепочки хранения
// одного типа сущностей. Все мутации цепочки проходят через координатор:
// он дедуплицирует одинаковые конкурентные чтения, сливает входящие
// сущности по правилам extra-полей, ставит remote-мутации в очередь
// запросов и раздаёт уведомления об изменениях подписчикам.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/clock"
	"github.com/iudanet/entsync/internal/models"
)

// WritePolicy определяет реакцию на терминальный отказ remote-записи,
// уже применённой локально в оптимистичном режиме.
type WritePolicy string

const (
	// WritePolicyMarkOutOfSync оставляет локальные данные, помечая
	// идентификатор как outOfSync
	WritePolicyMarkOutOfSync WritePolicy = "mark_out_of_sync"
	// WritePolicyRollback откатывает оптимистичную запись: локально
	// созданный объект удаляется, подтверждённый — перечитывается
	WritePolicyRollback WritePolicy = "rollback"
)

// WriteContext сопровождает запись и определяет её распространение.
type WriteContext struct {
	// Propagate ставит мутацию в очередь запросов для доставки на сервер.
	// Запись без распространения меняет только локальные слои.
	Propagate bool
}

// Enqueuer принимает операции для асинхронной доставки на сервер.
// Реализуется очередью запросов.
type Enqueuer interface {
	Enqueue(ctx context.Context, op *models.QueuedOperation) (uint64, error)
}

// Coordinator владеет цепочкой хранения одного типа сущностей.
type Coordinator struct {
	desc   *models.Descriptor
	chain  *storage.Chain
	queue  Enqueuer
	logger *slog.Logger
	policy WritePolicy

	// clock помечает пакеты уведомлений: метки из общих часов дают
	// наблюдателям порядок изменений между координаторами разных типов
	clock *clock.Lamport

	// mu сериализует все мутации состояния типа: слияние, запись в
	// цепочку, постановку в очередь. Пока он удержан, вытеснение из
	// кэша незавершённое слияние затронуть не может.
	mu sync.Mutex

	// flight гарантирует не более одного конкурентного одинакового
	// чтения: одинаковые запросы присоединяются к уже выполняющемуся
	flight singleflight.Group

	subMu   sync.Mutex
	subs    map[int]*Subscription
	nextSub int

	closed bool
}

// Option настраивает координатор при создании.
type Option func(*Coordinator)

// WithWritePolicy задаёт политику обработки отказа remote-записи.
func WithWritePolicy(p WritePolicy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithClock задаёт логические часы для меток уведомлений. Координаторы,
// разделяющие одни часы, публикуют взаимно сравнимые метки.
func WithClock(lc *clock.Lamport) Option {
	return func(c *Coordinator) { c.clock = lc }
}

// New создает координатор типа desc.Type поверх готовой цепочки.
// queue может быть nil: тогда записи с Propagate возвращают ошибку.
func New(desc *models.Descriptor, chain *storage.Chain, queue Enqueuer, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		desc:   desc,
		chain:  chain,
		queue:  queue,
		logger: logger.With("entity_type", desc.Type),
		policy: WritePolicyMarkOutOfSync,
		clock:  clock.New(),
		subs:   make(map[int]*Subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type возвращает тег типа сущностей координатора.
func (c *Coordinator) Type() string { return c.desc.Type }

// Descriptor возвращает схему типа. Резолвер графа ходит по рёбрам
// через неё, не зная конкретных полей сущностей.
func (c *Coordinator) Descriptor() *models.Descriptor { return c.desc }

// Get читает одну сущность через цепочку. Конкурентные вызовы с тем же
// идентификатором и запросом выполняют ровно одно чтение цепочки.
func (c *Coordinator) Get(ctx context.Context, id models.Identifier, q *models.Query) (models.Entity, error) {
	key := id.Key() + "|" + q.Key()
	v, err, _ := c.flight.Do(key, func() (any, error) {
		return c.chain.Get(ctx, id, q)
	})
	if err != nil {
		return nil, err
	}
	return v.(models.Entity), nil
}

// GetMulti читает набор сущностей одним обращением к цепочке:
// всё-или-ничего, как у Search по идентификаторам.
func (c *Coordinator) GetMulti(ctx context.Context, ids []models.Identifier, q *models.Query) ([]models.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	manyQ := &models.Query{IDs: ids}
	if q != nil {
		manyQ.Extras = q.Extras
	}
	return c.Search(ctx, manyQ)
}

// Search выполняет запрос через цепочку с дедупликацией по каноничному
// ключу запроса.
func (c *Coordinator) Search(ctx context.Context, q *models.Query) ([]models.Entity, error) {
	v, err, _ := c.flight.Do("q|"+q.Key(), func() (any, error) {
		return c.chain.Search(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Entity), nil
}

// Set принимает записи: каждая входящая сущность сливается с ранее
// сохранённой по правилам extra-полей, при wctx.Propagate мутация
// встаёт в очередь до оптимистичного локального применения.
func (c *Coordinator) Set(ctx context.Context, entities []models.Entity, wctx WriteContext) ([]models.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := make([]models.Entity, 0, len(entities))
	changes := make([]models.Change, 0, len(entities))

	for _, incoming := range entities {
		existing, err := c.lookupExisting(ctx, incoming.Ident())
		if err != nil {
			return nil, err
		}

		m := c.desc.Merge(existing, incoming)

		if wctx.Propagate {
			if err := c.enqueueWrite(ctx, m); err != nil {
				return nil, err
			}
		}

		merged = append(merged, m)
		kind := models.ChangeUpdated
		if existing == nil {
			kind = models.ChangeInserted
		}
		changes = append(changes, models.Change{Entity: m, Kind: kind})
	}

	stored, err := c.chain.Set(ctx, merged)
	if partial, ok := models.AsPartial(err); ok {
		// Часть локальных слоёв не приняла запись: данные доступны,
		// диагностика уходит в лог
		c.logger.Warn("partial chain write", "error", partial)
	} else if err != nil {
		return nil, fmt.Errorf("chain set: %w", err)
	}

	c.notify(changes)
	return stored, nil
}

// Delete удаляет сущность: при wctx.Propagate удаление встаёт в очередь,
// локальные слои чистятся сразу.
func (c *Coordinator) Delete(ctx context.Context, id models.Identifier, wctx WriteContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.lookupExisting(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return models.ErrNotFound
	}

	if wctx.Propagate {
		op := &models.QueuedOperation{
			EnqueuedAt: time.Now(),
			EntityType: c.desc.Type,
			Kind:       models.OpDelete,
			ID:         id,
		}
		if _, err := c.enqueue(ctx, op); err != nil {
			return err
		}
	}

	if _, err := c.chain.RemoveAll(ctx, models.ByIDs(id)); err != nil {
		return fmt.Errorf("chain remove: %w", err)
	}

	c.notify([]models.Change{{Entity: existing, Kind: models.ChangeRemoved}})
	return nil
}

// RemoveAll вычисляет запрос против всей цепочки и удаляет совпадения
// из каждого слоя. Сервер не затрагивается: это операция локальной
// очистки (logout, сброс кэша).
func (c *Coordinator) RemoveAll(ctx context.Context, q *models.Query) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	victims, err := c.chain.Search(ctx, q)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		if _, ok := models.AsPartial(err); !ok {
			return 0, fmt.Errorf("chain search: %w", err)
		}
	}

	n, err := c.chain.RemoveAll(ctx, q)
	if err != nil {
		return n, fmt.Errorf("chain remove: %w", err)
	}

	changes := make([]models.Change, 0, len(victims))
	for _, e := range victims {
		changes = append(changes, models.Change{Entity: e, Kind: models.ChangeRemoved})
	}
	c.notify(changes)
	return n, nil
}

// ConfirmRemote переносит назначенное сервером remote-значение в
// сохранённый идентификатор: pending → synced. Вызывается обработчиком
// очереди при подтверждении create-операции.
func (c *Coordinator) ConfirmRemote(ctx context.Context, id models.Identifier, remote string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.lookupExisting(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return models.ErrNotFound
	}

	confirmed, err := existing.Ident().WithRemote(remote)
	if err != nil {
		return fmt.Errorf("confirm remote value: %w", err)
	}

	updated := c.desc.WithIdent(existing, confirmed)
	if err := c.setLocal(ctx, updated); err != nil {
		return fmt.Errorf("chain set: %w", err)
	}

	c.notify([]models.Change{{Entity: updated, Kind: models.ChangeUpdated}})
	return nil
}

// MarkSynced помечает сущность подтверждённой после успешной
// update-операции.
func (c *Coordinator) MarkSynced(ctx context.Context, id models.Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.lookupExisting(ctx, id)
	if err != nil || existing == nil {
		return err
	}

	updated := c.desc.WithIdent(existing, existing.Ident().MarkSynced())
	if err := c.setLocal(ctx, updated); err != nil {
		return fmt.Errorf("chain set: %w", err)
	}
	return nil
}

// HandleWriteFailure применяет политику координатора к терминально
// провалившейся remote-записи. Вызывается обработчиком очереди.
func (c *Coordinator) HandleWriteFailure(ctx context.Context, id models.Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.lookupExisting(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	switch c.policy {
	case WritePolicyRollback:
		return c.rollback(ctx, existing)
	default:
		updated := c.desc.WithIdent(existing, existing.Ident().MarkOutOfSync())
		if err := c.setLocal(ctx, updated); err != nil {
			return fmt.Errorf("chain set: %w", err)
		}
		c.logger.Warn("entity marked out of sync", "local_id", id.Local)
		c.notify([]models.Change{{Entity: updated, Kind: models.ChangeUpdated}})
		return nil
	}
}

// rollback откатывает оптимистичную запись. Локально созданный объект
// серверу неизвестен и просто удаляется; подтверждённый объект
// перечитывается из remote-слоя при следующем чтении.
func (c *Coordinator) rollback(ctx context.Context, e models.Entity) error {
	id := e.Ident()
	if _, err := c.chain.RemoveAll(ctx, models.ByIDs(id)); err != nil {
		return fmt.Errorf("rollback remove: %w", err)
	}
	c.logger.Warn("optimistic write rolled back", "local_id", id.Local)
	c.notify([]models.Change{{Entity: e, Kind: models.ChangeRemoved}})
	return nil
}

// Close отменяет все подписки и закрывает цепочку.
func (c *Coordinator) Close() error {
	c.subMu.Lock()
	if c.closed {
		c.subMu.Unlock()
		return nil
	}
	c.closed = true
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subMu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
	return c.chain.Close()
}

// lookupExisting читает текущее состояние сущности для слияния.
// Промах любого рода означает отсутствие предыдущего состояния.
func (c *Coordinator) lookupExisting(ctx context.Context, id models.Identifier) (models.Entity, error) {
	e, err := c.chain.Get(ctx, id, nil)
	if err != nil {
		if _, ok := models.AsPartial(err); ok || errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup existing: %w", err)
	}
	return e, nil
}

// setLocal записывает сущность в цепочку, терпя частичный отказ слоёв:
// данные доступны хотя бы в одном слое, остальное — диагностика.
func (c *Coordinator) setLocal(ctx context.Context, e models.Entity) error {
	_, err := c.chain.Set(ctx, []models.Entity{e})
	if partial, ok := models.AsPartial(err); ok {
		c.logger.Warn("partial chain write", "local_id", e.Ident().Local, "error", partial)
		return nil
	}
	return err
}

func (c *Coordinator) enqueueWrite(ctx context.Context, e models.Entity) error {
	id := e.Ident()
	kind := models.OpUpdate
	if !id.HasRemote() {
		kind = models.OpCreate
	}

	payload, err := c.desc.Encode(e)
	if err != nil {
		return fmt.Errorf("encode for queue: %w", err)
	}

	op := &models.QueuedOperation{
		EnqueuedAt: time.Now(),
		EntityType: c.desc.Type,
		Kind:       kind,
		Payload:    payload,
		ID:         id,
	}
	_, err = c.enqueue(ctx, op)
	return err
}

func (c *Coordinator) enqueue(ctx context.Context, op *models.QueuedOperation) (uint64, error) {
	if c.queue == nil {
		return 0, fmt.Errorf("%w: coordinator has no request queue", models.ErrNotSupported)
	}
	seq, err := c.queue.Enqueue(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", op.Kind, err)
	}
	return seq, nil
}
