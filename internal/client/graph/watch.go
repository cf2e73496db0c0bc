package graph

import (
	"context"
	"sync"

	"github.com/iudanet/entsync/internal/client/coordinator"
	"github.com/iudanet/entsync/internal/models"
)

// watchBuffer — ёмкость канала выдачи графов.
const watchBuffer = 4

// Watch — непрерывное разрешение: после начального snapshot граф
// пересобирается и переиздаётся при каждом изменении, затрагивающем
// уже входящую в него сущность.
type Watch struct {
	ch     chan *Graph
	cancel context.CancelFunc
	once   sync.Once
	subs   []*coordinator.Subscription
}

// Graphs возвращает канал переизданных графов. Первым приходит
// начальный snapshot. Канал закрывается при отмене.
func (w *Watch) Graphs() <-chan *Graph {
	return w.ch
}

// Cancel останавливает наблюдение. Уже применённые локальные слияния
// не откатываются.
func (w *Watch) Cancel() {
	w.once.Do(func() {
		for _, s := range w.subs {
			s.Cancel()
		}
		w.cancel()
	})
}

// Watch запускает непрерывное разрешение запроса. Начальный snapshot
// разрешается синхронно и публикуется первым.
func (r *Resolver) Watch(ctx context.Context, req Request) (*Watch, error) {
	initial, err := r.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &Watch{
		ch:     make(chan *Graph, watchBuffer),
		cancel: cancel,
	}

	// Подписываемся на все типы, которых может коснуться граф
	events := make(chan []models.Change, watchBuffer)
	for _, typ := range r.watchTypes(req, initial) {
		coord, ok := r.reg.For(typ)
		if !ok {
			continue
		}
		sub := coord.Subscribe(nil)
		w.subs = append(w.subs, sub)
		go forwardChanges(wctx, sub, events)
	}

	w.ch <- initial
	go r.watchLoop(wctx, w, req, initial, events)
	return w, nil
}

func forwardChanges(ctx context.Context, sub *coordinator.Subscription, events chan<- []models.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-sub.Changes():
			if !ok {
				return
			}
			select {
			case events <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *Resolver) watchLoop(ctx context.Context, w *Watch, req Request, current *Graph, events <-chan []models.Change) {
	defer close(w.ch)

	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-events:
			if !touchesGraph(current, batch) {
				continue
			}

			g, err := r.reResolve(ctx, req)
			if err != nil {
				if _, ok := models.AsPartial(err); !ok {
					r.logger.Warn("graph re-resolution failed", "error", err)
					continue
				}
				// Частичный результат всё равно публикуется
				r.logger.Warn("graph re-resolved partially", "error", err)
			}
			current = g

			select {
			case w.ch <- g:
			default:
				r.logger.Warn("slow graph watcher, dropping update")
			}
		}
	}
}

// reResolve перечитывает корни через их координаторы и повторяет проход:
// изменение могло затронуть и сами корневые сущности.
func (r *Resolver) reResolve(ctx context.Context, req Request) (*Graph, error) {
	roots := make([]models.Entity, 0, len(req.Roots))
	for _, root := range req.Roots {
		typ := root.EntityType()
		coord, ok := r.reg.For(typ)
		if !ok {
			roots = append(roots, root)
			continue
		}
		q := &models.Query{Extras: req.Follow[typ]}
		fresh, err := coord.Get(ctx, root.Ident(), q)
		if err != nil {
			// Корень мог быть удалён или временно недоступен:
			// работаем с последней известной версией
			r.logger.Debug("root refetch failed, using last known entity",
				"type", typ, "id", root.Ident().Key(), "error", err)
			roots = append(roots, root)
			continue
		}
		roots = append(roots, fresh)
	}

	return r.Resolve(ctx, Request{Roots: roots, Follow: req.Follow, MaxDepth: req.MaxDepth})
}

func touchesGraph(g *Graph, batch []models.Change) bool {
	for _, ch := range batch {
		if g.Contains(ch.Entity.Ident()) {
			return true
		}
	}
	return false
}

// watchTypes собирает множество типов, изменения которых могут
// затронуть граф: типы начального snapshot плюс все цели обходимых
// рёбер.
func (r *Resolver) watchTypes(req Request, initial *Graph) []string {
	seen := make(map[string]struct{})
	for _, t := range initial.Types() {
		seen[t] = struct{}{}
	}
	for typ, idxs := range req.Follow {
		coord, ok := r.reg.For(typ)
		if !ok {
			continue
		}
		desc := coord.Descriptor()
		for _, i := range idxs {
			if i >= 0 && i < len(desc.Relations) {
				seen[desc.Relations[i].Target] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	return out
}
