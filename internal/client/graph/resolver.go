package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/entsync/internal/client/coordinator"
	"github.com/iudanet/entsync/internal/models"
)

// Request описывает один проход разрешения: корневые сущности, рёбра
// для обхода и ограничение глубины.
type Request struct {
	// Roots — стартовые сущности; их тип определяет начальные рёбра
	Roots []models.Entity
	// Follow — индексы рёбер для обхода по типу сущности. Тип,
	// отсутствующий в карте, становится листом.
	Follow map[string][]int
	// MaxDepth ограничивает глубину обхода от корней; <= 0 — без предела
	MaxDepth int
}

// Resolver обходит граф связей через координаторы типов.
type Resolver struct {
	reg    *coordinator.Registry
	logger *slog.Logger
}

// New создает резолвер над реестром координаторов.
func New(reg *coordinator.Registry, logger *slog.Logger) *Resolver {
	return &Resolver{reg: reg, logger: logger}
}

// pendingFetch — одно запланированное чтение следующего уровня.
type pendingFetch struct {
	id       models.Identifier
	required bool
}

// Resolve выполняет одноразовый snapshot-проход: обход в ширину,
// пакетная загрузка в пределах типа, параллельная между типами.
// Отказ обязательного ребра даёт PartialError по завершении обхода;
// отказ необязательного — отсутствующее ребро.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Graph, error) {
	roots := make([]models.Identifier, 0, len(req.Roots))
	for _, e := range req.Roots {
		roots = append(roots, e.Ident())
	}
	g := newGraph(roots)

	visited := make(map[string]struct{})
	var failed []string
	var failErrs []error

	// Корни уже загружены вызывающим
	frontier := make(map[string][]pendingFetch)
	for _, e := range req.Roots {
		typ := e.EntityType()
		visited[e.Ident().Key()] = struct{}{}
		g.add(typ, e)
	}
	for _, e := range req.Roots {
		r.collectEdges(e, req.Follow, visited, frontier)
	}

	for depth := 1; len(frontier) > 0; depth++ {
		if req.MaxDepth > 0 && depth > req.MaxDepth {
			break
		}

		var mu sync.Mutex
		next := make(map[string][]pendingFetch)

		// Параллельно по типам; отказ одной ветки не прерывает другие
		eg, egCtx := errgroup.WithContext(ctx)
		for typ, fetches := range frontier {
			eg.Go(func() error {
				entities, typFailed, errs := r.fetchLevel(egCtx, typ, fetches, req.Follow[typ])

				mu.Lock()
				defer mu.Unlock()
				for _, e := range entities {
					g.add(typ, e)
					r.collectEdges(e, req.Follow, visited, next)
				}
				failed = append(failed, typFailed...)
				failErrs = append(failErrs, errs...)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return g, err
		}
		frontier = next
	}

	if len(failed) > 0 {
		return g, &models.PartialError{Err: multierr.Combine(failErrs...), Failed: failed}
	}
	return g, nil
}

// fetchLevel загружает один уровень одного типа: сперва пакетно, при
// отказе пакета — поштучно, чтобы отличить обязательные потери от
// необязательных.
func (r *Resolver) fetchLevel(ctx context.Context, typ string, fetches []pendingFetch, extras []int) ([]models.Entity, []string, []error) {
	coord, ok := r.reg.For(typ)
	if !ok {
		return nil, []string{typ}, []error{fmt.Errorf("no coordinator for type %q", typ)}
	}

	q := &models.Query{Extras: extras}
	ids := make([]models.Identifier, len(fetches))
	for i, f := range fetches {
		ids[i] = f.id
	}

	entities, err := coord.GetMulti(ctx, ids, q)
	if err == nil && len(entities) == len(ids) {
		return entities, nil, nil
	}

	// Пакет не собрался: выясняем судьбу каждого идентификатора
	var out []models.Entity
	var failed []string
	var errs []error
	for _, f := range fetches {
		e, getErr := coord.Get(ctx, f.id, q)
		if getErr != nil && len(extras) > 0 {
			// Запрошенные связи — подсказка для гидрации, не условие
			// существования: сущность без них всё равно входит в граф,
			// обход на ней просто останавливается
			e, getErr = coord.Get(ctx, f.id, nil)
		}
		if getErr != nil {
			if !f.required {
				r.logger.Debug("optional edge unresolved",
					"type", typ, "id", f.id.Key(), "error", getErr)
				continue
			}
			failed = append(failed, typ+"/"+f.id.Key())
			errs = append(errs, fmt.Errorf("%s %s: %w", typ, f.id.Key(), getErr))
			continue
		}
		out = append(out, e)
	}
	return out, failed, errs
}

// collectEdges планирует чтения для непосещённых соседей сущности.
// Пометка посещения происходит при планировании: это гарантирует не
// более одной загрузки идентификатора за проход даже в циклах.
func (r *Resolver) collectEdges(e models.Entity, follow map[string][]int, visited map[string]struct{}, frontier map[string][]pendingFetch) {
	typ := e.EntityType()
	coord, ok := r.reg.For(typ)
	if !ok {
		return
	}
	desc := coord.Descriptor()

	for _, relIdx := range follow[typ] {
		if relIdx < 0 || relIdx >= len(desc.Relations) {
			continue
		}
		rel := desc.Relations[relIdx]
		for _, target := range desc.Related(e, relIdx) {
			if _, seen := visited[target.Key()]; seen {
				continue
			}
			visited[target.Key()] = struct{}{}
			frontier[rel.Target] = append(frontier[rel.Target], pendingFetch{id: target, required: rel.Required})
		}
	}
}
