package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/iudanet/entsync/internal/catalog"
	"github.com/iudanet/entsync/internal/client/coordinator"
	"github.com/iudanet/entsync/internal/models"
)

// Add добавляет сущность каталога: add movie|genre|person [flags]
func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: add movie|genre|person [flags]")
	}

	switch args[0] {
	case catalog.TypeMovie:
		return a.addMovie(ctx, args[1:])
	case catalog.TypeGenre:
		return a.addGenre(ctx, args[1:])
	case catalog.TypePerson:
		return a.addPerson(ctx, args[1:])
	default:
		return fmt.Errorf("unknown entity type: %s", args[0])
	}
}

func (a *App) addMovie(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add movie", flag.ContinueOnError)
	title := fs.String("title", "", "Movie title (required)")
	year := fs.Int("year", 0, "Release year")
	genres := fs.String("genres", "", "Comma-separated genre IDs")
	cast := fs.String("cast", "", "Comma-separated person IDs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("-title is required")
	}

	movie := catalog.Movie{
		ID:     models.NewIdentifier(),
		Title:  *title,
		Year:   *year,
		Genres: models.NotRequested[[]models.Identifier](),
		Cast:   models.NotRequested[[]models.Identifier](),
	}

	if *genres != "" {
		ids, err := a.resolveRefs(ctx, catalog.TypeGenre, *genres)
		if err != nil {
			return err
		}
		movie.Genres = models.Requested(ids)
	}
	if *cast != "" {
		ids, err := a.resolveRefs(ctx, catalog.TypePerson, *cast)
		if err != nil {
			return err
		}
		movie.Cast = models.Requested(ids)
	}

	return a.storeEntity(ctx, movie)
}

func (a *App) addGenre(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add genre", flag.ContinueOnError)
	name := fs.String("name", "", "Genre name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	return a.storeEntity(ctx, catalog.Genre{
		ID:     models.NewIdentifier(),
		Name:   *name,
		Movies: models.NotRequested[[]models.Identifier](),
	})
}

func (a *App) addPerson(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add person", flag.ContinueOnError)
	name := fs.String("name", "", "Person name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	return a.storeEntity(ctx, catalog.Person{
		ID:   models.NewIdentifier(),
		Name: *name,
	})
}

// List выводит сущности типа: list <type> [flags]
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: list <type> [flags]")
	}

	coord, err := a.coordinatorFor(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	filter := fs.String("filter", "", "Filter field=value (substring match)")
	order := fs.String("order", "", "Order by field")
	desc := fs.Bool("desc", false, "Descending order")
	limit := fs.Int("limit", 0, "Limit number of results")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	q := &models.Query{Limit: *limit}
	if *filter != "" {
		field, value, ok := strings.Cut(*filter, "=")
		if !ok {
			return fmt.Errorf("invalid -filter, expected field=value")
		}
		q.Filter = &models.Filter{Field: field, Op: models.FilterContains, Value: value}
	}
	if *order != "" {
		q.OrderBy = []models.Order{{Field: *order, Desc: *desc}}
	}

	entities, err := coord.Search(ctx, q)
	if err != nil {
		// Недоступный remote-слой не мешает показать локальные данные
		partial, ok := models.AsPartial(err)
		if !ok {
			return fmt.Errorf("search %s: %w", coord.Type(), err)
		}
		a.logger.Warn("search degraded", "type", coord.Type(), "error", partial)
	}

	if len(entities) == 0 {
		a.io.Println("No entities found")
		return nil
	}
	for _, e := range entities {
		a.printEntity(coord, e)
	}
	return nil
}

// Get выводит одну сущность по локальному или remote-идентификатору
func (a *App) Get(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: get <type> <id>")
	}

	coord, err := a.coordinatorFor(args[0])
	if err != nil {
		return err
	}

	e, err := a.findByID(ctx, coord, args[1])
	if err != nil {
		return err
	}

	a.printEntity(coord, e)
	return nil
}

// Delete удаляет сущность и ставит удаление в очередь доставки
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: delete <type> <id>")
	}

	coord, err := a.coordinatorFor(args[0])
	if err != nil {
		return err
	}

	e, err := a.findByID(ctx, coord, args[1])
	if err != nil {
		return err
	}

	if err := coord.Delete(ctx, e.Ident(), coordinator.WriteContext{Propagate: true}); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	a.io.Printf("Deleted %s %s\n", coord.Type(), args[1])
	return nil
}

// storeEntity записывает сущность через координатор с доставкой на сервер
func (a *App) storeEntity(ctx context.Context, e models.Entity) error {
	coord, err := a.coordinatorFor(e.EntityType())
	if err != nil {
		return err
	}

	saved, err := coord.Set(ctx, []models.Entity{e}, coordinator.WriteContext{Propagate: true})
	if err != nil {
		return fmt.Errorf("store %s: %w", e.EntityType(), err)
	}

	for _, s := range saved {
		a.io.Printf("Added %s %s (queued for sync)\n", e.EntityType(), s.Ident().Local)
	}
	return nil
}

// resolveRefs превращает список идентификаторов через запятую в полные
// Identifier существующих сущностей целевого типа.
func (a *App) resolveRefs(ctx context.Context, typ, raw string) ([]models.Identifier, error) {
	coord, err := a.coordinatorFor(typ)
	if err != nil {
		return nil, err
	}

	var ids []models.Identifier
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		e, err := a.findByID(ctx, coord, part)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", typ, part, err)
		}
		ids = append(ids, e.Ident())
	}
	return ids, nil
}

// findByID ищет сущность по локальному или remote-значению идентификатора
func (a *App) findByID(ctx context.Context, coord *coordinator.Coordinator, id string) (models.Entity, error) {
	entities, err := coord.Search(ctx, &models.Query{})
	if err != nil {
		partial, ok := models.AsPartial(err)
		if !ok {
			return nil, fmt.Errorf("search %s: %w", coord.Type(), err)
		}
		a.logger.Warn("lookup degraded", "type", coord.Type(), "error", partial)
	}

	for _, e := range entities {
		ident := e.Ident()
		if ident.Local == id || ident.Remote == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
}

func (a *App) coordinatorFor(typ string) (*coordinator.Coordinator, error) {
	coord, ok := a.registry.For(typ)
	if !ok {
		return nil, fmt.Errorf("unknown entity type: %s", typ)
	}
	return coord, nil
}

// printEntity выводит идентификатор, состояние синхронизации и JSON тела
func (a *App) printEntity(coord *coordinator.Coordinator, e models.Entity) {
	ident := e.Ident()
	remote := ident.Remote
	if remote == "" {
		remote = "-"
	}

	data, err := coord.Descriptor().Encode(e)
	if err != nil {
		a.io.Printf("%s [%s] local=%s remote=%s (encode error: %v)\n",
			coord.Type(), ident.State, ident.Local, remote, err)
		return
	}

	a.io.Printf("%s [%s] local=%s remote=%s\n  %s\n",
		coord.Type(), ident.State, ident.Local, remote, string(data))
}
