package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/iudanet/entsync/internal/catalog"
	"github.com/iudanet/entsync/internal/client/graph"
	"github.com/iudanet/entsync/internal/models"
)

// Resolve обходит граф связей фильма: жанры и актёрский состав,
// от жанров — обратно к фильмам. Циклы обрываются посещёнными узлами.
func (a *App) Resolve(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: resolve <movie-id> [flags]")
	}

	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	depth := fs.Int("depth", 2, "Maximum traversal depth, 0 = unlimited")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	movies, err := a.coordinatorFor(catalog.TypeMovie)
	if err != nil {
		return err
	}

	root, err := a.findByID(ctx, movies, args[0])
	if err != nil {
		return err
	}

	req := graph.Request{
		Roots: []models.Entity{root},
		Follow: map[string][]int{
			catalog.TypeMovie: {catalog.MovieRelGenres, catalog.MovieRelCast},
			catalog.TypeGenre: {catalog.GenreRelMovies},
		},
		MaxDepth: *depth,
	}

	g, err := a.resolver.Resolve(ctx, req)
	if err != nil {
		if partial, ok := models.AsPartial(err); ok {
			a.io.Printf("Warning: graph resolved partially: %v\n", partial)
		} else {
			return fmt.Errorf("resolve: %w", err)
		}
	}

	a.io.Printf("Graph: %d entities\n", g.Size())
	for _, typ := range g.Types() {
		coord, err := a.coordinatorFor(typ)
		if err != nil {
			continue
		}
		a.io.Printf("-- %s\n", typ)
		for _, e := range g.Entities(typ) {
			a.printEntity(coord, e)
		}
	}
	return nil
}
