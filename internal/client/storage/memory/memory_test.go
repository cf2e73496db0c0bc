package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/catalog"
	"github.com/iudanet/entsync/internal/models"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(catalog.MovieDescriptor(), 16)
	require.NoError(t, err)
	return b
}

func TestBackend_SetGet(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	movie := catalog.Movie{ID: models.NewIdentifier(), Title: "Alien", Year: 1979}

	_, err := b.Set(ctx, []models.Entity{movie})
	require.NoError(t, err)

	got, err := b.Get(ctx, movie.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, movie, got)
}

func TestBackend_Get_NotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Get(context.Background(), models.NewIdentifier(), nil)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestBackend_Get_ByRemoteValue(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	id, err := models.NewIdentifier().WithRemote("srv-1")
	require.NoError(t, err)
	movie := catalog.Movie{ID: id, Title: "Alien"}

	_, err = b.Set(ctx, []models.Entity{movie})
	require.NoError(t, err)

	// Другой local, тот же remote — тот же логический объект
	alias := models.FromRemote("srv-1")
	got, err := b.Get(ctx, alias, nil)
	require.NoError(t, err)
	assert.Equal(t, movie, got)
}

func TestBackend_Get_MissingExtraFallsThrough(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	// Жанры не загружены
	movie := catalog.Movie{ID: models.NewIdentifier(), Title: "Alien"}
	_, err := b.Set(ctx, []models.Entity{movie})
	require.NoError(t, err)

	q := &models.Query{Extras: []int{catalog.MovieRelGenres}}
	_, err = b.Get(ctx, movie.ID, q)
	require.ErrorIs(t, err, models.ErrNotFound,
		"entity without requested extras must not count as a hit")

	// С загруженными жанрами — попадание
	movie.Genres = models.Requested([]models.Identifier{models.NewIdentifier()})
	_, err = b.Set(ctx, []models.Entity{movie})
	require.NoError(t, err)

	got, err := b.Get(ctx, movie.ID, q)
	require.NoError(t, err)
	assert.Equal(t, movie, got)
}

func TestBackend_Search_ByIDs(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	m1 := catalog.Movie{ID: models.NewIdentifier(), Title: "Alien"}
	m2 := catalog.Movie{ID: models.NewIdentifier(), Title: "Aliens"}

	_, err := b.Set(ctx, []models.Entity{m1, m2})
	require.NoError(t, err)

	found, err := b.Search(ctx, models.ByIDs(m1.ID, m2.ID))
	require.NoError(t, err)
	assert.Len(t, found, 2)

	// Частично закэшированный набор — пустой результат, не подмножество
	found, err = b.Search(ctx, models.ByIDs(m1.ID, models.NewIdentifier()))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestBackend_Search_PredicateNotSupported(t *testing.T) {
	b := newTestBackend(t)

	q := &models.Query{Filter: &models.Filter{Field: "title", Op: models.FilterEq, Value: "Alien"}}
	_, err := b.Search(context.Background(), q)
	require.ErrorIs(t, err, models.ErrNotSupported)
}

func TestBackend_RemoveAll(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	m1 := catalog.Movie{ID: models.NewIdentifier(), Title: "Alien", Year: 1979}
	m2 := catalog.Movie{ID: models.NewIdentifier(), Title: "Blade Runner", Year: 1982}

	_, err := b.Set(ctx, []models.Entity{m1, m2})
	require.NoError(t, err)

	q := &models.Query{Filter: &models.Filter{Field: "title", Op: models.FilterEq, Value: "Alien"}}
	n, err := b.RemoveAll(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = b.Get(ctx, m1.ID, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = b.Get(ctx, m2.ID, nil)
	assert.NoError(t, err)
}

func TestBackend_RemoveAll_ByIDs(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	m1 := catalog.Movie{ID: models.NewIdentifier(), Title: "Alien"}
	_, err := b.Set(ctx, []models.Entity{m1})
	require.NoError(t, err)

	n, err := b.RemoveAll(ctx, models.ByIDs(m1.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
