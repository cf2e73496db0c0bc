package coordinator

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/catalog"
	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/client/storage/memory"
	"github.com/iudanet/entsync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeQueue записывает поставленные операции, не исполняя их.
type fakeQueue struct {
	mu   sync.Mutex
	ops  []*models.QueuedOperation
	next uint64
	err  error
}

func (f *fakeQueue) Enqueue(ctx context.Context, op *models.QueuedOperation) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.next++
	op.Seq = f.next
	f.ops = append(f.ops, op.Clone())
	return f.next, nil
}

func newTestCoordinator(t *testing.T, queue Enqueuer, opts ...Option) *Coordinator {
	t.Helper()

	desc := catalog.MovieDescriptor()
	mem, err := memory.New(desc, 64)
	require.NoError(t, err)
	chain, err := storage.NewChain(testLogger(), mem)
	require.NoError(t, err)
	return New(desc, chain, queue, testLogger(), opts...)
}

func TestCoordinator_Get_Dedup(t *testing.T) {
	var fetches atomic.Int64
	release := make(chan struct{})

	id := models.NewIdentifier()
	movie := catalog.Movie{ID: id, Title: "Alien"}

	backend := &storage.BackendMock{
		NameFunc: func() string { return "mock" },
		GetFunc: func(ctx context.Context, gotID models.Identifier, q *models.Query) (models.Entity, error) {
			fetches.Add(1)
			<-release
			return movie, nil
		},
		CloseFunc: func() error { return nil },
	}
	chain, err := storage.NewChain(testLogger(), backend)
	require.NoError(t, err)
	c := New(catalog.MovieDescriptor(), chain, nil, testLogger())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]models.Entity, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := c.Get(context.Background(), id, nil)
			assert.NoError(t, err)
			results[i] = e
		}()
	}

	// Даём всем вызовам присоединиться к первому, затем отпускаем его
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), fetches.Load())
	for _, e := range results {
		assert.Equal(t, "Alien", e.(catalog.Movie).Title)
	}
}

func TestCoordinator_Set_NotRequestedNeverOverwrites(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	id := models.NewIdentifier()
	g1, g2 := models.NewIdentifier(), models.NewIdentifier()

	loaded := catalog.Movie{
		ID:     id,
		Title:  "Alien",
		Genres: models.Requested([]models.Identifier{g1, g2}),
	}
	_, err := c.Set(ctx, []models.Entity{loaded}, WriteContext{})
	require.NoError(t, err)

	// Частичная выгрузка без связей не должна стереть загруженные жанры
	partial := catalog.Movie{
		ID:     id,
		Title:  "Alien (Director's Cut)",
		Genres: models.NotRequested[[]models.Identifier](),
	}
	_, err = c.Set(ctx, []models.Entity{partial}, WriteContext{})
	require.NoError(t, err)

	e, err := c.Get(ctx, id, nil)
	require.NoError(t, err)
	got := e.(catalog.Movie)
	assert.Equal(t, "Alien (Director's Cut)", got.Title)
	require.True(t, got.Genres.Requested)
	assert.Equal(t, []models.Identifier{g1, g2}, got.Genres.Value)
}

func TestCoordinator_Set_PropagateEnqueuesCreate(t *testing.T) {
	q := &fakeQueue{}
	c := newTestCoordinator(t, q)
	ctx := context.Background()

	movie := catalog.Movie{ID: models.NewIdentifier(), Title: "Alien"}
	_, err := c.Set(ctx, []models.Entity{movie}, WriteContext{Propagate: true})
	require.NoError(t, err)

	require.Len(t, q.ops, 1)
	op := q.ops[0]
	assert.Equal(t, models.OpCreate, op.Kind)
	assert.Equal(t, catalog.TypeMovie, op.EntityType)
	assert.Equal(t, movie.ID.Local, op.ID.Local)

	decoded, err := catalog.MovieDescriptor().Decode(op.Payload)
	require.NoError(t, err)
	assert.Equal(t, "Alien", decoded.(catalog.Movie).Title)
}

func TestCoordinator_Set_PropagateEnqueuesUpdateForSynced(t *testing.T) {
	q := &fakeQueue{}
	c := newTestCoordinator(t, q)

	movie := catalog.Movie{ID: models.FromRemote("srv-1"), Title: "Alien"}
	_, err := c.Set(context.Background(), []models.Entity{movie}, WriteContext{Propagate: true})
	require.NoError(t, err)

	require.Len(t, q.ops, 1)
	assert.Equal(t, models.OpUpdate, q.ops[0].Kind)
}

func TestCoordinator_Set_EnqueueFailureRejectsWrite(t *testing.T) {
	q := &fakeQueue{err: models.ErrBackendUnavailable}
	c := newTestCoordinator(t, q)
	ctx := context.Background()

	id := models.NewIdentifier()
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{Propagate: true})
	require.Error(t, err)

	// Запись не принята: локального состояния нет
	_, err = c.Get(ctx, id, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCoordinator_Delete(t *testing.T) {
	q := &fakeQueue{}
	c := newTestCoordinator(t, q)
	ctx := context.Background()

	id := models.FromRemote("srv-1")
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, id, WriteContext{Propagate: true}))

	require.Len(t, q.ops, 1)
	assert.Equal(t, models.OpDelete, q.ops[0].Kind)

	_, err = c.Get(ctx, id, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCoordinator_Delete_NotFound(t *testing.T) {
	c := newTestCoordinator(t, nil)
	err := c.Delete(context.Background(), models.NewIdentifier(), WriteContext{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCoordinator_ConfirmRemote(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	id := models.NewIdentifier()
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)

	require.NoError(t, c.ConfirmRemote(ctx, id, "srv-42"))

	e, err := c.Get(ctx, id, nil)
	require.NoError(t, err)
	got := e.Ident()
	assert.Equal(t, "srv-42", got.Remote)
	assert.Equal(t, models.SyncStateSynced, got.State)
	assert.Equal(t, id.Local, got.Local)

	// Тот же объект находится и по идентификатору серверного происхождения
	e, err = c.Get(ctx, models.FromRemote("srv-42"), nil)
	require.NoError(t, err)
	assert.Equal(t, id.Local, e.Ident().Local)
}

func TestCoordinator_HandleWriteFailure_MarkOutOfSync(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	id := models.FromRemote("srv-1")
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)

	require.NoError(t, c.HandleWriteFailure(ctx, id))

	e, err := c.Get(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateOutOfSync, e.Ident().State)
}

func TestCoordinator_HandleWriteFailure_Rollback(t *testing.T) {
	c := newTestCoordinator(t, nil, WithWritePolicy(WritePolicyRollback))
	ctx := context.Background()

	id := models.NewIdentifier()
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)

	require.NoError(t, c.HandleWriteFailure(ctx, id))

	_, err = c.Get(ctx, id, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCoordinator_RemoveAll(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	_, err := c.Set(ctx, []models.Entity{
		catalog.Movie{ID: models.NewIdentifier(), Title: "Alien", Year: 1979},
		catalog.Movie{ID: models.NewIdentifier(), Title: "Aliens", Year: 1986},
		catalog.Movie{ID: models.NewIdentifier(), Title: "Blade Runner", Year: 1982},
	}, WriteContext{})
	require.NoError(t, err)

	n, err := c.RemoveAll(ctx, &models.Query{
		Filter: &models.Filter{Field: "title", Op: models.FilterContains, Value: "Alien"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRegistry(t *testing.T) {
	movies := newTestCoordinator(t, nil)

	reg, err := NewRegistry(movies)
	require.NoError(t, err)

	c, ok := reg.For(catalog.TypeMovie)
	require.True(t, ok)
	assert.Same(t, movies, c)

	_, ok = reg.For(catalog.TypeGenre)
	assert.False(t, ok)

	_, err = NewRegistry(movies, movies)
	assert.Error(t, err)
}
