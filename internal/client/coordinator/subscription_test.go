package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/catalog"
	"github.com/iudanet/entsync/internal/clock"
	"github.com/iudanet/entsync/internal/models"
)

func recvBatch(t *testing.T, sub *Subscription) []models.Change {
	t.Helper()

	select {
	case batch := <-sub.Changes():
		return batch
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func assertNoBatch(t *testing.T, sub *Subscription) {
	t.Helper()

	select {
	case batch, ok := <-sub.Changes():
		if ok {
			t.Fatalf("unexpected change batch: %+v", batch)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscription_AllChanges(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	sub := c.Subscribe(nil)
	defer sub.Cancel()

	id := models.NewIdentifier()
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)

	batch := recvBatch(t, sub)
	require.Len(t, batch, 1)
	assert.Equal(t, models.ChangeInserted, batch[0].Kind)
	assert.Equal(t, "Alien", batch[0].Entity.(catalog.Movie).Title)

	_, err = c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Aliens"}}, WriteContext{})
	require.NoError(t, err)

	batch = recvBatch(t, sub)
	require.Len(t, batch, 1)
	assert.Equal(t, models.ChangeUpdated, batch[0].Kind)
}

func TestSubscription_QueryBound(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	sub := c.Subscribe(&models.Query{
		Filter: &models.Filter{Field: "title", Op: models.FilterContains, Value: "Alien"},
	})
	defer sub.Cancel()

	// Не попадает в результат запроса: уведомления нет
	other := models.NewIdentifier()
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: other, Title: "Blade Runner"}}, WriteContext{})
	require.NoError(t, err)
	assertNoBatch(t, sub)

	// Вход в результат
	id := models.NewIdentifier()
	_, err = c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)
	batch := recvBatch(t, sub)
	require.Len(t, batch, 1)
	assert.Equal(t, models.ChangeInserted, batch[0].Kind)

	// Обновление внутри результата
	_, err = c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Aliens", Year: 1986}}, WriteContext{})
	require.NoError(t, err)
	batch = recvBatch(t, sub)
	require.Len(t, batch, 1)
	assert.Equal(t, models.ChangeUpdated, batch[0].Kind)

	// Выход из результата: сущность больше не совпадает с предикатом
	_, err = c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Prometheus"}}, WriteContext{})
	require.NoError(t, err)
	batch = recvBatch(t, sub)
	require.Len(t, batch, 1)
	assert.Equal(t, models.ChangeRemoved, batch[0].Kind)

	// Обновление сущности вне результата снова молчит
	_, err = c.Set(ctx, []models.Entity{catalog.Movie{ID: other, Title: "Blade Runner 2049"}}, WriteContext{})
	require.NoError(t, err)
	assertNoBatch(t, sub)
}

func TestSubscription_CancelStopsDelivery(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	sub1 := c.Subscribe(nil)
	sub2 := c.Subscribe(nil)
	defer sub2.Cancel()

	sub1.Cancel()
	// Повторная отмена безопасна
	sub1.Cancel()

	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: models.NewIdentifier(), Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)

	// Отменённая подписка закрыта, живая получает изменение
	_, ok := <-sub1.Changes()
	assert.False(t, ok)

	batch := recvBatch(t, sub2)
	assert.Len(t, batch, 1)
}

func TestSubscription_SharedClockOrdersBatches(t *testing.T) {
	shared := clock.New()
	c1 := newTestCoordinator(t, nil, WithClock(shared))
	c2 := newTestCoordinator(t, nil, WithClock(shared))
	ctx := context.Background()

	sub1 := c1.Subscribe(nil)
	defer sub1.Cancel()
	sub2 := c2.Subscribe(nil)
	defer sub2.Cancel()

	_, err := c1.Set(ctx, []models.Entity{
		catalog.Movie{ID: models.NewIdentifier(), Title: "Alien"},
		catalog.Movie{ID: models.NewIdentifier(), Title: "Aliens"},
	}, WriteContext{})
	require.NoError(t, err)

	_, err = c2.Set(ctx, []models.Entity{catalog.Movie{ID: models.NewIdentifier(), Title: "Heat"}}, WriteContext{})
	require.NoError(t, err)

	first := recvBatch(t, sub1)
	require.Len(t, first, 2)
	// Изменения одного пакета несут одну метку
	assert.Equal(t, first[0].Clock, first[1].Clock)

	second := recvBatch(t, sub2)
	require.Len(t, second, 1)
	assert.Greater(t, second[0].Clock, first[0].Clock)
}

func TestSubscription_DeleteEmitsRemoved(t *testing.T) {
	c := newTestCoordinator(t, nil)
	ctx := context.Background()

	id := models.NewIdentifier()
	_, err := c.Set(ctx, []models.Entity{catalog.Movie{ID: id, Title: "Alien"}}, WriteContext{})
	require.NoError(t, err)

	sub := c.Subscribe(nil)
	defer sub.Cancel()

	require.NoError(t, c.Delete(ctx, id, WriteContext{}))

	batch := recvBatch(t, sub)
	require.Len(t, batch, 1)
	assert.Equal(t, models.ChangeRemoved, batch[0].Kind)
}
