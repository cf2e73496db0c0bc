package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/catalog"
	"github.com/iudanet/entsync/internal/models"
)

func testMovie(title string) catalog.Movie {
	return catalog.Movie{
		ID:    models.NewIdentifier(),
		Title: title,
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)

	_, err = New(-1)
	require.Error(t, err)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	a := testMovie("a")
	b := testMovie("b")
	cc := testMovie("c")

	// Вставка a,b,c без промежуточных чтений: вытесняется ровно a
	c.Set(a.ID.Key(), a)
	c.Set(b.ID.Key(), b)
	c.Set(cc.ID.Key(), cc)

	assert.Equal(t, 2, c.Len())

	_, ok := c.Get(a.ID.Key())
	assert.False(t, ok, "a must be evicted")

	_, ok = c.Get(b.ID.Key())
	assert.True(t, ok)
	_, ok = c.Get(cc.ID.Key())
	assert.True(t, ok)
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	a := testMovie("a")
	b := testMovie("b")
	cc := testMovie("c")

	c.Set(a.ID.Key(), a)
	c.Set(b.ID.Key(), b)

	// Чтение a обновляет recency: теперь наименее недавний — b
	_, ok := c.Get(a.ID.Key())
	require.True(t, ok)

	c.Set(cc.ID.Key(), cc)

	_, ok = c.Get(b.ID.Key())
	assert.False(t, ok, "b must be evicted after a was refreshed")

	_, ok = c.Get(a.ID.Key())
	assert.True(t, ok)
}

func TestCache_SetExistingKeyDoesNotEvict(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	a := testMovie("a")
	b := testMovie("b")

	c.Set(a.ID.Key(), a)
	c.Set(b.ID.Key(), b)

	// Обновление существующего ключа не меняет количество записей
	updated := a
	updated.Title = "a2"
	c.Set(a.ID.Key(), updated)

	assert.Equal(t, 2, c.Len())

	got, ok := c.Get(a.ID.Key())
	require.True(t, ok)
	assert.Equal(t, "a2", got.(catalog.Movie).Title)
}

func TestCache_RemoveAndPurge(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	a := testMovie("a")
	b := testMovie("b")

	c.Set(a.ID.Key(), a)
	c.Set(b.ID.Key(), b)

	assert.True(t, c.Remove(a.ID.Key()))
	assert.False(t, c.Remove(a.ID.Key()), "double remove is a no-op")
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCache_Capacity(t *testing.T) {
	c, err := New(7)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Capacity())
}
