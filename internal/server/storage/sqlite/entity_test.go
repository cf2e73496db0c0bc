package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/models"
	"github.com/iudanet/entsync/internal/server/storage"
)

func createEntity(t *testing.T, s *Storage, userID, entityType string, data string) *models.EntityRecord {
	t.Helper()

	rec, err := s.CreateEntity(context.Background(), &models.EntityRecord{
		RemoteID: uuid.New().String(),
		UserID:   userID,
		Type:     entityType,
		Data:     []byte(data),
	})
	require.NoError(t, err)

	return rec
}

func TestCreateEntity_AssignsMonotonicVersions(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	first := createEntity(t, s, user.ID, "movie", `{"title":"Alien"}`)
	second := createEntity(t, s, user.ID, "genre", `{"name":"horror"}`)

	assert.Equal(t, uint64(1), first.Version)
	assert.Equal(t, uint64(2), second.Version)

	current, err := s.CurrentVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current)
}

func TestCreateEntity_VersionsArePerUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	alice := newTestUser("alice")
	bob := newTestUser("bob")
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	createEntity(t, s, alice.ID, "movie", `{}`)
	bobFirst := createEntity(t, s, bob.ID, "movie", `{}`)

	// Счётчик у каждого пользователя свой
	assert.Equal(t, uint64(1), bobFirst.Version)
}

func TestGetByRemoteIDs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	first := createEntity(t, s, user.ID, "movie", `{"title":"Alien"}`)
	second := createEntity(t, s, user.ID, "movie", `{"title":"Heat"}`)
	otherType := createEntity(t, s, user.ID, "genre", `{"name":"crime"}`)

	got, err := s.GetByRemoteIDs(ctx, user.ID, "movie", []string{
		first.RemoteID, second.RemoteID, otherType.RemoteID, "missing",
	})
	require.NoError(t, err)

	// Чужой тип и отсутствующий ID просто не входят в ответ
	require.Len(t, got, 2)
	assert.Equal(t, first.RemoteID, got[0].RemoteID)
	assert.Equal(t, second.RemoteID, got[1].RemoteID)
	assert.JSONEq(t, `{"title":"Alien"}`, string(got[0].Data))
}

func TestGetByRemoteIDs_OmitsDeleted(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	rec := createEntity(t, s, user.ID, "movie", `{}`)
	_, err := s.DeleteEntity(ctx, user.ID, "movie", rec.RemoteID, rec.Version)
	require.NoError(t, err)

	got, err := s.GetByRemoteIDs(ctx, user.ID, "movie", []string{rec.RemoteID})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateEntity(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	rec := createEntity(t, s, user.ID, "movie", `{"title":"Alien"}`)

	updated, err := s.UpdateEntity(ctx, user.ID, "movie", rec.RemoteID, rec.Version, []byte(`{"title":"Aliens"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), updated.Version)
	assert.JSONEq(t, `{"title":"Aliens"}`, string(updated.Data))
}

func TestUpdateEntity_VersionConflict(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	rec := createEntity(t, s, user.ID, "movie", `{}`)

	_, err := s.UpdateEntity(ctx, user.ID, "movie", rec.RemoteID, rec.Version+5, []byte(`{}`))
	require.ErrorIs(t, err, storage.ErrVersionConflict)
}

func TestUpdateEntity_ZeroBaseVersionSkipsCheck(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	rec := createEntity(t, s, user.ID, "movie", `{}`)

	// baseVersion == 0 — last write wins
	updated, err := s.UpdateEntity(ctx, user.ID, "movie", rec.RemoteID, 0, []byte(`{"title":"Heat"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), updated.Version)
}

func TestUpdateEntity_NotFound(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	_, err := s.UpdateEntity(ctx, user.ID, "movie", "missing", 0, []byte(`{}`))
	require.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestDeleteEntity_TombstoneVisibleInListSince(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	rec := createEntity(t, s, user.ID, "movie", `{"title":"Alien"}`)

	deleted, err := s.DeleteEntity(ctx, user.ID, "movie", rec.RemoteID, 0)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, uint64(2), deleted.Version)
	assert.Nil(t, deleted.Data)

	// Повторное удаление — записи уже нет
	_, err = s.DeleteEntity(ctx, user.ID, "movie", rec.RemoteID, 0)
	require.ErrorIs(t, err, storage.ErrEntityNotFound)

	// Tombstone попадает в инкрементальную выгрузку
	since, err := s.ListSince(ctx, user.ID, "movie", 1, 0)
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.True(t, since[0].Deleted)
}

func TestListSince(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, s.CreateUser(ctx, user))

	createEntity(t, s, user.ID, "movie", `{"n":1}`)
	second := createEntity(t, s, user.ID, "movie", `{"n":2}`)
	third := createEntity(t, s, user.ID, "movie", `{"n":3}`)
	createEntity(t, s, user.ID, "genre", `{"n":4}`)

	got, err := s.ListSince(ctx, user.ID, "movie", 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.RemoteID, got[0].RemoteID)
	assert.Equal(t, third.RemoteID, got[1].RemoteID)

	// Лимит обрезает выборку начиная с младших версий
	limited, err := s.ListSince(ctx, user.ID, "movie", 0, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, uint64(1), limited[0].Version)
}
