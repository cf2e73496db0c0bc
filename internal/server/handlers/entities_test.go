package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entsync/internal/models"
	"github.com/iudanet/entsync/internal/server/storage"
	"github.com/iudanet/entsync/pkg/api"
)

// mockEntityStorage — in-memory реализация storage.EntityStorage
// с per-user счётчиком версий, как у sqlite-хранилища.
type mockEntityStorage struct {
	mu      sync.Mutex
	records map[string]*models.EntityRecord // remote_id -> record
	version map[string]uint64               // user_id -> counter
}

func newMockEntityStorage() *mockEntityStorage {
	return &mockEntityStorage{
		records: make(map[string]*models.EntityRecord),
		version: make(map[string]uint64),
	}
}

func (m *mockEntityStorage) next(userID string) uint64 {
	m.version[userID]++
	return m.version[userID]
}

func (m *mockEntityStorage) GetByRemoteIDs(_ context.Context, userID, entityType string, remoteIDs []string) ([]*models.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.EntityRecord
	for _, id := range remoteIDs {
		rec, ok := m.records[id]
		if !ok || rec.UserID != userID || rec.Type != entityType || rec.Deleted {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockEntityStorage) ListSince(_ context.Context, userID, entityType string, since uint64, limit int) ([]*models.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.EntityRecord
	for _, rec := range m.records {
		if rec.UserID == userID && rec.Type == entityType && rec.Version > since {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockEntityStorage) CurrentVersion(_ context.Context, userID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version[userID], nil
}

func (m *mockEntityStorage) CreateEntity(_ context.Context, rec *models.EntityRecord) (*models.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *rec
	saved.Version = m.next(rec.UserID)
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	m.records[saved.RemoteID] = &saved
	return &saved, nil
}

func (m *mockEntityStorage) UpdateEntity(_ context.Context, userID, entityType, remoteID string, baseVersion uint64, data []byte) (*models.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[remoteID]
	if !ok || rec.UserID != userID || rec.Type != entityType || rec.Deleted {
		return nil, storage.ErrEntityNotFound
	}
	if baseVersion != 0 && rec.Version != baseVersion {
		return nil, storage.ErrVersionConflict
	}
	rec.Data = data
	rec.Version = m.next(userID)
	rec.UpdatedAt = time.Now()
	return rec, nil
}

func (m *mockEntityStorage) DeleteEntity(_ context.Context, userID, entityType, remoteID string, baseVersion uint64) (*models.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[remoteID]
	if !ok || rec.UserID != userID || rec.Type != entityType || rec.Deleted {
		return nil, storage.ErrEntityNotFound
	}
	if baseVersion != 0 && rec.Version != baseVersion {
		return nil, storage.ErrVersionConflict
	}
	rec.Deleted = true
	rec.Data = nil
	rec.Version = m.next(userID)
	rec.UpdatedAt = time.Now()
	return rec, nil
}

func newEntitiesFixture() (*EntitiesHandler, *mockEntityStorage) {
	store := newMockEntityStorage()
	return NewEntitiesHandler(testLogger(), store), store
}

// authedJSON отправляет запрос с userID в контексте, как после auth middleware
func authedJSON(t *testing.T, handler http.HandlerFunc, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entities/x", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func mutate(t *testing.T, h *EntitiesHandler, userID string, req api.MutateRequest) api.MutateResponse {
	t.Helper()

	rec := authedJSON(t, h.Mutate, userID, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.MutateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestMutate_CreateAssignsRemoteID(t *testing.T) {
	h, _ := newEntitiesFixture()
	userID := uuid.New().String()

	resp := mutate(t, h, userID, api.MutateRequest{
		Kind:    "create",
		Type:    "movie",
		LocalID: "local-1",
		Data:    []byte(`{"title":"Alien"}`),
	})

	assert.Equal(t, "local-1", resp.LocalID)
	assert.NotEmpty(t, resp.RemoteID)
	assert.Equal(t, uint64(1), resp.Version)
}

func TestMutate_UpdateAndDelete(t *testing.T) {
	h, _ := newEntitiesFixture()
	userID := uuid.New().String()

	created := mutate(t, h, userID, api.MutateRequest{
		Kind: "create", Type: "movie", LocalID: "local-1", Data: []byte(`{"n":1}`),
	})

	updated := mutate(t, h, userID, api.MutateRequest{
		Kind: "update", Type: "movie", RemoteID: created.RemoteID, Data: []byte(`{"n":2}`),
	})
	assert.Equal(t, created.RemoteID, updated.RemoteID)
	assert.Equal(t, uint64(2), updated.Version)

	deleted := mutate(t, h, userID, api.MutateRequest{
		Kind: "delete", Type: "movie", RemoteID: created.RemoteID,
	})
	assert.Equal(t, uint64(3), deleted.Version)

	// Удалённая запись больше не читается
	rec := authedJSON(t, h.Get, userID, api.GetRequest{
		Type: "movie", RemoteIDs: []string{created.RemoteID},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.GetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Entities)
}

func TestMutate_VersionConflictReturns409(t *testing.T) {
	h, _ := newEntitiesFixture()
	userID := uuid.New().String()

	created := mutate(t, h, userID, api.MutateRequest{
		Kind: "create", Type: "movie", LocalID: "local-1", Data: []byte(`{}`),
	})

	rec := authedJSON(t, h.Mutate, userID, api.MutateRequest{
		Kind:        "update",
		Type:        "movie",
		RemoteID:    created.RemoteID,
		BaseVersion: created.Version + 7,
		Data:        []byte(`{}`),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, api.ErrCodeConflict, resp.Error)
}

func TestMutate_UpdateMissingReturns404(t *testing.T) {
	h, _ := newEntitiesFixture()

	rec := authedJSON(t, h.Mutate, uuid.New().String(), api.MutateRequest{
		Kind: "update", Type: "movie", RemoteID: "missing", Data: []byte(`{}`),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMutate_UnknownKind(t *testing.T) {
	h, _ := newEntitiesFixture()

	rec := authedJSON(t, h.Mutate, uuid.New().String(), api.MutateRequest{
		Kind: "upsert", Type: "movie",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGet_ReturnsOwnEntitiesOnly(t *testing.T) {
	h, _ := newEntitiesFixture()
	alice := uuid.New().String()
	bob := uuid.New().String()

	created := mutate(t, h, alice, api.MutateRequest{
		Kind: "create", Type: "movie", LocalID: "l1", Data: []byte(`{"title":"Heat"}`),
	})

	// Чужая запись не видна
	rec := authedJSON(t, h.Get, bob, api.GetRequest{
		Type: "movie", RemoteIDs: []string{created.RemoteID},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.GetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Entities)
}

func TestSearch_ReturnsCurrentVersion(t *testing.T) {
	h, _ := newEntitiesFixture()
	userID := uuid.New().String()

	mutate(t, h, userID, api.MutateRequest{Kind: "create", Type: "movie", LocalID: "l1", Data: []byte(`{"n":1}`)})
	mutate(t, h, userID, api.MutateRequest{Kind: "create", Type: "movie", LocalID: "l2", Data: []byte(`{"n":2}`)})

	rec := authedJSON(t, h.Search, userID, api.SearchRequest{Type: "movie"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Entities, 2)
	assert.Equal(t, uint64(2), resp.CurrentVersion)
}

func TestEntities_RequireAuthContext(t *testing.T) {
	h, _ := newEntitiesFixture()

	data, err := json.Marshal(api.GetRequest{Type: "movie"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entities/get", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
