package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/iudanet/entsync/internal/models"
	"github.com/iudanet/entsync/internal/server/storage"
	"github.com/iudanet/entsync/pkg/api"
)

// Виды мутаций в MutateRequest.Kind
const (
	mutateKindCreate = "create"
	mutateKindUpdate = "update"
	mutateKindDelete = "delete"
)

// EntitiesHandler обрабатывает операции над записями сущностей.
// Полезная нагрузка непрозрачна: сервер хранит байты и версии.
type EntitiesHandler struct {
	logger  *slog.Logger
	storage storage.EntityStorage
}

// NewEntitiesHandler создает новый handler для сущностей
func NewEntitiesHandler(logger *slog.Logger, entityStorage storage.EntityStorage) *EntitiesHandler {
	return &EntitiesHandler{
		logger:  logger,
		storage: entityStorage,
	}
}

// Get обрабатывает POST /api/v1/entities/get
// Пакетная выборка сущностей типа по remote-идентификаторам
func (h *EntitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(h.logger, w, r)
	if !ok {
		return
	}

	var req api.GetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeBadRequest, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		sendError(h.logger, w, api.ErrCodeBadRequest, "type is required", http.StatusBadRequest)
		return
	}

	records, err := h.storage.GetByRemoteIDs(ctx, userID, req.Type, req.RemoteIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get entities", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.GetResponse{Entities: toPayloads(records)}
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Search обрабатывает POST /api/v1/entities/search
// Выгрузка сущностей типа, изменённых после версии Since
func (h *EntitiesHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(h.logger, w, r)
	if !ok {
		return
	}

	var req api.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeBadRequest, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		sendError(h.logger, w, api.ErrCodeBadRequest, "type is required", http.StatusBadRequest)
		return
	}

	records, err := h.storage.ListSince(ctx, userID, req.Type, req.Since, req.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list entities", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	current, err := h.storage.CurrentVersion(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get current version", slog.Any("error", err))
		sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.SearchResponse{
		Entities:       toPayloads(records),
		CurrentVersion: current,
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Mutate обрабатывает POST /api/v1/entities/mutate
// Одна мутирующая операция: create назначает RemoteID на сервере,
// update/delete проверяют опциональную базовую версию
func (h *EntitiesHandler) Mutate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(h.logger, w, r)
	if !ok {
		return
	}

	var req api.MutateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, api.ErrCodeBadRequest, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		sendError(h.logger, w, api.ErrCodeBadRequest, "type is required", http.StatusBadRequest)
		return
	}

	var (
		rec *models.EntityRecord
		err error
	)

	switch req.Kind {
	case mutateKindCreate:
		rec, err = h.storage.CreateEntity(ctx, &models.EntityRecord{
			RemoteID: uuid.New().String(),
			UserID:   userID,
			Type:     req.Type,
			Data:     req.Data,
		})
	case mutateKindUpdate:
		if req.RemoteID == "" {
			sendError(h.logger, w, api.ErrCodeBadRequest, "remote_id is required for update", http.StatusBadRequest)
			return
		}
		rec, err = h.storage.UpdateEntity(ctx, userID, req.Type, req.RemoteID, req.BaseVersion, req.Data)
	case mutateKindDelete:
		if req.RemoteID == "" {
			sendError(h.logger, w, api.ErrCodeBadRequest, "remote_id is required for delete", http.StatusBadRequest)
			return
		}
		rec, err = h.storage.DeleteEntity(ctx, userID, req.Type, req.RemoteID, req.BaseVersion)
	default:
		sendError(h.logger, w, api.ErrCodeBadRequest, "unknown mutation kind: "+req.Kind, http.StatusBadRequest)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEntityNotFound):
			sendError(h.logger, w, api.ErrCodeNotFound, "entity not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrVersionConflict):
			h.logger.WarnContext(ctx, "mutation version conflict",
				slog.String("type", req.Type),
				slog.String("remote_id", req.RemoteID))
			sendError(h.logger, w, api.ErrCodeConflict, err.Error(), http.StatusConflict)
		default:
			h.logger.ErrorContext(ctx, "failed to apply mutation", slog.Any("error", err))
			sendError(h.logger, w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "mutation applied",
		slog.String("kind", req.Kind),
		slog.String("type", req.Type),
		slog.String("remote_id", rec.RemoteID),
		slog.Uint64("version", rec.Version))

	resp := api.MutateResponse{
		LocalID:  req.LocalID,
		RemoteID: rec.RemoteID,
		Version:  rec.Version,
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// requireUserID достаёт ID пользователя, положенный auth middleware
func requireUserID(logger *slog.Logger, w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok || userID == "" {
		sendError(logger, w, api.ErrCodeUnauthorized, "missing authentication", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func toPayloads(records []*models.EntityRecord) []api.EntityPayload {
	payloads := make([]api.EntityPayload, 0, len(records))
	for _, rec := range records {
		payloads = append(payloads, api.EntityPayload{
			RemoteID:  rec.RemoteID,
			Type:      rec.Type,
			Data:      rec.Data,
			Version:   rec.Version,
			Deleted:   rec.Deleted,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return payloads
}
