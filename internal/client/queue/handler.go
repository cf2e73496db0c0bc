package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iudanet/entsync/internal/client/coordinator"
	"github.com/iudanet/entsync/internal/models"
	pkgapi "github.com/iudanet/entsync/pkg/api"
)

// Decision — вердикт обработчика по исходу операции.
type Decision int

const (
	// DecisionContinue передаёт исход следующему обработчику; после
	// последнего применяется политика повторов по умолчанию
	DecisionContinue Decision = iota
	// DecisionResolved объявляет операцию успешной
	DecisionResolved
	// DecisionRetry требует повтора независимо от класса ошибки
	DecisionRetry
	// DecisionFail завершает операцию терминальным отказом
	DecisionFail
)

// Outcome — исход одной попытки исполнения операции.
type Outcome struct {
	Op       *models.QueuedOperation
	Response *pkgapi.MutateResponse
	Err      error
}

// ResponseHandler получает право первого отказа на каждый исход: может
// наложить вето на решение о повторе, инициировать повторную
// аутентификацию или породить корректирующие действия.
type ResponseHandler interface {
	HandleOutcome(ctx context.Context, out Outcome) Decision
}

// TerminalHandler дополнительно уведомляется о терминальном отказе
// операции после исчерпания повторов.
type TerminalHandler interface {
	HandleTerminal(ctx context.Context, op *models.QueuedOperation, cause error) error
}

// Refresher обновляет учётные данные. Реализуется сервисом авторизации.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ReauthHandler перехватывает отказ в доступе: обновляет токены и
// требует повтора. Неудачное обновление делает отказ терминальным —
// без действующей сессии повторять бессмысленно.
type ReauthHandler struct {
	auth   Refresher
	logger *slog.Logger
}

func NewReauthHandler(auth Refresher, logger *slog.Logger) *ReauthHandler {
	return &ReauthHandler{auth: auth, logger: logger}
}

// HandleOutcome implements ResponseHandler.
func (h *ReauthHandler) HandleOutcome(ctx context.Context, out Outcome) Decision {
	if !errors.Is(out.Err, models.ErrUnauthorized) {
		return DecisionContinue
	}

	h.logger.Info("re-authenticating after rejected operation", "seq", out.Op.Seq)
	if err := h.auth.Refresh(ctx); err != nil {
		h.logger.Error("re-authentication failed", "error", err)
		return DecisionFail
	}
	return DecisionRetry
}

// SyncStateHandler распространяет исходы операций обратно в координаторы:
// подтверждение create переносит назначенное сервером remote-значение в
// сохранённый идентификатор (pending → synced), успешный update помечает
// сущность synced, терминальный отказ применяет политику координатора.
type SyncStateHandler struct {
	reg    *coordinator.Registry
	logger *slog.Logger
}

func NewSyncStateHandler(reg *coordinator.Registry, logger *slog.Logger) *SyncStateHandler {
	return &SyncStateHandler{reg: reg, logger: logger}
}

// HandleOutcome implements ResponseHandler.
func (h *SyncStateHandler) HandleOutcome(ctx context.Context, out Outcome) Decision {
	if out.Err != nil || out.Response == nil {
		return DecisionContinue
	}

	coord, ok := h.reg.For(out.Op.EntityType)
	if !ok {
		return DecisionContinue
	}

	switch out.Op.Kind {
	case models.OpCreate:
		if out.Response.RemoteID == "" {
			h.logger.Error("create confirmed without remote id", "seq", out.Op.Seq)
			return DecisionContinue
		}
		if err := coord.ConfirmRemote(ctx, out.Op.ID, out.Response.RemoteID); err != nil {
			h.logger.Error("failed to remap identifier",
				"local_id", out.Op.ID.Local, "remote_id", out.Response.RemoteID, "error", err)
		}
	case models.OpUpdate:
		if err := coord.MarkSynced(ctx, out.Op.ID); err != nil {
			h.logger.Error("failed to mark entity synced", "local_id", out.Op.ID.Local, "error", err)
		}
	}
	return DecisionContinue
}

// HandleTerminal implements TerminalHandler.
func (h *SyncStateHandler) HandleTerminal(ctx context.Context, op *models.QueuedOperation, cause error) error {
	if op.Kind == models.OpDelete {
		// Локально запись уже удалена; откатывать нечего
		return nil
	}
	coord, ok := h.reg.For(op.EntityType)
	if !ok {
		return nil
	}
	return coord.HandleWriteFailure(ctx, op.ID)
}

// ConflictHandler делает конфликт версий терминальным без повторов:
// повтор с той же базовой версией обречён.
type ConflictHandler struct {
	logger *slog.Logger
}

func NewConflictHandler(logger *slog.Logger) *ConflictHandler {
	return &ConflictHandler{logger: logger}
}

// HandleOutcome implements ResponseHandler.
func (h *ConflictHandler) HandleOutcome(ctx context.Context, out Outcome) Decision {
	if !errors.Is(out.Err, models.ErrConflictingWrite) {
		return DecisionContinue
	}
	h.logger.Warn("conflicting write detected",
		"seq", out.Op.Seq, "entity_type", out.Op.EntityType, "local_id", out.Op.ID.Local)
	return DecisionFail
}
