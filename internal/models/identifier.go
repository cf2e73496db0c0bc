package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SyncState описывает состояние синхронизации идентификатора с сервером.
type SyncState string

const (
	// SyncStatePending объект создан локально, сервер ещё не подтвердил его
	SyncStatePending SyncState = "pending"
	// SyncStateSynced сервер назначил remote-значение, объект подтверждён
	SyncStateSynced SyncState = "synced"
	// SyncStateOutOfSync локальные изменения не удалось доставить на сервер
	SyncStateOutOfSync SyncState = "outOfSync"
)

// ErrRemoteAlreadySet возвращается при попытке повторно назначить remote-значение
var ErrRemoteAlreadySet = errors.New("remote value already assigned")

// Identifier — двойной ключ объекта: локальное значение, назначаемое при
// создании, и remote-значение, назначаемое сервером ровно один раз.
// Объект, созданный офлайн и позже подтверждённый сервером, остаётся
// тем же логическим объектом (см. Same).
type Identifier struct {
	Local  string    `json:"local"`            // Local уникальный локальный ключ (UUID), неизменяемый
	Remote string    `json:"remote,omitempty"` // Remote ключ, назначенный сервером; пустая строка = ещё не назначен
	State  SyncState `json:"state"`            // State текущее состояние синхронизации
}

// NewIdentifier creates a local-only identifier in the pending state.
func NewIdentifier() Identifier {
	return Identifier{
		Local: uuid.New().String(),
		State: SyncStatePending,
	}
}

// FromRemote creates an identifier for an object that originated on the
// server: a fresh local value paired with the server-assigned remote value.
func FromRemote(remote string) Identifier {
	return Identifier{
		Local:  uuid.New().String(),
		Remote: remote,
		State:  SyncStateSynced,
	}
}

// HasRemote reports whether the server has assigned a remote value.
func (id Identifier) HasRemote() bool {
	return id.Remote != ""
}

// WithRemote returns a copy with the remote value assigned and the state
// moved pending → synced. The transition happens exactly once: assigning
// the same remote value again is a no-op, assigning a different one is an
// error (ErrRemoteAlreadySet).
func (id Identifier) WithRemote(remote string) (Identifier, error) {
	if id.Remote != "" {
		if id.Remote == remote {
			return id, nil
		}
		return id, fmt.Errorf("%w: have %q, got %q", ErrRemoteAlreadySet, id.Remote, remote)
	}
	id.Remote = remote
	id.State = SyncStateSynced
	return id, nil
}

// MarkOutOfSync returns a copy flagged out-of-sync. Pending identifiers stay
// pending: out-of-sync only makes sense for objects the server has seen.
func (id Identifier) MarkOutOfSync() Identifier {
	if id.State == SyncStateSynced {
		id.State = SyncStateOutOfSync
	}
	return id
}

// MarkSynced returns a copy moved back to synced after a successful remote
// write. A pending identifier without a remote value stays pending.
func (id Identifier) MarkSynced() Identifier {
	if id.Remote != "" {
		id.State = SyncStateSynced
	}
	return id
}

// Same reports whether two identifiers refer to the same logical object:
// either the local values match, or both carry the same remote value.
func (id Identifier) Same(other Identifier) bool {
	if id.Local != "" && id.Local == other.Local {
		return true
	}
	return id.Remote != "" && id.Remote == other.Remote
}

// Key returns the stable map/dedup key for this identifier. The local value
// is immutable and globally unique for the object's lifetime, so it is the
// key even after the remote value arrives.
func (id Identifier) Key() string {
	return id.Local
}

// IsZero reports whether the identifier is empty.
func (id Identifier) IsZero() bool {
	return id.Local == "" && id.Remote == ""
}
