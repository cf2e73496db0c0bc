package models

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Таксономия ошибок движка. Сторонние бэкенды обязаны приводить свои ошибки
// к этим значениям на границе (через fmt.Errorf с %w).
var (
	// ErrNotFound объект не найден ни в одном бэкенде
	ErrNotFound = errors.New("entity not found")

	// ErrConflictingWrite конкурентный мерж обнаружил несовместимые состояния
	ErrConflictingWrite = errors.New("conflicting write")

	// ErrBackendUnavailable временная недоступность бэкенда (сеть, таймаут)
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrUnauthorized сервер отверг учётные данные
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotSupported операция не поддерживается данным бэкендом
	ErrNotSupported = errors.New("operation not supported")
)

// PartialError — часть бэкендов цепочки выполнила операцию, часть нет.
// На путях чтения понижается до успешного результата с диагностикой,
// на путях записи всплывает к вызывающему.
type PartialError struct {
	Err       error    // Err агрегированная причина (go.uber.org/multierr)
	Succeeded []string // Succeeded имена бэкендов, выполнивших операцию
	Failed    []string // Failed имена бэкендов, завершившихся ошибкой
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial failure: succeeded=[%s] failed=[%s]: %v",
		strings.Join(e.Succeeded, ","), strings.Join(e.Failed, ","), e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// AsPartial извлекает PartialError из цепочки ошибок.
func AsPartial(err error) (*PartialError, bool) {
	var pe *PartialError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsTransient reports whether the error belongs to the retryable class:
// backend unavailability and network timeout errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
