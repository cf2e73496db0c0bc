// Package clock предоставляет логические часы Лампорта. Координаторы
// помечают ими пакеты уведомлений: часы, разделяемые между координаторами,
// дают наблюдателям порядок событий между типами сущностей.
package clock

import (
	"sync"

	"github.com/google/uuid"
)

// Lamport — монотонный логический счётчик с идентификатором узла.
type Lamport struct {
	nodeID  string
	counter uint64
	mu      sync.Mutex
}

// New создает часы с новым уникальным идентификатором узла.
func New() *Lamport {
	return &Lamport{nodeID: uuid.New().String()}
}

// NewWithNodeID создает часы с заданным идентификатором узла.
// Используется в тестах и при восстановлении состояния после рестарта.
func NewWithNodeID(nodeID string) *Lamport {
	return &Lamport{nodeID: nodeID}
}

// Tick увеличивает счетчик и возвращает новое значение.
// Вызывается при каждом локальном событии (постановка операции в очередь,
// локальный мерж).
func (l *Lamport) Tick() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counter++
	return l.counter
}

// Observe обновляет счетчик по полученной удаленной метке:
// counter = max(counter, remote) + 1.
func (l *Lamport) Observe(remote uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if remote > l.counter {
		l.counter = remote
	}
	l.counter++
	return l.counter
}

// Current возвращает текущее значение счетчика без изменения.
func (l *Lamport) Current() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.counter
}

// Restore устанавливает счетчик в заданное значение, если оно больше
// текущего. Вызывается при восстановлении очереди из durable-хранилища.
func (l *Lamport) Restore(counter uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if counter > l.counter {
		l.counter = counter
	}
}

// NodeID возвращает идентификатор узла.
func (l *Lamport) NodeID() string {
	return l.nodeID
}
