package models

import "time"

// OpKind вид исходящей мутирующей операции
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// OpState состояние операции в очереди запросов.
// Переходы: queued → in_flight → {succeeded | retrying → in_flight | failed}.
type OpState string

const (
	OpStateQueued    OpState = "queued"
	OpStateInFlight  OpState = "in_flight"
	OpStateRetrying  OpState = "retrying"
	OpStateSucceeded OpState = "succeeded"
	OpStateFailed    OpState = "failed"
)

// QueuedOperation — единица исходящей мутации: создаётся координатором при
// принятии записи, изменяется только планировщиком очереди, уничтожается при
// терминальном успехе или неповторяемой ошибке.
type QueuedOperation struct {
	EnqueuedAt time.Time  `json:"enqueued_at"`
	EntityType string     `json:"entity_type"`
	Kind       OpKind     `json:"kind"`
	State      OpState    `json:"state"`
	Payload    []byte     `json:"payload"`
	ID         Identifier `json:"id"`
	Seq        uint64     `json:"seq"`     // Seq порядковый номер, задаёт порядок исполнения
	Retries    int        `json:"retries"` // Retries количество уже выполненных повторов
}

// Clone создаёт глубокую копию операции.
func (op *QueuedOperation) Clone() *QueuedOperation {
	cp := *op
	cp.Payload = make([]byte, len(op.Payload))
	copy(cp.Payload, op.Payload)
	return &cp
}
