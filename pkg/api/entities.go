package api

import "time"

// EntityPayload — одна сущность на проводе. Полезная нагрузка непрозрачна
// для сервера: кодек определяется схемой типа на клиенте.
type EntityPayload struct {
	UpdatedAt time.Time `json:"updated_at"`
	RemoteID  string    `json:"remote_id"`
	Type      string    `json:"type"`
	Data      []byte    `json:"data"`
	Version   uint64    `json:"version"`
	Deleted   bool      `json:"deleted"`
}

// GetRequest — пакетная выборка сущностей типа по remote-идентификаторам.
type GetRequest struct {
	Type      string   `json:"type"`
	RemoteIDs []string `json:"remote_ids"`
}

// GetResponse содержит найденные сущности; отсутствующие идентификаторы
// просто не входят в ответ.
type GetResponse struct {
	Entities []EntityPayload `json:"entities"`
}

// SearchRequest — выгрузка сущностей типа, изменённых после версии Since.
// Предикаты вычисляются на клиенте: сервер не знает полей сущностей.
type SearchRequest struct {
	Type  string `json:"type"`
	Since uint64 `json:"since,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse содержит выгруженные сущности и текущую версию сервера.
type SearchResponse struct {
	Entities       []EntityPayload `json:"entities"`
	CurrentVersion uint64          `json:"current_version"`
}

// MutateRequest — одна мутирующая операция. Очередь запросов клиента
// сериализует операции по идентификатору, поэтому запрос единичный.
type MutateRequest struct {
	Kind        string `json:"kind"` // "create" | "update" | "delete"
	Type        string `json:"type"`
	LocalID     string `json:"local_id"`            // локальный ключ клиента (для remap при create)
	RemoteID    string `json:"remote_id,omitempty"` // обязателен для update/delete
	BaseVersion uint64 `json:"base_version,omitempty"`
	Data        []byte `json:"data,omitempty"`
}

// MutateResponse — результат мутации. Для create сервер назначает
// RemoteID; клиент обязан перенести его в свой Identifier.
type MutateResponse struct {
	LocalID  string `json:"local_id"`
	RemoteID string `json:"remote_id"`
	Version  uint64 `json:"version"`
}
