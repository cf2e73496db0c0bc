package models

import "time"

// EntityRecord — серверная запись сущности. Полезная нагрузка Data
// непрозрачна для сервера: схему знает только клиент. Version —
// значение per-user счётчика версий на момент последней записи,
// по нему клиенты выгружают инкрементальные изменения.
type EntityRecord struct {
	RemoteID  string    // серверный идентификатор (UUID)
	UserID    string    // владелец записи
	Type      string    // логический тип сущности
	Data      []byte    // сериализованная сущность
	Version   uint64    // версия последней записи
	Deleted   bool      // tombstone мягкого удаления
	CreatedAt time.Time // время создания
	UpdatedAt time.Time // время последней записи
}
