package models

// ChangeKind тип изменения, доставляемого подписчикам координатора
type ChangeKind string

const (
	ChangeInserted ChangeKind = "inserted"
	ChangeUpdated  ChangeKind = "updated"
	ChangeRemoved  ChangeKind = "removed"
)

// Change — одно изменение сущности в потоке уведомлений. Порядок доставки
// гарантируется только в пределах одного Identifier.
type Change struct {
	Entity Entity
	Kind   ChangeKind
	// Clock — логическая метка пакета, в котором изменение было
	// опубликовано. Метки из одних часов сравнимы между типами сущностей.
	Clock uint64
}
