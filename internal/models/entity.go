package models

// Entity — неизменяемое значение, идентифицируемое Identifier и помеченное
// тегом типа сущности. Связи с другими сущностями хранятся как Identifier,
// а не как вложенные объекты: владельцем связанного объекта всегда остаётся
// координатор его типа.
type Entity interface {
	// Ident returns the identifier the entity is keyed by
	Ident() Identifier
	// EntityType returns the entity-type tag ("movie", "genre", ...)
	EntityType() string
}

// Relation описывает одно ребро связей в схеме типа сущности.
type Relation struct {
	Name     string // Name имя связи ("genres", "cast")
	Target   string // Target тег типа сущности на другом конце ребра
	Index    int    // Index позиция связи в схеме типа
	Required bool   // Required обязательность ребра при разрешении графа
}

// Descriptor — контракт производителя типа сущности (генерируемый доменный
// слой). Движок никогда не заглядывает в конкретные поля сущности: кодек,
// мерж и вычисление связей поставляются схемой.
type Descriptor struct {
	// Type тег типа сущности, уникален в рамках реестра
	Type string

	// Relations список рёбер связей этого типа в порядке индексов
	Relations []Relation

	// Encode сериализует сущность для durable/remote хранения
	Encode func(e Entity) ([]byte, error)

	// Decode восстанавливает сущность из сериализованного представления
	Decode func(data []byte) (Entity, error)

	// Merge сливает входящую сущность с ранее сохранённой по правилам
	// Extra-полей. existing может быть nil — тогда возвращается incoming.
	Merge func(existing, incoming Entity) Entity

	// Field возвращает строковое значение поля сущности по имени.
	// Используется при вычислении предикатов запроса и сортировке.
	Field func(e Entity, name string) (string, bool)

	// Related возвращает идентификаторы, на которые ссылается ребро index.
	// Пустой срез для не загруженного (not requested) ребра.
	Related func(e Entity, index int) []Identifier

	// HasExtra сообщает, загружено ли extra-поле с данным индексом.
	// Слои хранения используют это, чтобы не отдавать сущность без
	// запрошенных связей: такой запрос обязан провалиться глубже по цепочке.
	HasExtra func(e Entity, index int) bool

	// WithIdent возвращает копию сущности с заменённым идентификатором.
	// Используется при подтверждении сервером локально созданного объекта.
	WithIdent func(e Entity, id Identifier) Entity
}

// Matches проверяет сущность на соответствие предикату запроса по схеме d.
func Matches(d *Descriptor, e Entity, q *Query) bool {
	if q == nil {
		return true
	}
	return EvalFilter(q.Filter, func(name string) (string, bool) {
		return d.Field(e, name)
	})
}

// RelationByName ищет ребро по имени. Второе значение false, если ребра нет.
func (d *Descriptor) RelationByName(name string) (Relation, bool) {
	for _, rel := range d.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}
