package models

import (
	"fmt"
	"sort"
	"strings"
)

// FilterOp оператор сравнения в предикате запроса
type FilterOp string

const (
	FilterEq       FilterOp = "eq"
	FilterNe       FilterOp = "ne"
	FilterContains FilterOp = "contains"
	FilterGt       FilterOp = "gt"
	FilterLt       FilterOp = "lt"
)

// Filter — узел дерева предикатов. Либо листовое сравнение
// (Field/Op/Value), либо конъюнкция And, либо дизъюнкция Or.
type Filter struct {
	Field string   `json:"field,omitempty"`
	Op    FilterOp `json:"op,omitempty"`
	Value string   `json:"value,omitempty"`
	And   []Filter `json:"and,omitempty"`
	Or    []Filter `json:"or,omitempty"`
}

// Order задаёт сортировку результата по одному полю.
type Order struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Query — неизменяемый запрос к координатору: прямая выборка по
// идентификаторам или поиск по предикату, плюс сортировка, пагинация и
// список связей, которые обязаны быть загружены. Key() делает запрос
// пригодным в качестве ключа дедупликации и подписки.
type Query struct {
	IDs     []Identifier `json:"ids,omitempty"`
	Filter  *Filter      `json:"filter,omitempty"`
	OrderBy []Order      `json:"order_by,omitempty"`
	Limit   int          `json:"limit,omitempty"`
	Offset  int          `json:"offset,omitempty"`
	Extras  []int        `json:"extras,omitempty"` // Extras индексы связей, которые должны быть загружены
}

// ByIDs constructs a direct multi-id lookup query.
func ByIDs(ids ...Identifier) *Query {
	return &Query{IDs: ids}
}

// WantsExtra reports whether the relation index is in the requested extras.
func (q *Query) WantsExtra(index int) bool {
	if q == nil {
		return false
	}
	for _, e := range q.Extras {
		if e == index {
			return true
		}
	}
	return false
}

// Key returns a canonical string representation of the query, stable across
// equivalent queries. Used as the in-flight dedup key and for matching
// query-bound subscriptions.
func (q *Query) Key() string {
	if q == nil {
		return ""
	}
	var b strings.Builder
	if len(q.IDs) > 0 {
		b.WriteString("ids:")
		for _, id := range q.IDs {
			b.WriteString(id.Key())
			b.WriteByte(',')
		}
	}
	if q.Filter != nil {
		b.WriteString("f:")
		writeFilterKey(&b, q.Filter)
	}
	for _, o := range q.OrderBy {
		fmt.Fprintf(&b, "o:%s/%t;", o.Field, o.Desc)
	}
	if q.Limit != 0 || q.Offset != 0 {
		fmt.Fprintf(&b, "p:%d/%d;", q.Limit, q.Offset)
	}
	if len(q.Extras) > 0 {
		extras := make([]int, len(q.Extras))
		copy(extras, q.Extras)
		sort.Ints(extras)
		b.WriteString("x:")
		for _, e := range extras {
			fmt.Fprintf(&b, "%d,", e)
		}
	}
	return b.String()
}

func writeFilterKey(b *strings.Builder, f *Filter) {
	if f == nil {
		return
	}
	if f.Field != "" {
		fmt.Fprintf(b, "(%s %s %s)", f.Field, f.Op, f.Value)
	}
	if len(f.And) > 0 {
		b.WriteString("and[")
		for i := range f.And {
			writeFilterKey(b, &f.And[i])
		}
		b.WriteByte(']')
	}
	if len(f.Or) > 0 {
		b.WriteString("or[")
		for i := range f.Or {
			writeFilterKey(b, &f.Or[i])
		}
		b.WriteByte(']')
	}
}

// SortEntities стабильно сортирует результат поиска по списку полей
// запроса, сравнивая строковые значения из схемы.
func SortEntities(d *Descriptor, entities []Entity, orderBy []Order) {
	if len(orderBy) == 0 {
		return
	}
	sort.SliceStable(entities, func(i, j int) bool {
		for _, o := range orderBy {
			vi, _ := d.Field(entities[i], o.Field)
			vj, _ := d.Field(entities[j], o.Field)
			if vi == vj {
				continue
			}
			if o.Desc {
				return vi > vj
			}
			return vi < vj
		}
		return false
	})
}

// Paginate применяет Offset/Limit запроса к отсортированному результату.
func Paginate(entities []Entity, limit, offset int) []Entity {
	if offset > 0 {
		if offset >= len(entities) {
			return nil
		}
		entities = entities[offset:]
	}
	if limit > 0 && limit < len(entities) {
		entities = entities[:limit]
	}
	return entities
}

// EvalFilter вычисляет дерево предикатов над значениями полей сущности,
// которые поставляет fields (имя поля → строковое значение).
func EvalFilter(f *Filter, fields func(name string) (string, bool)) bool {
	if f == nil {
		return true
	}
	if len(f.And) > 0 {
		for i := range f.And {
			if !EvalFilter(&f.And[i], fields) {
				return false
			}
		}
		return true
	}
	if len(f.Or) > 0 {
		for i := range f.Or {
			if EvalFilter(&f.Or[i], fields) {
				return true
			}
		}
		return false
	}
	val, ok := fields(f.Field)
	if !ok {
		return false
	}
	switch f.Op {
	case FilterEq:
		return val == f.Value
	case FilterNe:
		return val != f.Value
	case FilterContains:
		return strings.Contains(val, f.Value)
	case FilterGt:
		return val > f.Value
	case FilterLt:
		return val < f.Value
	}
	return false
}
