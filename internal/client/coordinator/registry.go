package coordinator

import (
	"fmt"

	"go.uber.org/multierr"
)

// Registry — неизменяемый после создания реестр координаторов по тегу
// типа. Резолвер графа находит через него владельца каждого ребра.
type Registry struct {
	coords map[string]*Coordinator
}

// NewRegistry собирает реестр. Два координатора одного типа — ошибка
// конфигурации.
func NewRegistry(coords ...*Coordinator) (*Registry, error) {
	m := make(map[string]*Coordinator, len(coords))
	for _, c := range coords {
		if _, dup := m[c.Type()]; dup {
			return nil, fmt.Errorf("duplicate coordinator for type %q", c.Type())
		}
		m[c.Type()] = c
	}
	return &Registry{coords: m}, nil
}

// For возвращает координатор типа entityType.
func (r *Registry) For(entityType string) (*Coordinator, bool) {
	c, ok := r.coords[entityType]
	return c, ok
}

// All возвращает все координаторы реестра.
func (r *Registry) All() []*Coordinator {
	out := make([]*Coordinator, 0, len(r.coords))
	for _, c := range r.coords {
		out = append(out, c)
	}
	return out
}

// Close закрывает все координаторы, собирая ошибки.
func (r *Registry) Close() error {
	var err error
	for _, c := range r.coords {
		err = multierr.Append(err, c.Close())
	}
	return err
}
