// Package graph реализует разрешение графа связей: обход в ширину по
// рёбрам между типами сущностей через их координаторы. Посещённые
// идентификаторы отслеживаются, поэтому циклы в графе связей безопасны
// и ни один идентификатор не загружается дважды за один проход.
package graph

import (
	"sort"

	"github.com/iudanet/entsync/internal/models"
)

// Graph — результат одного прохода разрешения: сущности по типам плюс
// выделенный набор корней. Граф только растёт в течение прохода.
type Graph struct {
	roots []models.Identifier
	nodes map[string]map[string]models.Entity
}

func newGraph(roots []models.Identifier) *Graph {
	return &Graph{
		roots: roots,
		nodes: make(map[string]map[string]models.Entity),
	}
}

// Roots возвращает идентификаторы корневых сущностей.
func (g *Graph) Roots() []models.Identifier {
	out := make([]models.Identifier, len(g.roots))
	copy(out, g.roots)
	return out
}

// Entity возвращает сущность типа typ по идентификатору.
func (g *Graph) Entity(typ string, id models.Identifier) (models.Entity, bool) {
	byID, ok := g.nodes[typ]
	if !ok {
		return nil, false
	}
	e, ok := byID[id.Key()]
	return e, ok
}

// Entities возвращает все сущности типа в стабильном порядке ключей.
func (g *Graph) Entities(typ string) []models.Entity {
	byID, ok := g.nodes[typ]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(byID))
	for k := range byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.Entity, 0, len(keys))
	for _, k := range keys {
		out = append(out, byID[k])
	}
	return out
}

// Types возвращает типы, представленные в графе.
func (g *Graph) Types() []string {
	out := make([]string, 0, len(g.nodes))
	for t := range g.nodes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Size возвращает общее число сущностей в графе.
func (g *Graph) Size() int {
	n := 0
	for _, byID := range g.nodes {
		n += len(byID)
	}
	return n
}

// Contains сообщает, входит ли идентификатор в граф.
func (g *Graph) Contains(id models.Identifier) bool {
	for _, byID := range g.nodes {
		if _, ok := byID[id.Key()]; ok {
			return true
		}
	}
	return false
}

// add вставляет сущность слиянием: повторная вставка того же
// идентификатора замещает сущность, но граф никогда не уменьшается.
func (g *Graph) add(typ string, e models.Entity) {
	byID, ok := g.nodes[typ]
	if !ok {
		byID = make(map[string]models.Entity)
		g.nodes[typ] = byID
	}
	byID[e.Ident().Key()] = e
}
