// Package catalog определяет демонстрационную схему сущностей (фильмы,
// жанры, персоны), поверх которой работают CLI-клиент и интеграционные
// тесты движка. Движок не знает об этих типах: вся связь идёт через
// models.Descriptor.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iudanet/entsync/internal/models"
)

// Теги типов сущностей
const (
	TypeMovie  = "movie"
	TypeGenre  = "genre"
	TypePerson = "person"
)

// Индексы связей
const (
	MovieRelGenres = 0 // movie → genres
	MovieRelCast   = 1 // movie → persons
	GenreRelMovies = 0 // genre → movies (обратное ребро, образует цикл)
)

// Movie — фильм со связями на жанры и актёрский состав.
// Связи хранятся как Extra: отсутствие списка жанров означает
// "не запрашивали", а не "жанров нет".
type Movie struct {
	ID      models.Identifier                 `json:"id"`
	Title   string                            `json:"title"`
	Year    int                               `json:"year"`
	Genres  models.Extra[[]models.Identifier] `json:"genres"`
	Cast    models.Extra[[]models.Identifier] `json:"cast"`
	Version uint64                            `json:"version"`
}

func (m Movie) Ident() models.Identifier { return m.ID }
func (m Movie) EntityType() string       { return TypeMovie }

// Genre — жанр с обратной связью на фильмы.
type Genre struct {
	ID      models.Identifier                 `json:"id"`
	Name    string                            `json:"name"`
	Movies  models.Extra[[]models.Identifier] `json:"movies"`
	Version uint64                            `json:"version"`
}

func (g Genre) Ident() models.Identifier { return g.ID }
func (g Genre) EntityType() string       { return TypeGenre }

// Person — участник съёмочной группы.
type Person struct {
	ID      models.Identifier `json:"id"`
	Name    string            `json:"name"`
	Version uint64            `json:"version"`
}

func (p Person) Ident() models.Identifier { return p.ID }
func (p Person) EntityType() string       { return TypePerson }

// MovieDescriptor возвращает контракт производителя для типа movie.
func MovieDescriptor() *models.Descriptor {
	return &models.Descriptor{
		Type: TypeMovie,
		Relations: []models.Relation{
			{Index: MovieRelGenres, Name: "genres", Target: TypeGenre, Required: true},
			{Index: MovieRelCast, Name: "cast", Target: TypePerson, Required: false},
		},
		Encode: func(e models.Entity) ([]byte, error) {
			return json.Marshal(e.(Movie))
		},
		Decode: func(data []byte) (models.Entity, error) {
			var m Movie
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("failed to decode movie: %w", err)
			}
			return m, nil
		},
		Merge: func(existing, incoming models.Entity) models.Entity {
			in := incoming.(Movie)
			if existing == nil {
				return in
			}
			prev := existing.(Movie)
			in.Genres = in.Genres.Merge(prev.Genres)
			in.Cast = in.Cast.Merge(prev.Cast)
			if in.Version < prev.Version {
				in.Version = prev.Version
			}
			return in
		},
		Field: func(e models.Entity, name string) (string, bool) {
			m := e.(Movie)
			switch name {
			case "title":
				return m.Title, true
			case "year":
				return strconv.Itoa(m.Year), true
			}
			return "", false
		},
		Related: func(e models.Entity, index int) []models.Identifier {
			m := e.(Movie)
			switch index {
			case MovieRelGenres:
				return m.Genres.Value
			case MovieRelCast:
				return m.Cast.Value
			}
			return nil
		},
		HasExtra: func(e models.Entity, index int) bool {
			m := e.(Movie)
			switch index {
			case MovieRelGenres:
				return m.Genres.Requested
			case MovieRelCast:
				return m.Cast.Requested
			}
			return false
		},
		WithIdent: func(e models.Entity, id models.Identifier) models.Entity {
			m := e.(Movie)
			m.ID = id
			return m
		},
	}
}

// GenreDescriptor возвращает контракт производителя для типа genre.
func GenreDescriptor() *models.Descriptor {
	return &models.Descriptor{
		Type: TypeGenre,
		Relations: []models.Relation{
			{Index: GenreRelMovies, Name: "movies", Target: TypeMovie, Required: false},
		},
		Encode: func(e models.Entity) ([]byte, error) {
			return json.Marshal(e.(Genre))
		},
		Decode: func(data []byte) (models.Entity, error) {
			var g Genre
			if err := json.Unmarshal(data, &g); err != nil {
				return nil, fmt.Errorf("failed to decode genre: %w", err)
			}
			return g, nil
		},
		Merge: func(existing, incoming models.Entity) models.Entity {
			in := incoming.(Genre)
			if existing == nil {
				return in
			}
			prev := existing.(Genre)
			in.Movies = in.Movies.Merge(prev.Movies)
			if in.Version < prev.Version {
				in.Version = prev.Version
			}
			return in
		},
		Field: func(e models.Entity, name string) (string, bool) {
			g := e.(Genre)
			if name == "name" {
				return g.Name, true
			}
			return "", false
		},
		Related: func(e models.Entity, index int) []models.Identifier {
			g := e.(Genre)
			if index == GenreRelMovies {
				return g.Movies.Value
			}
			return nil
		},
		HasExtra: func(e models.Entity, index int) bool {
			g := e.(Genre)
			return index == GenreRelMovies && g.Movies.Requested
		},
		WithIdent: func(e models.Entity, id models.Identifier) models.Entity {
			g := e.(Genre)
			g.ID = id
			return g
		},
	}
}

// PersonDescriptor возвращает контракт производителя для типа person.
func PersonDescriptor() *models.Descriptor {
	return &models.Descriptor{
		Type: TypePerson,
		Encode: func(e models.Entity) ([]byte, error) {
			return json.Marshal(e.(Person))
		},
		Decode: func(data []byte) (models.Entity, error) {
			var p Person
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, fmt.Errorf("failed to decode person: %w", err)
			}
			return p, nil
		},
		Merge: func(existing, incoming models.Entity) models.Entity {
			in := incoming.(Person)
			if existing != nil {
				prev := existing.(Person)
				if in.Version < prev.Version {
					in.Version = prev.Version
				}
			}
			return in
		},
		Field: func(e models.Entity, name string) (string, bool) {
			p := e.(Person)
			if name == "name" {
				return p.Name, true
			}
			return "", false
		},
		Related: func(e models.Entity, index int) []models.Identifier {
			return nil
		},
		HasExtra: func(e models.Entity, index int) bool {
			return false
		},
		WithIdent: func(e models.Entity, id models.Identifier) models.Entity {
			p := e.(Person)
			p.ID = id
			return p
		},
	}
}

// Descriptors возвращает все дескрипторы каталога, индексированные тегом типа.
func Descriptors() map[string]*models.Descriptor {
	return map[string]*models.Descriptor{
		TypeMovie:  MovieDescriptor(),
		TypeGenre:  GenreDescriptor(),
		TypePerson: PersonDescriptor(),
	}
}
