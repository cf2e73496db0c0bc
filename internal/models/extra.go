package models

// Extra оборачивает опциональное поле сущности флагом "было ли поле
// запрошено". Различает "отсутствует, потому что не загружали" и
// "отсутствует, потому что пусто" — без этого частичный ответ сервера
// затирал бы ранее загруженные связи при мерже.
type Extra[T any] struct {
	Value     T    `json:"value"`
	Requested bool `json:"requested"`
}

// Requested wraps a value that was actually fetched.
func Requested[T any](v T) Extra[T] {
	return Extra[T]{Value: v, Requested: true}
}

// NotRequested marks a field that was not part of the fetch.
func NotRequested[T any]() Extra[T] {
	return Extra[T]{}
}

// Merge applies the field-level merge rule: a not-requested incoming value
// never overwrites a previously loaded one; a requested value always wins.
func (e Extra[T]) Merge(prev Extra[T]) Extra[T] {
	if e.Requested {
		return e
	}
	return prev
}
