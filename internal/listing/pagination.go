// Package listing — постраничная выдача списков API.
package listing

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page — одна страница выдачи.
type Page[T any] struct {
	Items    []T  `json:"results"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_previous"`
	Total    int  `json:"count"`
}

// Normalize приводит номер и размер страницы к допустимым значениям.
func Normalize(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

// Paginate режет уже отсортированный срез; page нумеруется с 1.
// Страница за пределами выдачи пустая, но с корректным Total.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	page, pageSize = Normalize(page, pageSize)
	total := len(items)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	out := items[start:end]
	if out == nil {
		out = []T{}
	}

	return Page[T]{
		Items:    out,
		Page:     page,
		PageSize: pageSize,
		HasNext:  end < total,
		HasPrev:  page > 1,
		Total:    total,
	}
}

// Map переносит метаданные страницы на другой тип элементов.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, fn(it))
	}
	return Page[U]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}
