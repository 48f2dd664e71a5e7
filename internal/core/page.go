package core

// Page is one server-side page of a listing.
type Page[T any] struct {
	Data       []T `json:"data"`
	TotalCount int `json:"total_count"`
	PageSize   int `json:"page_size"`
	Number     int `json:"-"`
}

// TotalPages is ceil(TotalCount / PageSize), or 0 when either is not positive.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// OutOfRange reports whether Number lies past the last page. Page 1 of an
// empty listing is in range.
func (p Page[T]) OutOfRange() bool {
	return p.Number > 1 && p.Number > p.TotalPages()
}

// ClampPage bounds page into [1, max(total, 1)].
func ClampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if total > 0 && page > total {
		return total
	}
	return page
}
