package models

// Page is a bounded, ordered slice of a larger result set with position metadata.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"page_number"`
	NumPages    int   `json:"num_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	TotalCount  int64 `json:"total_count"`
}

// Paginator resolves a requested page number against a total count.
type Paginator struct {
	PerPage int
	Total   int64
}

// NumPages returns the number of pages; an empty set still has one page.
func (p Paginator) NumPages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Clamp maps any requested page onto a valid one: below 1 becomes 1 and past
// the end becomes the last page.
func (p Paginator) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if last := p.NumPages(); page > last {
		return last
	}
	return page
}

// Offset returns the row offset of a clamped page.
func (p Paginator) Offset(page int) int {
	return (p.Clamp(page) - 1) * p.PerPage
}

// NewPage assembles a Page for an already clamped page number.
func NewPage[T any](items []T, number int, p Paginator) Page[T] {
	if items == nil {
		items = []T{}
	}
	num := p.NumPages()
	return Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    num,
		HasNext:     number < num,
		HasPrevious: number > 1,
		TotalCount:  p.Total,
	}
}
