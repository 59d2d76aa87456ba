package shared

// Page size bounds for list queries
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter is a list query: paging, ordering, a free-text search and exact-match field filters.
// Repositories whitelist OrderBy and the Filters keys they understand and ignore the rest.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: DefaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  map[string]any{},
	}
}

// Normalize returns the page and page size with defaults applied and the size capped at MaxPageSize
func (f Filter) Normalize() (page, pageSize int) {
	page, pageSize = max(f.Page, 1), f.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return page, min(pageSize, MaxPageSize)
}

// Offset is the number of rows before the normalized page
func (f Filter) Offset() int {
	page, pageSize := f.Normalize()
	return (page - 1) * pageSize
}

// Paginated is one page of a list result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps items with paging metadata
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	pageSize = max(pageSize, 1)
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
