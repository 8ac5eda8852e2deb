package types

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest returns a normalized request.
func NewPageRequest(page, pageSize int) PageRequest {
	return PageRequest{Page: page, PageSize: pageSize}.Normalize()
}

// Normalize applies defaults and silently clamps the page size to MaxPageSize.
// It is idempotent.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// Page is one page of results plus the metadata derived from the same filter.
type Page[T any] struct {
	Data []T
	Meta PageMeta
}

func NewPage[T any](data []T, req PageRequest, totalItems int64) *Page[T] {
	if data == nil {
		data = []T{}
	}
	req = req.Normalize()
	return &Page[T]{
		Data: data,
		Meta: PageMeta{
			Page:       req.Page,
			PageSize:   req.PageSize,
			TotalItems: totalItems,
			TotalPages: TotalPages(totalItems, req.PageSize),
		},
	}
}

// TotalPages is ceil(totalItems / pageSize).
func TotalPages(totalItems int64, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 0
	}
	return int((totalItems + int64(pageSize) - 1) / int64(pageSize))
}
