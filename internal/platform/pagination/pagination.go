package pagination

import (
	"math"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps (Page-1)*PageSize within int for any page size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Request describes an offset page with an optional free-text filter.
type Request struct {
	Page     int
	PageSize int
	Search   string
}

func New(page, pageSize int, search string) Request {
	r := Request{Page: page, PageSize: pageSize, Search: strings.TrimSpace(search)}
	return r.Normalize()
}

func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	return r
}

func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

func (r Request) Limit() int {
	return r.PageSize
}

// Meta is returned alongside list results.
type Meta struct {
	Total          int  `json:"total"`
	Page           int  `json:"page"`
	PageSize       int  `json:"pageSize"`
	TotalPages     int  `json:"totalPages"`
	TotalActivos   *int `json:"totalActivos,omitempty"`
	TotalInactivos *int `json:"totalInactivos,omitempty"`
}

func NewMeta(r Request, total int) Meta {
	return Meta{
		Total:      total,
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalPages: TotalPages(total, r.PageSize),
	}
}

// WithStatusCounts attaches active/inactive counters.
func (m Meta) WithStatusCounts(active, inactive int) Meta {
	m.TotalActivos = &active
	m.TotalInactivos = &inactive
	return m
}

func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Page is a list result with its metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}
