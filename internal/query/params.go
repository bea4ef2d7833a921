package query

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	// AllValue is the facet value meaning "no filter".
	AllValue = "all"

	DefaultPageSize = 10
)

// Params is the user-adjustable query state. Page is one-indexed.
type Params struct {
	Keywords string
	Filters  map[string][]string
	Page     int
	PageSize int
}

// Patch is a partial update for SetSearchParams. Nil fields are left alone;
// a non-nil Filters replaces the whole filter map.
type Patch struct {
	Keywords *string
	Filters  map[string][]string
	Page     *int
	PageSize *int
}

// Keywords returns a Patch that sets the keywords.
func Keywords(s string) Patch { return Patch{Keywords: &s} }

// PageTo returns a Patch that moves to a one-indexed page.
func PageTo(page int) Patch { return Patch{Page: &page} }

// PageSize returns a Patch that changes the page size.
func PageSize(size int) Patch { return Patch{PageSize: &size} }

func (p Params) clone() Params {
	p.Filters = cloneFilters(p.Filters)
	return p
}

func (p Params) equal(o Params) bool {
	return p.Keywords == o.Keywords &&
		p.Page == o.Page &&
		p.PageSize == o.PageSize &&
		equalFilters(p.Filters, o.Filters)
}

// Request builds the server request for p. Only the first selected value of
// each facet is sent, and AllValue is omitted.
func (p Params) Request() Request {
	filters := make(map[string]string, len(p.Filters))
	for key, values := range p.Filters {
		if len(values) == 0 {
			continue
		}
		v := strings.TrimSpace(values[0])
		if v == "" || v == AllValue {
			continue
		}
		filters[key] = v
	}
	page := p.Page - 1
	if page < 0 {
		page = 0
	}
	return Request{
		Keywords: p.Keywords,
		Page:     page,
		Size:     p.PageSize,
		Filters:  filters,
	}
}

// Request is the paged query sent to the server. Page is zero-indexed.
type Request struct {
	Keywords string
	Page     int
	Size     int
	Filters  map[string]string
}

// Fields flattens the request into a single payload with facets as
// top-level keys.
func (r Request) Fields() map[string]any {
	out := map[string]any{
		"keywords": r.Keywords,
		"page":     r.Page,
		"size":     r.Size,
	}
	for k, v := range r.Filters {
		out[k] = v
	}
	return out
}

// Values encodes the request as URL query parameters. Empty keywords are
// left out.
func (r Request) Values() url.Values {
	values := url.Values{}
	if kw := strings.TrimSpace(r.Keywords); kw != "" {
		values.Set("keywords", kw)
	}
	values.Set("page", strconv.Itoa(r.Page))
	values.Set("size", strconv.Itoa(r.Size))
	keys := make([]string, 0, len(r.Filters))
	for k := range r.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		values.Set(k, r.Filters[k])
	}
	return values
}

// Page mirrors the server's paged response.
type Page[R any] struct {
	Content       []R `json:"content"`
	TotalElements int `json:"totalElements"`
}

// Result is a page after projection.
type Result[V any] struct {
	Rows  []V
	Total int
}

// Pagination is the display-facing pagination state. Current is one-indexed.
type Pagination struct {
	Current  int
	PageSize int
	Total    int
}

// TotalPages returns the page count, at least 1.
func (p Pagination) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasNext reports whether a page exists after Current.
func (p Pagination) HasNext() bool {
	return p.Current < p.TotalPages()
}

func cloneFilters(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

func equalFilters(a, b map[string][]string) bool {
	return maps.EqualFunc(a, b, slices.Equal[[]string])
}
