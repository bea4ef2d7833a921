// Package catalog binds each pipeline resource to its facets, its table
// columns and a projection into a shared row view model.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/query"
)

// Row is the view model every resource projects into.
type Row struct {
	ID     string
	Cells  []string
	Status query.FacetOption
}

// Column describes one table column. Width is a hint in cells; zero lets the
// renderer decide.
type Column struct {
	Title string
	Width int
}

// Source is the type-erased query controller for one resource.
// *query.Controller[R, Row] satisfies it for every raw row type R.
type Source interface {
	Start(ctx context.Context) error
	Stop()
	SetSearchParams(patch query.Patch) error
	HandleFiltersChange(selections map[string][]string) error
	OnPageChange(current, pageSize int)
	FetchData(ctx context.Context) (query.Result[Row], error)
	Params() query.Params
	Result() query.Result[Row]
	Pagination() query.Pagination
	Loading() bool
	Facets() *query.FacetSet
}

var _ Source = (*query.Controller[datamate.Dataset, Row])(nil)

// Settings configure the controller behind a Source.
type Settings struct {
	PageSize int
	Debounce time.Duration
	Clock    clock.Clock
	Logger   logr.Logger

	OnResult func(query.Result[Row])
	OnError  func(error)
}

// Resource describes one browsable API collection.
type Resource struct {
	Key     string
	Title   string
	Columns []Column
	Facets  *query.FacetSet

	open func(datamate.Lister, Settings) Source
}

// Open builds a Source reading from lister. The Source is not started.
func (r Resource) Open(lister datamate.Lister, s Settings) Source {
	return r.open(lister, s)
}

// StatusFacet returns the facet used to colour a row's status cell.
func (r Resource) StatusFacet() (query.Facet, bool) {
	facets := r.Facets.Facets()
	if len(facets) == 0 {
		return query.Facet{}, false
	}
	return facets[0], true
}

func bind[R any](
	fetch func(datamate.Lister) query.FetchFunc[R],
	project func(R) Row,
	facets *query.FacetSet,
) func(datamate.Lister, Settings) Source {
	return func(lister datamate.Lister, s Settings) Source {
		return query.New(fetch(lister), query.Options[R, Row]{
			Project:  project,
			Debounce: s.Debounce,
			PageSize: s.PageSize,
			Facets:   facets,
			OnResult: s.OnResult,
			OnError:  s.OnError,
			Clock:    s.Clock,
			Logger:   s.Logger,
		})
	}
}

// All returns the resources in tab order.
func All() []Resource {
	return append([]Resource(nil), resources...)
}

// Lookup finds a resource by key, ignoring case.
func Lookup(key string) (Resource, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, r := range resources {
		if r.Key == key {
			return r, true
		}
	}
	return Resource{}, false
}

// Keys lists resource keys in tab order.
func Keys() []string {
	keys := make([]string, len(resources))
	for i, r := range resources {
		keys[i] = r.Key
	}
	return keys
}
