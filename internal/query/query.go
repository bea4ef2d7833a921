// Package query holds search, facet and pagination state for a paged list
// and fetches the matching page after a quiet period following each change.
package query

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// DefaultDebounce is the quiet period before a change triggers a fetch.
const DefaultDebounce = 500 * time.Millisecond

// ErrStopped is returned by operations on a stopped Controller.
var ErrStopped = errors.New("query: controller stopped")

// FetchFunc retrieves one page for a request.
type FetchFunc[R any] func(ctx context.Context, req Request) (Page[R], error)

// Options configure a Controller.
type Options[R, V any] struct {
	// Project maps raw rows to view models. Nil means identity; New panics
	// when R is not assignable to V.
	Project  func(R) V
	Debounce time.Duration
	PageSize int
	Facets   *FacetSet

	// OnResult fires after a result is stored. OnError receives failures of
	// debounced fetches; FetchData returns its error to the caller instead.
	// Neither may call FetchData synchronously.
	OnResult func(Result[V])
	OnError  func(error)

	Clock  clock.Clock
	Logger logr.Logger
}

// Controller owns query state for one list view.
type Controller[R, V any] struct {
	fetch    FetchFunc[R]
	project  func(R) V
	debounce time.Duration
	facets   *FacetSet
	onResult func(Result[V])
	onError  func(error)
	clock    clock.Clock
	log      logr.Logger

	mu       sync.Mutex
	params   Params
	result   Result[V]
	inflight int
	issued   uint64
	applied  uint64
	ctx      context.Context
	started  bool
	alive    bool

	// pending debounce timer; gen identifies the latest one.
	timer     clock.Timer
	timerStop chan struct{}
	gen       uint64

	emitMu sync.Mutex
}

// New builds a Controller with page 1 and the configured page size.
func New[R, V any](fetch FetchFunc[R], opts Options[R, V]) *Controller[R, V] {
	project := opts.Project
	if project == nil {
		from, to := reflect.TypeOf((*R)(nil)).Elem(), reflect.TypeOf((*V)(nil)).Elem()
		if !from.AssignableTo(to) {
			panic(fmt.Sprintf("query: Options.Project is required to turn %s rows into %s", from, to))
		}
		project = identity[R, V]
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &Controller[R, V]{
		fetch:    fetch,
		project:  project,
		debounce: debounce,
		facets:   opts.Facets,
		onResult: opts.OnResult,
		onError:  opts.OnError,
		clock:    clk,
		log:      logger,
		params:   Params{Page: 1, PageSize: pageSize},
		alive:    true,
	}
}

func identity[R, V any](r R) V {
	v, _ := any(r).(V)
	return v
}

// Start enables debounced fetching with ctx and schedules the first fetch.
func (c *Controller[R, V]) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return ErrStopped
	}
	c.ctx = ctx
	c.started = true
	c.scheduleLocked()
	return nil
}

// Stop cancels a pending fetch. Responses arriving afterwards are dropped.
func (c *Controller[R, V]) Stop() {
	c.mu.Lock()
	c.alive = false
	c.cancelPendingLocked()
	c.mu.Unlock()

	c.emitMu.Lock()
	c.emitMu.Unlock()
}

// SetSearchParams merges patch into the query state. A change to keywords,
// filters or page size moves back to page 1.
func (c *Controller[R, V]) SetSearchParams(patch Patch) error {
	if err := c.facets.Validate(patch.Filters); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.params.clone()
	reset := false
	if patch.Keywords != nil && *patch.Keywords != next.Keywords {
		next.Keywords = *patch.Keywords
		reset = true
	}
	if patch.Filters != nil && !equalFilters(patch.Filters, next.Filters) {
		next.Filters = cloneFilters(patch.Filters)
		reset = true
	}
	if patch.PageSize != nil && *patch.PageSize > 0 && *patch.PageSize != next.PageSize {
		next.PageSize = *patch.PageSize
		reset = true
	}
	if patch.Page != nil {
		next.Page = max(*patch.Page, 1)
	}
	if reset {
		next.Page = 1
	}
	c.commitLocked(next)
	return nil
}

// HandleFiltersChange replaces the selections of the facets present in
// selections, keeps the others, and moves back to page 1.
func (c *Controller[R, V]) HandleFiltersChange(selections map[string][]string) error {
	if err := c.facets.Validate(selections); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.params.clone()
	if next.Filters == nil {
		next.Filters = make(map[string][]string, len(selections))
	}
	for key, values := range selections {
		next.Filters[key] = append([]string(nil), values...)
	}
	next.Page = 1
	c.commitLocked(next)
	return nil
}

// OnPageChange applies a one-indexed page and page size reported by a
// pagination widget.
func (c *Controller[R, V]) OnPageChange(current, pageSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.params.clone()
	if pageSize > 0 && pageSize != next.PageSize {
		next.PageSize = pageSize
		next.Page = 1
	} else {
		next.Page = max(current, 1)
	}
	c.commitLocked(next)
}

func (c *Controller[R, V]) commitLocked(next Params) {
	if next.equal(c.params) {
		return
	}
	c.params = next
	c.scheduleLocked()
}

// FetchData requests the page for the current params and stores the
// projected result. Fetch errors are returned unchanged and leave the stored
// result alone.
func (c *Controller[R, V]) FetchData(ctx context.Context) (Result[V], error) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return Result[V]{}, ErrStopped
	}
	req := c.params.Request()
	c.issued++
	seq := c.issued
	c.inflight++
	c.mu.Unlock()

	c.log.V(1).Info("query fetch", "request", req.Fields())
	page, err := c.fetch(ctx, req)
	if err != nil {
		c.mu.Lock()
		c.inflight--
		c.mu.Unlock()
		return Result[V]{}, err
	}

	res := Result[V]{
		Rows:  make([]V, 0, len(page.Content)),
		Total: max(page.TotalElements, 0),
	}
	for _, raw := range page.Content {
		res.Rows = append(res.Rows, c.project(raw))
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.inflight--
	apply := c.alive && seq > c.applied
	if apply {
		c.applied = seq
		c.result = res
	}
	c.mu.Unlock()

	if apply && c.onResult != nil {
		c.onResult(res)
	}
	return res, nil
}

// Params returns a copy of the query state.
func (c *Controller[R, V]) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.clone()
}

// Result returns the last stored result.
func (c *Controller[R, V]) Result() Result[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.result
	res.Rows = append([]V(nil), c.result.Rows...)
	return res
}

// Pagination returns the display-facing pagination state.
func (c *Controller[R, V]) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Pagination{
		Current:  c.params.Page,
		PageSize: c.params.PageSize,
		Total:    c.result.Total,
	}
}

// Loading reports whether a fetch is in flight.
func (c *Controller[R, V]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Facets returns the facet set the controller validates against.
func (c *Controller[R, V]) Facets() *FacetSet {
	return c.facets
}

func (c *Controller[R, V]) scheduleLocked() {
	if !c.started || !c.alive {
		return
	}
	c.cancelPendingLocked()

	timer := c.clock.NewTimer(c.debounce)
	stop := make(chan struct{})
	c.timer, c.timerStop = timer, stop
	c.gen++
	gen, ctx := c.gen, c.ctx

	go func() {
		select {
		case <-timer.C():
			c.fire(ctx, gen)
		case <-stop:
		}
	}()
}

func (c *Controller[R, V]) cancelPendingLocked() {
	if c.timer == nil {
		return
	}
	c.timer.Stop()
	close(c.timerStop)
	c.timer, c.timerStop = nil, nil
}

func (c *Controller[R, V]) fire(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if !c.alive || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer, c.timerStop = nil, nil
	c.mu.Unlock()

	_, err := c.FetchData(ctx)
	if err == nil || errors.Is(err, ErrStopped) {
		return
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.mu.Lock()
	alive := c.alive
	c.mu.Unlock()
	if !alive {
		return
	}
	if c.onError != nil {
		c.onError(err)
		return
	}
	c.log.Error(err, "query fetch failed")
}
