package app

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/poll"
	"github.com/five82/datamate/internal/query"
	"github.com/five82/datamate/internal/state"
)

const defaultBoardSize = 50

// BoardFetcher is the cleansing endpoint the board poller reads.
type BoardFetcher interface {
	ListCleansingTasks(ctx context.Context, req query.Request) (query.Page[datamate.CleansingTask], error)
}

// BoardOptions configure NewBoardPoller.
type BoardOptions struct {
	Interval time.Duration
	PageSize int
	Clock    clock.Clock
	Logger   logr.Logger

	// OnUpdate receives the store snapshot after each fetch outcome is
	// recorded. It runs on the polling goroutine.
	OnUpdate func(state.Snapshot)
}

// BoardPoller keeps the store in step with the latest cleansing tasks.
type BoardPoller = poll.Controller[query.Page[datamate.CleansingTask]]

// NewBoardPoller returns a poller that writes every outcome into store. It
// does nothing until Start.
func NewBoardPoller(client BoardFetcher, store *state.Store, opts BoardOptions) *BoardPoller {
	size := opts.PageSize
	if size <= 0 {
		size = defaultBoardSize
	}
	req := query.Params{Page: 1, PageSize: size}.Request()

	fetch := func(ctx context.Context) (query.Page[datamate.CleansingTask], error) {
		return client.ListCleansingTasks(ctx, req)
	}
	notify := func() {
		if opts.OnUpdate != nil {
			opts.OnUpdate(store.Snapshot())
		}
	}

	return poll.New(fetch, poll.Options[query.Page[datamate.CleansingTask]]{
		Interval: opts.Interval,
		OnSuccess: func(page query.Page[datamate.CleansingTask]) {
			store.Update(&page, nil)
			notify()
		},
		OnError: func(err error) {
			store.Update(nil, err)
			notify()
		},
		OnChange: func(s poll.State[query.Page[datamate.CleansingTask]]) {
			store.SetActivity(s.Loading, s.Enabled, s.Interval)
		},
		Clock:  opts.Clock,
		Logger: opts.Logger,
	})
}
