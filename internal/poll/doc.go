// Package poll keeps a view's data fresh by running a fetch function on a
// repeating schedule.
//
// # Scheduling
//
// The schedule is edge-triggered: the next fetch is armed Interval after the
// previous one completes, whether it succeeded or failed. A full cycle
// therefore takes Interval plus the fetch duration, and fetches never
// overlap. Every fetch, automatic or manual, runs on the controller's own
// goroutine.
//
//	Start ──> fetch ──> wait Interval ──> fetch ──> wait Interval ──> ...
//	              ^                 |
//	              └── Refresh ──────┘  (cancels the wait, fetches now)
//
// # State
//
// State carries the last good payload, a loading flag, the last error and
// whether automatic polling is enabled. Loading is set and Err cleared before
// every fetch. A failed fetch records Err and leaves Data untouched, so views
// can keep showing stale data next to an error marker.
//
// There is no backoff and no retry limit: a fetch that keeps failing is
// retried every Interval until the controller is paused or stopped.
//
// # Teardown
//
// Stop cancels the pending timer and the context passed to an in-flight
// fetch, and flips a liveness flag. A fetch that returns after Stop does not
// write state or fire callbacks.
//
// # Usage
//
//	ctrl := poll.New(client.FetchBoard, poll.Options[Board]{
//		Interval: 5 * time.Second,
//		OnChange: func(s poll.State[Board]) { render(s) },
//	})
//	if err := ctrl.Start(ctx); err != nil {
//		return err
//	}
//	defer ctrl.Stop()
//
//	ctrl.SetEnabled(false) // pause
//	board, err := ctrl.Refresh(ctx)
package poll
