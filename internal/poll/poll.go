package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// DefaultInterval is the delay between polls when Options.Interval is zero.
const DefaultInterval = 5 * time.Second

var (
	ErrNotStarted     = errors.New("poll: controller not started")
	ErrAlreadyStarted = errors.New("poll: controller already started")
	ErrStopped        = errors.New("poll: controller stopped")
)

// FetchFunc retrieves the latest payload.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is the observable state of a Controller.
type State[T any] struct {
	Data        T
	HasData     bool
	Loading     bool
	Err         error
	Enabled     bool
	Interval    time.Duration
	LastUpdated time.Time
}

// Options configure a Controller. The zero value polls every DefaultInterval,
// starting with an immediate fetch.
type Options[T any] struct {
	Interval time.Duration
	// StartPaused starts the controller with automatic polling disabled.
	StartPaused bool
	// SkipInitial waits one Interval before the first fetch.
	SkipInitial bool

	// Callbacks run on the polling goroutine. They must not call Stop or
	// Refresh on the same controller.
	OnSuccess func(T)
	OnError   func(error)
	OnChange  func(State[T])

	Clock  clock.Clock
	Logger logr.Logger
}

type outcome[T any] struct {
	data T
	err  error
}

// Controller polls a FetchFunc. Each completed fetch arms the next one
// Interval later, so at most one fetch is in flight at any time.
type Controller[T any] struct {
	fetch FetchFunc[T]
	opts  Options[T]
	clock clock.Clock
	log   logr.Logger

	mu      sync.Mutex
	state   State[T]
	started bool
	alive   bool
	cancel  context.CancelFunc
	// toggles counts real Enabled changes so the loop sees an off/on pair
	// even when both land in a single wake.
	toggles uint64

	// emitMu serializes state writes with their callbacks so Stop can wait
	// for an emission in progress.
	emitMu sync.Mutex

	wake     chan struct{}
	refresh  chan chan outcome[T]
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New builds a Controller. Polling begins with Start.
func New[T any](fetch FetchFunc[T], opts Options[T]) *Controller[T] {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &Controller[T]{
		fetch: fetch,
		opts:  opts,
		clock: clk,
		log:   logger,
		state: State[T]{
			Enabled:  !opts.StartPaused,
			Interval: opts.Interval,
		},
		alive:   true,
		wake:    make(chan struct{}, 1),
		refresh: make(chan chan outcome[T]),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns immediately. Cancelling
// ctx has the same effect as Stop.
func (c *Controller[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(loopCtx)
	return nil
}

// Stop cancels any pending fetch and detaches the controller from its
// callbacks. A fetch still in flight completes without touching state.
// Stop is idempotent.
func (c *Controller[T]) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.alive = false
		started := c.started
		cancel := c.cancel
		c.mu.Unlock()

		// Wait out an emission that began before alive flipped.
		c.emitMu.Lock()
		c.emitMu.Unlock()

		if cancel != nil {
			cancel()
		}
		close(c.stop)
		if !started {
			close(c.done)
		}
	})
}

// Done is closed once the polling goroutine has exited.
func (c *Controller[T]) Done() <-chan struct{} {
	return c.done
}

// Refresh fetches immediately, replacing any pending scheduled fetch. When
// polling is enabled the next automatic fetch is armed Interval after this one
// completes. The fetch outcome is returned; it is also recorded in State.
func (c *Controller[T]) Refresh(ctx context.Context) (T, error) {
	var zero T

	c.mu.Lock()
	started, alive := c.started, c.alive
	c.mu.Unlock()
	if !alive {
		return zero, ErrStopped
	}
	if !started {
		return zero, ErrNotStarted
	}

	reply := make(chan outcome[T], 1)
	select {
	case c.refresh <- reply:
	case <-c.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case out := <-reply:
		return out.data, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// SetEnabled turns automatic polling on or off. Enabling arms the next fetch
// Interval from now; disabling cancels the pending one and keeps Data.
func (c *Controller[T]) SetEnabled(enabled bool) {
	c.emit(func(s *State[T]) bool {
		if s.Enabled == enabled {
			return false
		}
		s.Enabled = enabled
		c.toggles++
		return true
	}, nil)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// SetInterval changes the delay used when the next fetch is armed.
func (c *Controller[T]) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	c.emit(func(s *State[T]) bool {
		if s.Interval == d {
			return false
		}
		s.Interval = d
		return true
	}, nil)
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller[T]) run(ctx context.Context) {
	defer close(c.done)

	var (
		timer clock.Timer
		fire  <-chan time.Time
	)
	disarm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, fire = nil, nil
	}
	arm := func() {
		disarm()
		interval, _, ok := c.schedulable()
		if !ok {
			return
		}
		timer = c.clock.NewTimer(interval)
		fire = timer.C()
		c.log.V(1).Info("next poll armed", "in", interval)
	}
	defer disarm()

	_, seen, _ := c.schedulable()
	if !c.opts.SkipInitial {
		c.cycle(ctx)
	}
	arm()

	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			c.Stop()
			return
		case <-fire:
			timer, fire = nil, nil
			c.cycle(ctx)
			arm()
		case reply := <-c.refresh:
			disarm()
			data, err := c.cycle(ctx)
			reply <- outcome[T]{data: data, err: err}
			arm()
		case <-c.wake:
			_, toggles, ok := c.schedulable()
			switch {
			case !ok:
				disarm()
			case toggles != seen || fire == nil:
				// Re-enabling always restarts the full interval.
				arm()
			}
			seen = toggles
		}
	}
}

func (c *Controller[T]) schedulable() (time.Duration, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Interval, c.toggles, c.alive && c.state.Enabled
}

// cycle runs one fetch and records its outcome.
func (c *Controller[T]) cycle(ctx context.Context) (T, error) {
	c.emit(func(s *State[T]) bool {
		s.Loading = true
		s.Err = nil
		return true
	}, nil)

	data, err := c.invoke(ctx)
	now := c.clock.Now()
	if err != nil {
		c.log.Error(err, "poll fetch failed")
		c.emit(func(s *State[T]) bool {
			s.Loading = false
			s.Err = err
			s.LastUpdated = now
			return true
		}, func() {
			if c.opts.OnError != nil {
				c.opts.OnError(err)
			}
		})
		return data, err
	}

	c.emit(func(s *State[T]) bool {
		s.Data = data
		s.HasData = true
		s.Loading = false
		s.LastUpdated = now
		return true
	}, func() {
		if c.opts.OnSuccess != nil {
			c.opts.OnSuccess(data)
		}
	})
	return data, nil
}

func (c *Controller[T]) invoke(ctx context.Context) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll: fetch panicked: %v", r)
		}
	}()
	return c.fetch(ctx)
}

// emit applies mutate while the controller is alive, then fires after and
// OnChange with the resulting state.
func (c *Controller[T]) emit(mutate func(*State[T]) bool, after func()) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if !c.alive || !mutate(&c.state) {
		c.mu.Unlock()
		return
	}
	snap := c.state
	c.mu.Unlock()

	if after != nil {
		after()
	}
	if c.opts.OnChange != nil {
		c.opts.OnChange(snap)
	}
}
