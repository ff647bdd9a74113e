package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/cyan-fleet-control/internal/fleetsync/scheduler"
	"github.com/kingrea/cyan-fleet-control/internal/metrics"
	"github.com/kingrea/cyan-fleet-control/internal/spacetraders"
	"github.com/kingrea/cyan-fleet-control/internal/state"
)

const (
	// DefaultInterval is the pause between two refresh operations.
	DefaultInterval = 2 * time.Second
	// DefaultActionBuffer is how many operator actions may wait for the engine.
	DefaultActionBuffer = 16
)

var (
	// ErrQueueFull is returned by Submit when the action buffer is saturated.
	ErrQueueFull = errors.New("engine: action queue is full")
	// ErrStopped is returned by Submit once Run has returned.
	ErrStopped = errors.New("engine: stopped")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("engine: already running")
)

// Client is the subset of the SpaceTraders API the engine calls.
// *spacetraders.Client satisfies it.
type Client interface {
	FetchMyAgent(ctx context.Context) (*spacetraders.Agent, error)
	FetchMyShips(ctx context.Context) ([]spacetraders.Ship, error)
	FetchSystemWaypoints(ctx context.Context, systemSymbol string) ([]spacetraders.Waypoint, error)
	FetchWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*spacetraders.Waypoint, error)
	FetchContracts(ctx context.Context) ([]spacetraders.Contract, error)
	FetchShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*spacetraders.Shipyard, error)
	AcceptContract(ctx context.Context, contractID string) (*spacetraders.Contract, error)
	NavigateShip(ctx context.Context, shipSymbol, destination string) (*spacetraders.ShipNav, error)
	DockShip(ctx context.Context, shipSymbol string) (*spacetraders.ShipNav, error)
	OrbitShip(ctx context.Context, shipSymbol string) (*spacetraders.ShipNav, error)
	ExtractResources(ctx context.Context, shipSymbol string) (*spacetraders.Extraction, error)
	DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*spacetraders.Contract, error)
	PurchaseShip(ctx context.Context, shipType, waypointSymbol string) (*spacetraders.Ship, error)
}

// Engine drives the refresh rotation and executes operator actions.
type Engine struct {
	client  Client
	store   *state.Store
	queue   *scheduler.Queue
	log     *zap.Logger
	metrics metrics.Recorder

	interval atomic.Int64
	reset    chan struct{}
	actions  chan Action
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
	stopMu   sync.RWMutex
	stopped  bool
	bufSize  int
	now      func() time.Time
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(e *Engine) {
		if rec != nil {
			e.metrics = rec
		}
	}
}

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval.Store(int64(d))
		}
	}
}

// WithActionBuffer overrides DefaultActionBuffer.
func WithActionBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bufSize = n
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// New wires an engine to a client and the shared store.
func New(client Client, store *state.Store, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("engine: client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	e := &Engine{
		client:  client,
		store:   store,
		queue:   scheduler.New(),
		log:     zap.NewNop(),
		metrics: metrics.NoopRecorder{},
		reset:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		bufSize: DefaultActionBuffer,
		now:     time.Now,
	}
	e.interval.Store(int64(DefaultInterval))
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.actions = make(chan Action, e.bufSize)
	return e, nil
}

// Interval returns the current pause between operations.
func (e *Engine) Interval() time.Duration {
	return time.Duration(e.interval.Load())
}

// SetInterval changes the pause between operations. A running loop picks the
// new value up immediately.
func (e *Engine) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	if time.Duration(e.interval.Swap(int64(d))) == d {
		return
	}
	e.log.Info("sync interval updated", zap.Duration("interval", d))
	select {
	case e.reset <- struct{}{}:
	default:
	}
}

// Queue exposes the rotation for inspection.
func (e *Engine) Queue() *scheduler.Queue {
	return e.queue
}

// Done is closed once Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Submit queues an operator action for the engine goroutine. It never blocks.
func (e *Engine) Submit(action Action) error {
	e.stopMu.RLock()
	defer e.stopMu.RUnlock()
	if e.stopped {
		return ErrStopped
	}
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	select {
	case e.actions <- action:
		e.metrics.SetActionBacklog(len(e.actions))
		e.log.Debug("action queued", zap.String("id", action.ID), zap.Stringer("action", action.Kind))
		return nil
	default:
		e.log.Warn("action dropped, queue full", zap.String("id", action.ID), zap.Stringer("action", action.Kind))
		return ErrQueueFull
	}
}

// Run executes refresh operations until ctx is cancelled. The first operation
// runs immediately; each following one waits for the interval after the
// previous finished. Queued actions are executed between operations.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.shutdown()

	e.log.Info("sync engine started", zap.Duration("interval", e.Interval()))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			e.log.Info("sync engine stopped", zap.Error(err))
			return nil
		}
		select {
		case <-ctx.Done():
			e.log.Info("sync engine stopped", zap.Error(ctx.Err()))
			return nil
		case action := <-e.actions:
			e.metrics.SetActionBacklog(len(e.actions))
			e.Execute(ctx, action)
		case <-e.reset:
			timer.Stop()
			timer.Reset(e.Interval())
		case <-timer.C:
			e.Tick(ctx)
			timer.Reset(e.Interval())
		}
	}
}

// shutdown refuses further submissions, reports actions that were accepted
// but never ran, and closes done.
func (e *Engine) shutdown() {
	e.stopMu.Lock()
	e.stopped = true
	e.stopMu.Unlock()
	for {
		select {
		case action := <-e.actions:
			e.log.Warn("action not run, engine stopped", zap.String("id", action.ID), zap.Stringer("action", action.Kind))
			e.store.AppendWarning(fmt.Sprintf("Action %s not run: sync engine stopped", action.Kind))
		default:
			e.metrics.SetActionBacklog(0)
			e.stopOnce.Do(func() { close(e.done) })
			return
		}
	}
}

// Tick pops the next operation, runs it to completion and returns its kind.
// Tick must not be called while Run is active on the same engine.
func (e *Engine) Tick(ctx context.Context) scheduler.Kind {
	kind := e.queue.Next()
	e.store.AppendLog(fmt.Sprintf("Handling message: %s", kind))

	start := e.now()
	var outcome metrics.Outcome
	switch kind {
	case scheduler.FetchFleet:
		outcome = e.fetchFleet(ctx)
	case scheduler.FetchWaypoints:
		outcome = e.fetchWaypoints(ctx)
	case scheduler.FetchContracts:
		outcome = e.fetchContracts(ctx)
	case scheduler.FetchShipyards:
		outcome = e.fetchShipyards(ctx)
	}
	elapsed := e.now().Sub(start)
	e.metrics.ObserveOperation(kind.String(), elapsed, outcome)
	e.log.Debug("operation finished",
		zap.Stringer("operation", kind),
		zap.String("outcome", string(outcome)),
		zap.Duration("elapsed", elapsed),
	)
	return kind
}

// Cycle runs one full rotation, i.e. one tick per operation kind.
func (e *Engine) Cycle(ctx context.Context) {
	for range scheduler.Kinds {
		if ctx.Err() != nil {
			return
		}
		e.Tick(ctx)
	}
}
