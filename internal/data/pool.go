// Package data coordinates asynchronous loads of remote collections.
//
// A Pool owns one collection and its LoadState. Triggering a load marks the
// pool loading, runs the fetch off the caller's goroutine, and settles the
// pool with either the new data or an error message. Loading is cleared on
// every outcome, and a failure never discards data from an earlier success.
package data

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// UpdatedMsg is sent when a pool settles after a fetch started with Fetch.
// Views match on Key, then read typed data via the pool's Get.
type UpdatedMsg struct {
	Key string
}

// FetchFunc retrieves the full collection for a pool.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// PoolConfig configures a Pool's timing behavior.
type PoolConfig struct {
	FreshTTL time.Duration // how long data counts as fresh for FetchIfStale (0 = until invalidated)
}

// Pooler is the non-generic interface for pool lifecycle management.
type Pooler interface {
	Key() string
	Invalidate()
	Clear()
}

// Option configures a Pool.
type Option func(*poolOptions)

type poolOptions struct {
	logger logrus.FieldLogger
	now    func() time.Time
}

// WithLogger sets the logger used for transition debug lines.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *poolOptions) { o.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *poolOptions) { o.now = now }
}

// Pool is a typed collection with a load lifecycle.
//
// Triggers that arrive while a fetch is in flight are ignored; the caller
// sees the in-flight fetch settle instead. Clear discards any in-flight
// result by bumping the generation.
type Pool[T any] struct {
	mu         sync.RWMutex
	key        string
	state      LoadState[T]
	config     PoolConfig
	fetchFn    FetchFunc[T]
	version    uint64 // incremented on every data change
	generation uint64 // incremented on Clear, used to discard stale fetches
	stale      bool
	observers  map[int]func(LoadState[T])
	nextObs    int
	seq        uint64 // incremented on every transition, under mu

	notifyMu  sync.Mutex
	delivered uint64 // seq of the last snapshot handed to observers

	settleHook func() // runs between settling and notifying, for tests
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewPool creates an idle Pool with the given key, config, and fetch function.
func NewPool[T any](key string, config PoolConfig, fetchFn FetchFunc[T], opts ...Option) *Pool[T] {
	o := poolOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		o.logger = l
	}
	return &Pool[T]{
		key:       key,
		state:     LoadState[T]{Data: []T{}},
		config:    config,
		fetchFn:   fetchFn,
		observers: make(map[int]func(LoadState[T])),
		log:       o.logger.WithField("pool", key),
		now:       o.now,
	}
}

// Key returns the pool's identifier.
func (p *Pool[T]) Key() string { return p.key }

// Get returns a copy of the current state. Never blocks on a fetch.
func (p *Pool[T]) Get() LoadState[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.clone()
}

// Version returns the current data version.
func (p *Pool[T]) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// Subscribe registers fn to receive state transitions in the order they
// happened. For a single trigger fn sees the Loading state before the
// settled one. A snapshot older than one already delivered is dropped, so
// the last state fn sees is the pool's latest. fn runs on the goroutine
// that made the transition, must not block, and must not trigger or clear
// the same pool. The returned function unsubscribes.
func (p *Pool[T]) Subscribe(fn func(LoadState[T])) (cancel func()) {
	p.mu.Lock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

// Fetch marks the pool loading and returns a Cmd that performs the fetch,
// settles the pool, and emits UpdatedMsg. Returns nil, leaving the state
// untouched, if a fetch is already in progress.
func (p *Pool[T]) Fetch(ctx context.Context) tea.Cmd {
	gen, ok := p.begin()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		if !p.run(ctx, gen) {
			return nil
		}
		return UpdatedMsg{Key: p.key}
	}
}

// TriggerLoad starts a fetch on a new goroutine and returns immediately.
// The pool is already loading when TriggerLoad returns true. Returns false
// if a fetch was already in progress.
func (p *Pool[T]) TriggerLoad(ctx context.Context) bool {
	gen, ok := p.begin()
	if !ok {
		return false
	}
	go p.run(ctx, gen)
	return true
}

// Load fetches synchronously and returns the settled state. If a fetch is
// already in progress Load returns the current (loading) state without
// waiting for it.
func (p *Pool[T]) Load(ctx context.Context) LoadState[T] {
	if gen, ok := p.begin(); ok {
		p.run(ctx, gen)
	}
	return p.Get()
}

// FetchIfStale returns a Fetch Cmd if data is stale or missing, nil if fresh
// or already loading.
func (p *Pool[T]) FetchIfStale(ctx context.Context) tea.Cmd {
	if p.isFreshOrLoading() {
		return nil
	}
	return p.Fetch(ctx)
}

func (p *Pool[T]) isFreshOrLoading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.state.Phase == PhaseLoading:
		return true
	case !p.state.HasData(), p.state.Failed(), p.stale:
		return false
	}
	return p.config.FreshTTL == 0 || p.now().Sub(p.state.FetchedAt) < p.config.FreshTTL
}

// Invalidate marks current data as stale. The next FetchIfStale refetches.
func (p *Pool[T]) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stale = true
}

// Set writes data directly into the pool, as if a fetch had just succeeded.
// An in-flight fetch still settles afterwards and wins.
func (p *Pool[T]) Set(data []T) {
	p.mu.Lock()
	p.state.Data = cloneOrEmpty(data)
	p.state.Err = ""
	p.state.cause = nil
	p.state.FetchedAt = p.now()
	if p.state.Phase == PhaseIdle {
		p.state.Phase = PhaseSettled
	}
	p.stale = false
	p.version++
	snap, seq := p.snapshot()
	p.mu.Unlock()

	p.notify(snap, seq)
}

// Clear resets the pool to idle and empty. A fetch in flight when Clear is
// called is discarded when it completes.
func (p *Pool[T]) Clear() {
	p.mu.Lock()
	p.state = LoadState[T]{Data: []T{}}
	p.version++
	p.generation++
	p.stale = false
	snap, seq := p.snapshot()
	p.mu.Unlock()

	p.notify(snap, seq)
}

// begin performs the Loading transition. It reports false when a fetch is
// already running.
func (p *Pool[T]) begin() (uint64, bool) {
	p.mu.Lock()
	if p.state.Phase == PhaseLoading {
		p.mu.Unlock()
		p.log.Debug("load ignored: fetch in flight")
		return 0, false
	}
	p.state.Phase = PhaseLoading
	gen := p.generation
	snap, seq := p.snapshot()
	p.mu.Unlock()

	p.log.Debug("loading")
	p.notify(snap, seq)
	return gen, true
}

// run performs the fetch and the settling transition. It reports false when
// the result was discarded because the pool was cleared meanwhile.
func (p *Pool[T]) run(ctx context.Context, gen uint64) bool {
	data, err := p.safeFetch(ctx)

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		p.log.Debug("discarding result of cleared fetch")
		return false
	}
	if err != nil {
		p.state.Err = Describe(err)
		p.state.cause = err
	} else {
		p.state.Data = cloneOrEmpty(data)
		p.state.Err = ""
		p.state.cause = nil
		p.state.FetchedAt = p.now()
		p.stale = false
		p.version++
	}
	p.state.Phase = PhaseSettled
	snap, seq := p.snapshot()
	p.mu.Unlock()

	if p.settleHook != nil {
		p.settleHook()
	}

	if err != nil {
		p.log.WithError(err).Debug("load failed")
	} else {
		p.log.WithField("count", len(snap.Data)).Debug("loaded")
	}
	p.notify(snap, seq)
	return true
}

// safeFetch converts a panic in the fetch function into an error so the
// pool always settles.
func (p *Pool[T]) safeFetch(ctx context.Context) (data []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, panicError{value: r}
		}
	}()
	return p.fetchFn(ctx)
}

// snapshot copies the state and numbers the transition. Callers hold mu.
func (p *Pool[T]) snapshot() (LoadState[T], uint64) {
	p.seq++
	return p.state.clone(), p.seq
}

// notify hands snap to observers unless a later transition was already
// delivered. Deliveries are serialised so observers never see them
// interleaved.
func (p *Pool[T]) notify(snap LoadState[T], seq uint64) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	if seq <= p.delivered {
		p.log.Debug("dropping superseded notification")
		return
	}
	p.delivered = seq

	p.mu.RLock()
	fns := make([]func(LoadState[T]), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(snap.clone())
	}
}

func cloneOrEmpty[T any](data []T) []T {
	out := make([]T, len(data))
	copy(out, data)
	return out
}
