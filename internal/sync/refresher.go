// Package sync keeps stores fresh by reloading them from the backend on a
// fixed interval.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/bizdash/internal/remote"
)

// SyncState represents the current state of a loader's refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the refresh state for a single loader.
type SyncStatus struct {
	Name     string
	State    SyncState
	LastSync time.Time
	Error    error
}

// Result is delivered on the Results channel after every refresh.
type Result struct {
	Name      string
	Error     error
	AuthError bool
	At        time.Time
}

// Loader is anything that can reload itself from the backend. Both stores
// satisfy it.
type Loader interface {
	Load(ctx context.Context) error
}

const (
	// fetchTimeout is the maximum time allowed for a single Load.
	fetchTimeout = 30 * time.Second

	defaultInterval = 120 * time.Second
)

type loaderEntry struct {
	name    string
	loader  Loader
	trigger chan struct{}
	status  *SyncStatus
}

// Refresher orchestrates background reloads of registered loaders.
type Refresher struct {
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	mu       gosync.Mutex
	entries  []*loaderEntry
	resultCh chan Result
	stopCh   chan struct{}
	wg       gosync.WaitGroup
	running  bool
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithInterval sets the time between automatic refreshes. Non-positive
// values fall back to two minutes.
func WithInterval(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithFetchTimeout bounds a single Load call.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the refresher logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Refresher) { r.log = l }
}

// New creates a stopped Refresher.
func New(opts ...Option) *Refresher {
	r := &Refresher{
		interval: defaultInterval,
		timeout:  fetchTimeout,
		log:      zerolog.Nop(),
		resultCh: make(chan Result, 16),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a loader under name. Loaders registered after Start are
// picked up on the next Start.
func (r *Refresher) Register(name string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, &loaderEntry{
		name:    name,
		loader:  l,
		trigger: make(chan struct{}, 1),
		status:  &SyncStatus{Name: name, State: SyncIdle},
	})
}

// Start launches one goroutine per loader. Each loads immediately and then
// on every tick until Stop is called or ctx is done. Once ctx is done and
// every loader goroutine has exited, the refresher may be started again.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true
	stop := make(chan struct{})
	r.stopCh = stop

	var run gosync.WaitGroup
	for _, e := range r.entries {
		r.wg.Add(1)
		run.Add(1)
		go func(e *loaderEntry) {
			defer run.Done()
			r.poll(ctx, e, stop)
		}(e)
	}
	go r.finish(ctx, stop, &run)
	r.log.Debug().Int("loaders", len(r.entries)).Dur("interval", r.interval).Msg("refresher started")
}

// finish marks the run started with stop as over when ctx ends first.
func (r *Refresher) finish(ctx context.Context, stop chan struct{}, run *gosync.WaitGroup) {
	select {
	case <-stop:
		return
	case <-ctx.Done():
	}
	run.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running && r.stopCh == stop {
		r.running = false
		r.log.Debug().Msg("refresher stopped: context done")
	}
}

// Running reports whether loader goroutines are active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop halts all polling goroutines and waits for them to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stopCh)
	r.running = false
	r.mu.Unlock()

	r.wg.Wait()
}

// Results returns the channel refresh outcomes are delivered on. Results
// are dropped when nobody keeps up with the channel.
func (r *Refresher) Results() <-chan Result {
	return r.resultCh
}

// RefreshAll triggers an immediate reload of every loader.
func (r *Refresher) RefreshAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		select {
		case e.trigger <- struct{}{}:
		default:
			// a refresh is already queued
		}
	}
}

// Refresh triggers an immediate reload of the named loader.
func (r *Refresher) Refresh(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.name != name {
			continue
		}
		select {
		case e.trigger <- struct{}{}:
		default:
		}
	}
}

// Statuses returns the current state of every loader in registration order.
func (r *Refresher) Statuses() []SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(r.entries))
	for _, e := range r.entries {
		statuses = append(statuses, *e.status)
	}
	return statuses
}

func (r *Refresher) poll(ctx context.Context, e *loaderEntry, stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx, e)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx, e)
		case <-e.trigger:
			r.refresh(ctx, e)
		}
	}
}

// refresh performs a single Load and publishes its outcome.
func (r *Refresher) refresh(ctx context.Context, e *loaderEntry) {
	r.setStatus(e, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := e.loader.Load(ctx)
	res := Result{Name: e.name, Error: err, At: time.Now()}
	if err != nil {
		res.AuthError = remote.IsAuthError(err)
		r.setStatus(e, SyncError, err)
		r.log.Warn().Err(err).Str("loader", e.name).Bool("auth", res.AuthError).Msg("refresh failed")
	} else {
		r.setStatus(e, SyncIdle, nil)
	}
	r.sendResult(res)
}

func (r *Refresher) setStatus(e *loaderEntry, state SyncState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.status.State = state
	e.status.Error = err
	if state == SyncIdle && err == nil {
		e.status.LastSync = time.Now()
	}
}

func (r *Refresher) sendResult(res Result) {
	select {
	case r.resultCh <- res:
	default:
		r.log.Debug().Str("loader", res.Name).Msg("result dropped")
	}
}
