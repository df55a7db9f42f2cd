package pixelshapes

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultStorageKey is the key the workspace record is stored under.
const DefaultStorageKey = "pixelshapes.workspace"

// DefaultSaveDelay is the quiet period after the last change before the
// workspace is written.
const DefaultSaveDelay = 400 * time.Millisecond

// Storage is a key-value persistent store. Get reports ok=false for a
// missing key; only genuine I/O problems are errors.
type Storage interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}

// Timer is a cancellable delayed callback. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler creates delayed callbacks. The default uses time.AfterFunc;
// tests substitute a manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// PersisterOptions tunes the persister.
type PersisterOptions struct {
	// Key is the storage key. Default: DefaultStorageKey.
	Key string
	// Delay is the debounce quiet period. Default: DefaultSaveDelay.
	Delay time.Duration
	// Limits bound the zoom of loaded records. Default: DefaultViewLimits().
	Limits ViewLimits
	// Logger overrides the default slog logger.
	Logger *slog.Logger
	// Scheduler overrides the time.AfterFunc scheduler.
	Scheduler Scheduler
}

func (o *PersisterOptions) defaults() {
	if o.Key == "" {
		o.Key = DefaultStorageKey
	}
	if o.Delay <= 0 {
		o.Delay = DefaultSaveDelay
	}
	o.Limits = o.Limits.normalized()
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Scheduler == nil {
		o.Scheduler = realScheduler{}
	}
}

// PersisterStats are point-in-time counters.
type PersisterStats struct {
	Scheduled int64 `json:"scheduled"`
	Writes    int64 `json:"writes"`
	Failures  int64 `json:"failures"`
}

// Persister hydrates a workspace from storage and writes it back, debounced,
// whenever shapes, the view or the panel flags change. Each change restarts
// the quiet timer; only the state current when the timer fires is written.
// Write failures are logged and the next change retries.
//
// Close cancels the timer and flushes a pending write once.
type Persister struct {
	store Storage
	opts  PersisterOptions

	mu      sync.Mutex
	ws      *Workspace
	cancel  func()
	timer   Timer
	gen     uint64
	pending bool
	closed  bool

	scheduled atomic.Int64
	writes    atomic.Int64
	failures  atomic.Int64
}

// NewPersister creates a persister over store. Call Restore (or Attach) to
// bind it to a workspace.
func NewPersister(store Storage, opts PersisterOptions) *Persister {
	opts.defaults()
	return &Persister{store: store, opts: opts}
}

// Stats returns the current counters.
func (p *Persister) Stats() PersisterStats {
	return PersisterStats{
		Scheduled: p.scheduled.Load(),
		Writes:    p.writes.Load(),
		Failures:  p.failures.Load(),
	}
}

// Load reads and validates the stored record. ok is false when there is no
// usable prior state: missing, unreadable, corrupt or from another schema
// version. Problems are logged, never returned.
func (p *Persister) Load(ctx context.Context) (rec *Record, ok bool) {
	log := p.opts.Logger
	data, found, err := p.store.Get(ctx, p.opts.Key)
	if err != nil {
		log.Warn("pixelshapes: load failed, starting empty", "key", p.opts.Key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	rec, err = DecodeRecord(data, p.opts.Limits)
	switch {
	case errors.Is(err, ErrVersionMismatch):
		log.Info("pixelshapes: discarding record from another version", "key", p.opts.Key, "error", err)
		return nil, false
	case err != nil:
		log.Warn("pixelshapes: discarding corrupt record", "key", p.opts.Key, "error", err)
		return nil, false
	}
	return rec, true
}

// Restore hydrates ws from storage, if a usable record exists, and then
// attaches the persister to it. It reports whether prior state was found.
func (p *Persister) Restore(ctx context.Context, ws *Workspace) bool {
	rec, ok := p.Load(ctx)
	if ok {
		ws.Hydrate(rec)
		p.opts.Logger.Info("pixelshapes: workspace restored", "key", p.opts.Key, "shapes", len(rec.Shapes))
	}
	p.Attach(ws)
	return ok
}

// Attach subscribes to ws so that its changes are saved. A previously
// attached workspace is detached.
func (p *Persister) Attach(ws *Workspace) {
	p.mu.Lock()
	old := p.cancel
	p.ws = ws
	p.cancel = ws.Subscribe(p.onEvent)
	p.mu.Unlock()
	if old != nil {
		old()
	}
}

func (p *Persister) onEvent(ev Event) {
	if !ev.Kind.Has(ChangePersisted) || ev.Kind.Has(ChangeHydrated) {
		return
	}
	p.schedule()
}

// schedule (re)starts the quiet timer.
func (p *Persister) schedule() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	gen := p.gen
	p.pending = true
	p.timer = p.opts.Scheduler.AfterFunc(p.opts.Delay, func() { p.fire(gen) })
	p.scheduled.Add(1)
}

// fire writes the current state unless the timer was superseded.
func (p *Persister) fire(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.closed || !p.pending {
		p.mu.Unlock()
		return
	}
	p.pending = false
	p.timer = nil
	ws := p.ws
	p.mu.Unlock()

	_ = p.write(context.Background(), ws)
}

// Flush cancels any pending timer and writes the current state now.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	p.stopLocked()
	ws := p.ws
	p.mu.Unlock()
	return p.write(ctx, ws)
}

// Close detaches from the workspace and cancels the timer. If a write was
// pending it is flushed once; the returned error is that write's, already
// logged.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	wasPending := p.pending
	p.stopLocked()
	cancel, ws := p.cancel, p.ws
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !wasPending {
		return nil
	}
	return p.write(ctx, ws)
}

func (p *Persister) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
	p.pending = false
}

func (p *Persister) write(ctx context.Context, ws *Workspace) error {
	if ws == nil {
		return nil
	}
	log := p.opts.Logger
	start := time.Now()
	rec := ws.Record()
	data, err := EncodeRecord(rec)
	if err == nil {
		err = p.store.Set(ctx, p.opts.Key, data)
	}
	if err != nil {
		p.failures.Add(1)
		log.Error("pixelshapes: save failed", "key", p.opts.Key, "error", err)
		return err
	}
	p.writes.Add(1)
	log.Debug("pixelshapes: saved", "key", p.opts.Key, "shapes", len(rec.Shapes), "bytes", len(data), "duration", time.Since(start))
	return nil
}
