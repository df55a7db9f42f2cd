package pixelshapes

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/tanema/gween/ease"
)

// ChangeKind is a bitmask describing what a mutation touched.
type ChangeKind uint16

const (
	ChangeShapes    ChangeKind = 1 << iota // a shape was added, removed or edited
	ChangeOrder                            // the z-order changed
	ChangeSelection                        // the selected id or mode changed
	ChangeDraft                            // the pending form values changed
	ChangeView                             // zoom or offset changed
	ChangePanels                           // a UI panel flag changed
	ChangeHydrated                         // state was replaced from a persisted record
)

// ChangePersisted is the set of changes that make the persisted record stale.
const ChangePersisted = ChangeShapes | ChangeOrder | ChangeView | ChangePanels

// Has reports whether any bit of mask is set in k.
func (k ChangeKind) Has(mask ChangeKind) bool { return k&mask != 0 }

// Event is published to subscribers after every mutation that changed
// something.
type Event struct {
	Kind ChangeKind
	// Shape is the shape the mutation targeted, or 0 for workspace-wide
	// changes.
	Shape ShapeID
	// Seq increases by one per published event.
	Seq uint64
}

// Listener receives workspace events. It runs after the mutation has
// completed and may call back into the workspace.
type Listener func(Event)

// EventSink is the interface for optional bridges (for example an ECS
// world). When set on a Workspace, every event is forwarded to it.
type EventSink interface {
	EmitEvent(event Event)
}

// ViewState is a point-in-time copy of the view transform.
type ViewState struct {
	Zoom   float64
	Offset Vec2
}

// Panels holds the UI chrome flags persisted alongside the shapes.
type Panels struct {
	ControlsOpen  bool
	ShapeListOpen bool
}

type subscriber struct {
	id int
	fn Listener
}

type config struct {
	limits ViewLimits
	logger *slog.Logger
	debug  bool
}

// Option customises New.
type Option func(*config)

// WithViewLimits sets the zoom bounds and fit padding.
func WithViewLimits(l ViewLimits) Option { return func(c *config) { c.limits = l } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithDebug enables invariant checks after every mutation.
func WithDebug(enabled bool) Option { return func(c *config) { c.debug = enabled } }

// Workspace is the single owner of editor state: the shape store, the
// draft/selection machine, the view and the panel flags. Mutations are
// serialized and each runs to completion before subscribers are notified.
type Workspace struct {
	mu     sync.Mutex
	store  *ShapeStore
	sel    Selection
	view   *View
	panels Panels

	subs    []subscriber
	nextSub int
	sink    EventSink
	seq     uint64
	closed  bool
	debug   bool
	logger  *slog.Logger
}

// New creates an empty workspace in the idle state at the default zoom.
func New(opts ...Option) *Workspace {
	cfg := config{limits: DefaultViewLimits()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Workspace{
		store:  NewShapeStore(),
		sel:    newSelection(),
		view:   NewView(cfg.limits),
		debug:  cfg.debug,
		logger: cfg.logger,
	}
}

// mutate runs fn under the lock and publishes the resulting event, if any,
// after the lock is released.
func (w *Workspace) mutate(fn func() (ChangeKind, ShapeID)) {
	ev, subs, sink, ok := w.apply(fn)
	if !ok {
		return
	}
	for _, s := range subs {
		s.fn(ev)
	}
	if sink != nil {
		sink.EmitEvent(ev)
	}
}

// apply runs fn and the debug checks with the lock held. The lock is
// released even when either panics, so a recovered caller can keep using
// the workspace.
func (w *Workspace) apply(fn func() (ChangeKind, ShapeID)) (ev Event, subs []subscriber, sink EventSink, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Event{}, nil, nil, false
	}
	kind, id := fn()
	if kind == 0 {
		return Event{}, nil, nil, false
	}
	if w.debug {
		debugCheckInvariants(w)
	}
	w.seq++
	return Event{Kind: kind, Shape: id, Seq: w.seq}, slices.Clone(w.subs), w.sink, true
}

// --- Subscriptions ---

// Subscribe registers fn for every future event. The returned function
// cancels the subscription; calling it more than once is harmless.
func (w *Workspace) Subscribe(fn Listener) (cancel func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return func() {}
	}
	w.nextSub++
	id := w.nextSub
	w.subs = append(w.subs, subscriber{id: id, fn: fn})
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.subs = slices.DeleteFunc(w.subs, func(s subscriber) bool { return s.id == id })
	}
}

// Watch subscribes with a selector: fn runs only when the selected value
// differs from the previous one according to equal. equal is required;
// slices such as Order pair with SameOrder. For comparable values use
// WatchComparable.
func Watch[T any](w *Workspace, selector func(*Workspace) T, equal func(a, b T) bool, fn func(cur, prev T)) (cancel func()) {
	if equal == nil {
		panic("pixelshapes: Watch requires an equal function; use WatchComparable for comparable types")
	}
	var mu sync.Mutex
	prev := selector(w)
	return w.Subscribe(func(Event) {
		cur := selector(w)
		mu.Lock()
		old := prev
		changed := !equal(cur, old)
		if changed {
			prev = cur
		}
		mu.Unlock()
		if changed {
			fn(cur, old)
		}
	})
}

// WatchComparable is Watch with == as the equality, for pointers, ids and
// small structs.
func WatchComparable[T comparable](w *Workspace, selector func(*Workspace) T, fn func(cur, prev T)) (cancel func()) {
	return Watch(w, selector, func(a, b T) bool { return a == b }, fn)
}

// SetEventSink sets the optional event bridge. Pass nil to detach.
func (w *Workspace) SetEventSink(sink EventSink) {
	w.mu.Lock()
	w.sink = sink
	w.mu.Unlock()
}

// SetDebugMode enables or disables invariant checks after every mutation.
func (w *Workspace) SetDebugMode(enabled bool) {
	w.mu.Lock()
	w.debug = enabled
	w.mu.Unlock()
}

// Close drops every subscription and the event sink. Later mutations are
// ignored.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.subs = nil
	w.sink = nil
}

// --- Reads ---

// Len returns the number of shapes.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Len()
}

// Order returns the z-order, back to front. The slice MUST NOT be mutated;
// it stays identical across mutations that do not reorder shapes.
func (w *Workspace) Order() []ShapeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Order()
}

// Shape returns the shape with the given id.
func (w *Workspace) Shape(id ShapeID) (*Shape, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Shape(id)
}

// Shapes returns the shapes back to front.
func (w *Workspace) Shapes() []*Shape {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Shapes()
}

// Selected returns the selected shape id; ok is false while idle.
func (w *Workspace) Selected() (ShapeID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel.Selected()
}

// Mode returns the selection machine state.
func (w *Workspace) Mode() SelectionMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel.Mode()
}

// Draft returns a copy of the pending form values.
func (w *Workspace) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel.Draft()
}

// View returns the current zoom and offset.
func (w *Workspace) View() ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ViewState{Zoom: w.view.Zoom(), Offset: w.view.Offset()}
}

// ViewLimits returns the zoom bounds in effect.
func (w *Workspace) ViewLimits() ViewLimits {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.Limits()
}

// WorldToScreen converts a world point through the current view.
func (w *Workspace) WorldToScreen(p Vec2) Vec2 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.WorldToScreen(p)
}

// ScreenToWorld converts a viewport pixel through the current view.
func (w *Workspace) ScreenToWorld(p Vec2) Vec2 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.ScreenToWorld(p)
}

// Panels returns the UI flags.
func (w *Workspace) Panels() Panels {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.panels
}

// HitTest returns the topmost shape whose box contains the world point.
func (w *Workspace) HitTest(p Vec2) (*Shape, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	order := w.store.Order()
	for i := len(order) - 1; i >= 0; i-- {
		sh, _ := w.store.Shape(order[i])
		if sh.Bounds().Contains(p.X, p.Y) {
			return sh, true
		}
	}
	return nil, false
}

// --- Shape operations ---

// AddShape creates a shape from d at pos (rounded to whole units) on top of
// the z-order and returns the selection machine to idle. A *ValidationError
// leaves the workspace untouched.
func (w *Workspace) AddShape(d Draft, pos Vec2) (*Shape, error) {
	var (
		sh  *Shape
		err error
	)
	w.mutate(func() (ChangeKind, ShapeID) {
		sh, err = w.store.Add(d, pos)
		if err != nil {
			return 0, 0
		}
		w.sel.reset()
		return ChangeShapes | ChangeOrder | ChangeSelection | ChangeDraft, sh.ID
	})
	return sh, err
}

// UpdateSelectedShape applies d to the selected shape, keeping its id,
// position and layer, then returns to idle. It fails with ErrNoSelection
// when nothing resolvable is selected; on a *ValidationError the selection
// and draft are kept so in-progress edits survive.
func (w *Workspace) UpdateSelectedShape(d Draft) error {
	var err error
	w.mutate(func() (ChangeKind, ShapeID) {
		id, ok := w.sel.Selected()
		if !ok {
			err = ErrNoSelection
			return 0, 0
		}
		if _, err = w.store.Update(id, d); err != nil {
			return 0, 0
		}
		w.sel.reset()
		return ChangeShapes | ChangeSelection | ChangeDraft, id
	})
	return err
}

// RemoveShape deletes a shape. If it was selected, selection moves to the
// new bottom shape, or to idle when none remain. It reports whether the
// shape existed.
func (w *Workspace) RemoveShape(id ShapeID) bool {
	var removed bool
	w.mutate(func() (ChangeKind, ShapeID) {
		if removed = w.store.Remove(id); !removed {
			return 0, 0
		}
		kind := ChangeShapes | ChangeOrder
		if sel, ok := w.sel.Selected(); ok && sel == id {
			w.sel.afterRemove(w.store, id)
			kind |= ChangeSelection | ChangeDraft
		}
		return kind, id
	})
	return removed
}

// MoveShape sets a shape's world position. It is the hot path during drags:
// the z-order slice and all other shapes are left untouched.
func (w *Workspace) MoveShape(id ShapeID, pos Vec2) bool {
	var moved bool
	w.mutate(func() (ChangeKind, ShapeID) {
		if moved = w.store.Move(id, pos); !moved {
			return 0, 0
		}
		return ChangeShapes, id
	})
	return moved
}

// MoveShapeLayer moves a shape within the z-order. It reports whether the
// order changed.
func (w *Workspace) MoveShapeLayer(id ShapeID, dir LayerDirection) bool {
	var changed bool
	w.mutate(func() (ChangeKind, ShapeID) {
		if changed = w.store.MoveLayer(id, dir); !changed {
			return 0, 0
		}
		return ChangeOrder, id
	})
	return changed
}

// ReorderShapes moves the shape at index from to index to. Indices must be
// valid; out-of-range values panic.
func (w *Workspace) ReorderShapes(from, to int) {
	w.mutate(func() (ChangeKind, ShapeID) {
		if from == to {
			w.store.Reorder(from, to) // range check only
			return 0, 0
		}
		id := w.store.Order()[from]
		w.store.Reorder(from, to)
		return ChangeOrder, id
	})
}

// --- Selection and draft ---

// Select binds the selection to id and mirrors its fields into the draft.
// An unknown id returns to idle with default draft values.
func (w *Workspace) Select(id ShapeID) {
	w.mutate(func() (ChangeKind, ShapeID) {
		w.sel.selectID(w.store, id)
		return ChangeSelection | ChangeDraft, id
	})
}

// ClearSelection returns to idle with default draft values.
func (w *Workspace) ClearSelection() {
	w.mutate(func() (ChangeKind, ShapeID) {
		w.sel.reset()
		return ChangeSelection | ChangeDraft, 0
	})
}

// SetDraft replaces the pending form values.
func (w *Workspace) SetDraft(d Draft) {
	w.editDraft(func(dr *Draft) { *dr = d })
}

// SetDraftKind sets the pending kind.
func (w *Workspace) SetDraftKind(k ShapeKind) {
	w.editDraft(func(d *Draft) { d.Kind = k })
}

// SetDraftWidth sets the pending width; nil models an empty input.
func (w *Workspace) SetDraftWidth(width *int) {
	w.editDraft(func(d *Draft) { d.Width = width })
}

// SetDraftHeight sets the pending height; nil models an empty input.
func (w *Workspace) SetDraftHeight(height *int) {
	w.editDraft(func(d *Draft) { d.Height = height })
}

// SetDraftColor sets the pending base color.
func (w *Workspace) SetDraftColor(color string) {
	w.editDraft(func(d *Draft) { d.Color = color })
}

// SetDraftOpacity sets the pending opacity, clamped to [0, 1]. NaN
// restores the default opacity.
func (w *Workspace) SetDraftOpacity(opacity float64) {
	w.editDraft(func(d *Draft) { d.Opacity = clampOpacity(opacity) })
}

func (w *Workspace) editDraft(fn func(*Draft)) {
	w.mutate(func() (ChangeKind, ShapeID) {
		fn(&w.sel.draft)
		id, _ := w.sel.Selected()
		return ChangeDraft, id
	})
}

// --- View ---

// SetZoom sets the zoom, clamped to the view limits.
func (w *Workspace) SetZoom(z float64) {
	w.mutate(func() (ChangeKind, ShapeID) {
		w.view.SetZoom(z)
		return ChangeView, 0
	})
}

// UpdateView sets zoom (clamped) and offset together.
func (w *Workspace) UpdateView(z float64, offset Vec2) {
	w.mutate(func() (ChangeKind, ShapeID) {
		w.view.Update(z, offset)
		return ChangeView, 0
	})
}

// Pan shifts the view by (dx, dy) viewport pixels.
func (w *Workspace) Pan(dx, dy float64) {
	w.mutate(func() (ChangeKind, ShapeID) {
		w.view.Pan(dx, dy)
		return ChangeView, 0
	})
}

// ZoomAt scales the zoom by factor around a viewport pixel.
func (w *Workspace) ZoomAt(factor float64, screen Vec2) {
	w.mutate(func() (ChangeKind, ShapeID) {
		w.view.ZoomAt(factor, screen)
		return ChangeView, 0
	})
}

// ResetView fits the view to all shapes in a viewport of the given size.
// It returns false, leaving the view unchanged, when the content has no
// area.
func (w *Workspace) ResetView(viewportW, viewportH float64) bool {
	var ok bool
	w.mutate(func() (ChangeKind, ShapeID) {
		if ok = w.view.Reset(w.store.Shapes(), viewportW, viewportH); !ok {
			return 0, 0
		}
		return ChangeView, 0
	})
	return ok
}

// ResetViewAnimated is ResetView tweened over duration seconds. Drive it
// with Advance.
func (w *Workspace) ResetViewAnimated(viewportW, viewportH float64, duration float32, easeFn ease.TweenFunc) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	bounds, ok := w.store.Bounds()
	if !ok {
		w.view.AnimateTo(w.view.Limits().DefaultZoom, Vec2{}, duration, easeFn)
		return true
	}
	zoom, offset, ok := w.view.FitTarget(bounds, viewportW, viewportH)
	if !ok {
		return false
	}
	w.view.AnimateTo(zoom, offset, duration, easeFn)
	return true
}

// Advance steps a running view animation by dt seconds.
func (w *Workspace) Advance(dt float32) {
	w.mutate(func() (ChangeKind, ShapeID) {
		if !w.view.Advance(dt) {
			return 0, 0
		}
		return ChangeView, 0
	})
}

// --- Panels ---

// SetControlsPanelOpen sets the controls panel flag.
func (w *Workspace) SetControlsPanelOpen(open bool) {
	w.editPanels(func(p *Panels) { p.ControlsOpen = open })
}

// SetShapeListOpen sets the shape list flag.
func (w *Workspace) SetShapeListOpen(open bool) {
	w.editPanels(func(p *Panels) { p.ShapeListOpen = open })
}

// ToggleControlsPanel flips the controls panel flag.
func (w *Workspace) ToggleControlsPanel() {
	w.editPanels(func(p *Panels) { p.ControlsOpen = !p.ControlsOpen })
}

// ToggleShapeList flips the shape list flag.
func (w *Workspace) ToggleShapeList() {
	w.editPanels(func(p *Panels) { p.ShapeListOpen = !p.ShapeListOpen })
}

func (w *Workspace) editPanels(fn func(*Panels)) {
	w.mutate(func() (ChangeKind, ShapeID) {
		before := w.panels
		fn(&w.panels)
		if w.panels == before {
			return 0, 0
		}
		return ChangePanels, 0
	})
}

// --- Persistence ---

// Record captures the persisted form of the current state.
func (w *Workspace) Record() *Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	shapes := w.store.Shapes()
	rec := &Record{
		Version:             RecordVersion,
		Shapes:              make([]Shape, len(shapes)),
		Zoom:                w.view.ClampZoom(w.view.Zoom()),
		CanvasOffset:        w.view.Offset(),
		IsControlsPanelOpen: w.panels.ControlsOpen,
		IsShapeListOpen:     w.panels.ShapeListOpen,
	}
	for i, sh := range shapes {
		rec.Shapes[i] = *sh
	}
	if id, ok := w.sel.Selected(); ok {
		rec.SelectedShapeID = &id
	}
	return rec
}

// Hydrate replaces the whole state from a decoded record. A selected id
// that does not match a surviving shape leaves the workspace idle.
func (w *Workspace) Hydrate(rec *Record) {
	if rec == nil {
		return
	}
	w.mutate(func() (ChangeKind, ShapeID) {
		shapes := make([]*Shape, 0, len(rec.Shapes))
		for i := range rec.Shapes {
			sh := rec.Shapes[i]
			if !sh.Position.Finite() {
				continue
			}
			sh.Opacity = clampOpacity(sh.Opacity)
			shapes = append(shapes, &sh)
		}
		w.store.Replace(shapes)
		w.view.Update(rec.Zoom, rec.CanvasOffset)
		w.panels = Panels{ControlsOpen: rec.IsControlsPanelOpen, ShapeListOpen: rec.IsShapeListOpen}
		w.sel.reset()
		if rec.SelectedShapeID != nil {
			w.sel.selectID(w.store, *rec.SelectedShapeID)
		}
		w.logger.Debug("pixelshapes: workspace hydrated", "shapes", w.store.Len(), "zoom", w.view.Zoom())
		return ChangeHydrated | ChangeShapes | ChangeOrder | ChangeView | ChangePanels | ChangeSelection | ChangeDraft, 0
	})
}
