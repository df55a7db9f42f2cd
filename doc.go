// Package pixelshapes is the state engine of a pixel-art shape editor.
//
// A [Workspace] owns everything the editor shows: an ordered collection of
// shapes (ellipses, crescents and boxes with a size, color, opacity and
// world position), the selection and the pending form values ("draft"),
// the zoom/pan view, and two UI panel flags. Rendering and input live
// elsewhere; see the preview package and examples/editor for an Ebitengine
// front end.
//
// # Quick start
//
//	ws := pixelshapes.New()
//	sh, err := ws.AddShape(pixelshapes.DefaultDraft(), pixelshapes.Vec2{X: 12, Y: 4})
//	if err != nil {
//		// *ValidationError: width or height missing or not positive
//	}
//	ws.Select(sh.ID)
//	ws.SetDraftColor("#ff0000")
//	_ = ws.UpdateSelectedShape(ws.Draft())
//
// # Shapes and z-order
//
// Shapes are stored as an id → *Shape table plus a separate back-to-front
// order of ids. A shape is never modified in place: every edit stores a new
// *Shape, so pointer comparison tells a renderer whether to redraw it.
// Moving a shape leaves the order slice and every other shape pointer
// untouched, which keeps drags cheap. Layer commands ([LayerToFront],
// [LayerToBack], [LayerForward], [LayerBackward]) and
// [Workspace.ReorderShapes] produce a new order slice.
//
// # Selection
//
// The workspace is either idle (the draft holds defaults for the next add)
// or editing one shape (the draft mirrors that shape). Adding or updating a
// shape returns to idle. Removing the selected shape selects the new bottom
// shape, or returns to idle when none remain.
//
// # View
//
// The view maps world units to viewport pixels:
//
//	screen = world × zoom + offset
//
// The zoom is clamped to [MinZoom, MaxZoom] on every write.
// [Workspace.ResetView] fits all shapes into the viewport with a margin;
// [Workspace.ResetViewAnimated] tweens there using [github.com/tanema/gween].
//
// # Change notification
//
// Every mutation that changes something publishes one [Event] after it has
// completed. [Workspace.Subscribe] receives all of them. [Watch] and
// [WatchComparable] run a callback only when a selected value changes:
//
//	cancel := pixelshapes.WatchComparable(ws,
//		func(w *pixelshapes.Workspace) pixelshapes.ViewState { return w.View() },
//		func(cur, prev pixelshapes.ViewState) { redrawGrid(cur) })
//	defer cancel()
//
// # Persistence
//
// A [Persister] hydrates a workspace from a [Storage] at startup and writes
// a versioned JSON [Record] back, debounced by [DefaultSaveDelay], whenever
// shapes, the view or the panel flags change. The draft is transient; the
// selection is saved and restored only when its shape survives loading.
// Records from another version, or that fail to parse, are discarded;
// individual malformed shapes are dropped without failing the load. Implementations of Storage live in the storage package.
//
//	p := pixelshapes.NewPersister(store, pixelshapes.PersisterOptions{})
//	p.Restore(ctx, ws)
//	defer p.Close(ctx)
//
// # Scripts
//
// [LoadScript] parses a JSON list of workspace commands. The CLI uses it to
// replay edits; tests use it to drive the workspace.
//
// # Debug mode
//
// [WithDebug] (or [Workspace.SetDebugMode]) checks the workspace invariants
// after every mutation and panics on the first violation.
package pixelshapes
