package pixelshapes

import (
	"fmt"
	"math"
)

// debugMaxShapeCount is the shape count above which debug mode warns that
// linear operations (remove, layer moves) will start to show up in drags.
const debugMaxShapeCount = 5000

// CheckInvariants verifies the cross-cutting invariants: the z-order holds
// each shape id exactly once and matches the shape table, the zoom is
// within bounds, and a selection references a live shape.
func (w *Workspace) CheckInvariants() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return checkInvariants(w)
}

func checkInvariants(w *Workspace) error {
	if err := checkStore(w.store); err != nil {
		return err
	}
	l := w.view.Limits()
	if z := w.view.Zoom(); math.IsNaN(z) || z < l.MinZoom || z > l.MaxZoom {
		return fmt.Errorf("zoom %v outside [%v, %v]", z, l.MinZoom, l.MaxZoom)
	}
	if id, ok := w.sel.Selected(); ok {
		if _, live := w.store.Shape(id); !live {
			return fmt.Errorf("selection references missing shape %d", id)
		}
	}
	return nil
}

func checkStore(s *ShapeStore) error {
	if len(s.order) != len(s.shapes) {
		return fmt.Errorf("order has %d ids, table has %d shapes", len(s.order), len(s.shapes))
	}
	seen := make(map[ShapeID]struct{}, len(s.order))
	for i, id := range s.order {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("id %d appears twice in order (index %d)", id, i)
		}
		seen[id] = struct{}{}
		sh, ok := s.shapes[id]
		if !ok {
			return fmt.Errorf("id %d at order index %d has no shape", id, i)
		}
		if sh.ID != id {
			return fmt.Errorf("shape stored under %d carries id %d", id, sh.ID)
		}
		if id > s.lastID {
			return fmt.Errorf("id %d is ahead of the id counter %d", id, s.lastID)
		}
	}
	return nil
}

// debugCheckInvariants panics with a descriptive message when a mutation
// broke an invariant. Only called in debug mode, with w.mu held.
func debugCheckInvariants(w *Workspace) {
	if err := checkInvariants(w); err != nil {
		panic("pixelshapes debug: " + err.Error())
	}
	if n := w.store.Len(); n > debugMaxShapeCount {
		w.logger.Warn("pixelshapes debug: shape count exceeds threshold", "shapes", n, "threshold", debugMaxShapeCount)
	}
}
