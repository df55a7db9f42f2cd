package pixelshapes

// ShapeStore is the normalized shape collection: an id → *Shape table plus a
// separate back-to-front z-order. The two always hold the same id set.
//
// Order slices are never mutated in place. Any operation that changes the
// z-order installs a fresh slice, and operations that do not (Move, Update)
// leave the previous slice in place, so callers can detect order changes with
// SameOrder.
type ShapeStore struct {
	order  []ShapeID
	shapes map[ShapeID]*Shape
	lastID ShapeID
}

// NewShapeStore creates an empty store.
func NewShapeStore() *ShapeStore {
	return &ShapeStore{shapes: make(map[ShapeID]*Shape)}
}

// nextID is a plain counter (no atomic; the owning Workspace serializes
// access). It never goes backwards, so removed ids are never reissued.
func (s *ShapeStore) nextID() ShapeID {
	s.lastID++
	return s.lastID
}

// Len returns the number of shapes.
func (s *ShapeStore) Len() int {
	return len(s.order)
}

// Order returns the z-order, back to front. The returned slice MUST NOT be
// mutated by the caller.
func (s *ShapeStore) Order() []ShapeID {
	return s.order
}

// Shape returns the shape with the given id.
func (s *ShapeStore) Shape(id ShapeID) (*Shape, bool) {
	sh, ok := s.shapes[id]
	return sh, ok
}

// Shapes returns the shapes in z-order, back to front.
func (s *ShapeStore) Shapes() []*Shape {
	out := make([]*Shape, len(s.order))
	for i, id := range s.order {
		out[i] = s.shapes[id]
	}
	return out
}

// IndexOf returns the z-order index of id, or -1 if absent.
func (s *ShapeStore) IndexOf(id ShapeID) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return -1
}

// Bounds returns the world-space box covering every shape. ok is false when
// the store is empty.
func (s *ShapeStore) Bounds() (r Rect, ok bool) {
	for i, id := range s.order {
		b := s.shapes[id].Bounds()
		if i == 0 {
			r = b
			continue
		}
		r = r.Union(b)
	}
	return r, len(s.order) > 0
}

// Add validates the draft and appends a new shape built from it on top of the
// z-order. The position is rounded to whole world units. On a validation
// failure the store is unchanged and the error is a *ValidationError.
func (s *ShapeStore) Add(d Draft, pos Vec2) (*Shape, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if !pos.Finite() {
		return nil, &ValidationError{Problems: []string{"position must be a finite number"}}
	}
	sh := &Shape{
		ID:        s.nextID(),
		Kind:      d.Kind,
		Width:     *d.Width,
		Height:    *d.Height,
		BaseColor: d.Color,
		Opacity:   clampOpacity(d.Opacity),
		Position:  pos.Round(),
	}
	s.shapes[sh.ID] = sh
	s.order = appendID(s.order, sh.ID)
	return sh, nil
}

// Update replaces the editable fields (kind, size, color, opacity) of an
// existing shape, keeping its id, position and z-order.
func (s *ShapeStore) Update(id ShapeID, d Draft) (*Shape, error) {
	old, ok := s.shapes[id]
	if !ok {
		return nil, ErrNoSelection
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	sh := &Shape{
		ID:        old.ID,
		Kind:      d.Kind,
		Width:     *d.Width,
		Height:    *d.Height,
		BaseColor: d.Color,
		Opacity:   clampOpacity(d.Opacity),
		Position:  old.Position,
	}
	s.shapes[id] = sh
	return sh, nil
}

// Remove deletes the shape from both the table and the z-order.
// It reports whether the shape existed.
func (s *ShapeStore) Remove(id ShapeID) bool {
	if _, ok := s.shapes[id]; !ok {
		return false
	}
	delete(s.shapes, id)
	idx := s.IndexOf(id)
	order := make([]ShapeID, 0, len(s.order)-1)
	order = append(order, s.order[:idx]...)
	s.order = append(order, s.order[idx+1:]...)
	return true
}

// Move replaces only the position of a shape. The z-order slice and every
// other shape keep their identity. It reports whether the shape moved: an
// unknown id or a non-finite position is a no-op.
func (s *ShapeStore) Move(id ShapeID, pos Vec2) bool {
	old, ok := s.shapes[id]
	if !ok || !pos.Finite() {
		return false
	}
	sh := *old
	sh.Position = pos
	s.shapes[id] = &sh
	return true
}

// MoveLayer moves a shape within the z-order. Forward and backward steps are
// clamped to the ends. Unknown ids and directions are a no-op; it reports
// whether the order changed.
func (s *ShapeStore) MoveLayer(id ShapeID, dir LayerDirection) bool {
	from := s.IndexOf(id)
	if from < 0 {
		return false
	}
	last := len(s.order) - 1
	var to int
	switch dir {
	case LayerToFront:
		to = last
	case LayerToBack:
		to = 0
	case LayerForward:
		to = min(from+1, last)
	case LayerBackward:
		to = max(from-1, 0)
	default:
		return false
	}
	if to == from {
		return false
	}
	s.order = moveID(s.order, from, to)
	return true
}

// Reorder moves the id at index from to index to. Indices are validated by
// the caller (drag-reorder UI); out-of-range values panic.
func (s *ShapeStore) Reorder(from, to int) {
	n := len(s.order)
	if from < 0 || from >= n || to < 0 || to >= n {
		panic("pixelshapes: reorder index out of range")
	}
	if from == to {
		return
	}
	s.order = moveID(s.order, from, to)
}

// Replace discards the current contents and installs shapes in the given
// order. Later duplicates of an id are dropped. The id counter is advanced
// past every installed id so new shapes never collide with hydrated ones.
func (s *ShapeStore) Replace(shapes []*Shape) {
	s.shapes = make(map[ShapeID]*Shape, len(shapes))
	order := make([]ShapeID, 0, len(shapes))
	for _, sh := range shapes {
		if sh == nil {
			continue
		}
		if _, dup := s.shapes[sh.ID]; dup {
			continue
		}
		s.shapes[sh.ID] = sh
		order = append(order, sh.ID)
		if sh.ID > s.lastID {
			s.lastID = sh.ID
		}
	}
	s.order = order
}

// SameOrder reports whether a and b are the same z-order slice (same backing
// array and length), i.e. no order-changing operation ran between the two
// reads.
func SameOrder(a, b []ShapeID) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

// appendID appends id to order. Writing into spare capacity is safe for
// holders of the previous slice: they never see past their own length, and
// no operation shrinks an order slice in place.
func appendID(order []ShapeID, id ShapeID) []ShapeID {
	return append(order, id)
}

// moveID returns a copy of order with the element at from moved to to.
func moveID(order []ShapeID, from, to int) []ShapeID {
	out := make([]ShapeID, len(order))
	copy(out, order)
	id := out[from]
	// Shift elements to fill the gap and open the target slot.
	if from < to {
		copy(out[from:], out[from+1:to+1])
	} else {
		copy(out[to+1:], out[to:from])
	}
	out[to] = id
	return out
}
