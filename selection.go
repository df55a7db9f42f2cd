package pixelshapes

// SelectionMode is the state of the draft/selection machine.
type SelectionMode uint8

const (
	ModeIdle    SelectionMode = iota // creating: draft holds defaults or user input
	ModeEditing                      // editing: draft mirrors the selected shape
)

func (m SelectionMode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "idle"
}

// Selection tracks create-vs-edit mode and the pending form values. It reads
// the store to resolve ids but never mutates shapes itself.
type Selection struct {
	selected ShapeID
	editing  bool
	draft    Draft
}

func newSelection() Selection {
	return Selection{draft: DefaultDraft()}
}

// Mode returns the current state.
func (s *Selection) Mode() SelectionMode {
	if s.editing {
		return ModeEditing
	}
	return ModeIdle
}

// Selected returns the selected id. ok is false while idle.
func (s *Selection) Selected() (id ShapeID, ok bool) {
	return s.selected, s.editing
}

// Draft returns a copy of the pending form values.
func (s *Selection) Draft() Draft {
	d := s.draft
	if d.Width != nil {
		d.Width = Dim(*d.Width)
	}
	if d.Height != nil {
		d.Height = Dim(*d.Height)
	}
	return d
}

// selectID binds the selection to id if it resolves in store, otherwise
// resets to idle.
func (s *Selection) selectID(store *ShapeStore, id ShapeID) {
	sh, ok := store.Shape(id)
	if !ok {
		s.reset()
		return
	}
	s.selected = id
	s.editing = true
	s.draft = draftFromShape(sh)
}

// reset returns to idle with creation defaults.
func (s *Selection) reset() {
	s.selected = 0
	s.editing = false
	s.draft = DefaultDraft()
}

// afterRemove re-runs selection against the new first shape when the removed
// shape was the selected one.
func (s *Selection) afterRemove(store *ShapeStore, removed ShapeID) {
	if !s.editing || s.selected != removed {
		return
	}
	if order := store.Order(); len(order) > 0 {
		s.selectID(store, order[0])
		return
	}
	s.reset()
}
