package pixelshapes

import (
	"encoding/json"
	"errors"
	"fmt"
)

// scriptStep is a single action in a command script. Only the fields the
// action needs are read.
type scriptStep struct {
	Action string `json:"action"`

	// Ref names the shape created by an "add" step so later steps can
	// target it; ID targets a shape directly.
	Ref string  `json:"ref,omitempty"`
	ID  ShapeID `json:"id,omitempty"`

	X  float64 `json:"x,omitempty"`
	Y  float64 `json:"y,omitempty"`
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	Kind    string   `json:"kind,omitempty"`
	Width   *int     `json:"width,omitempty"`
	Height  *int     `json:"height,omitempty"`
	Color   string   `json:"color,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	// Clear lists draft dimensions to empty ("width", "height").
	Clear []string `json:"clear,omitempty"`

	Direction string  `json:"direction,omitempty"`
	From      int     `json:"from,omitempty"`
	To        int     `json:"to,omitempty"`
	Zoom      float64 `json:"zoom,omitempty"`
	Factor    float64 `json:"factor,omitempty"`
	ViewportW float64 `json:"viewportW,omitempty"`
	ViewportH float64 `json:"viewportH,omitempty"`

	Panel string `json:"panel,omitempty"` // controls | shapes
	Open  *bool  `json:"open,omitempty"`  // nil toggles
}

// scriptFile is the top-level JSON structure for a command script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// Script is a parsed sequence of workspace commands, used to replay edits
// from the CLI and to drive tests.
type Script struct {
	steps []scriptStep
}

// StepError records a step the workspace rejected.
type StepError struct {
	Index  int
	Action string
	Err    error
}

func (e StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Action, e.Err)
}

func (e StepError) Unwrap() error { return e.Err }

// ScriptResult summarizes a run.
type ScriptResult struct {
	Applied  int
	Rejected []StepError
	// Refs maps the refs of successful "add" steps to the created ids.
	Refs map[string]ShapeID
}

// LoadScript parses a JSON command script.
func LoadScript(jsonData []byte) (*Script, error) {
	var file scriptFile
	if err := json.Unmarshal(jsonData, &file); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	return &Script{steps: file.Steps}, nil
}

// Len returns the number of steps.
func (s *Script) Len() int { return len(s.steps) }

var errUnknownRef = errors.New("unknown shape ref")

// Run applies every step to ws in order. Steps the workspace rejects
// (validation errors, missing shapes) are collected in the result and the
// run continues; an unknown action stops the run with an error.
func (s *Script) Run(ws *Workspace) (ScriptResult, error) {
	res := ScriptResult{Refs: make(map[string]ShapeID)}
	for i, st := range s.steps {
		err := s.apply(ws, st, res.Refs)
		var unknown unknownActionError
		switch {
		case errors.As(err, &unknown):
			return res, StepError{Index: i, Action: st.Action, Err: err}
		case err != nil:
			res.Rejected = append(res.Rejected, StepError{Index: i, Action: st.Action, Err: err})
		default:
			res.Applied++
		}
	}
	return res, nil
}

type unknownActionError string

func (e unknownActionError) Error() string { return fmt.Sprintf("unknown action %q", string(e)) }

var (
	errShapeMissing = errors.New("shape not found")
	errNoChange     = errors.New("no change")
)

func (s *Script) apply(ws *Workspace, st scriptStep, refs map[string]ShapeID) error {
	switch st.Action {
	case "draft":
		d, err := st.draft(ws.Draft())
		if err != nil {
			return err
		}
		ws.SetDraft(d)
	case "add":
		d, err := st.draft(ws.Draft())
		if err != nil {
			return err
		}
		sh, err := ws.AddShape(d, Vec2{st.X, st.Y})
		if err != nil {
			return err
		}
		if st.Ref != "" {
			refs[st.Ref] = sh.ID
		}
	case "update":
		d, err := st.draft(ws.Draft())
		if err != nil {
			return err
		}
		ws.SetDraft(d)
		return ws.UpdateSelectedShape(d)
	case "select":
		id, err := st.target(refs)
		if err != nil {
			return err
		}
		ws.Select(id)
	case "clear":
		ws.ClearSelection()
	case "remove":
		id, err := st.target(refs)
		if err != nil {
			return err
		}
		if !ws.RemoveShape(id) {
			return errShapeMissing
		}
	case "move":
		id, err := st.target(refs)
		if err != nil {
			return err
		}
		if !ws.MoveShape(id, Vec2{st.X, st.Y}) {
			return errShapeMissing
		}
	case "layer":
		id, err := st.target(refs)
		if err != nil {
			return err
		}
		dir, ok := ParseLayerDirection(st.Direction)
		if !ok {
			return fmt.Errorf("unknown direction %q", st.Direction)
		}
		if !ws.MoveShapeLayer(id, dir) {
			return errNoChange
		}
	case "reorder":
		n := ws.Len()
		if st.From < 0 || st.From >= n || st.To < 0 || st.To >= n {
			return fmt.Errorf("reorder %d→%d out of range for %d shapes", st.From, st.To, n)
		}
		ws.ReorderShapes(st.From, st.To)
	case "zoom":
		ws.SetZoom(st.Zoom)
	case "view":
		ws.UpdateView(st.Zoom, Vec2{st.X, st.Y})
	case "pan":
		ws.Pan(st.DX, st.DY)
	case "zoomAt":
		ws.ZoomAt(st.Factor, Vec2{st.X, st.Y})
	case "reset":
		if !ws.ResetView(st.ViewportW, st.ViewportH) {
			return errNoChange
		}
	case "panel":
		return st.panel(ws)
	default:
		return unknownActionError(st.Action)
	}
	return nil
}

// target resolves Ref (preferred) or ID.
func (st scriptStep) target(refs map[string]ShapeID) (ShapeID, error) {
	if st.Ref == "" {
		return st.ID, nil
	}
	id, ok := refs[st.Ref]
	if !ok {
		return 0, fmt.Errorf("%w %q", errUnknownRef, st.Ref)
	}
	return id, nil
}

// draft overlays the step's draft fields on base.
func (st scriptStep) draft(base Draft) (Draft, error) {
	d := base
	if st.Kind != "" {
		k, err := ParseShapeKind(st.Kind)
		if err != nil {
			return Draft{}, err
		}
		d.Kind = k
	}
	if st.Width != nil {
		d.Width = Dim(*st.Width)
	}
	if st.Height != nil {
		d.Height = Dim(*st.Height)
	}
	for _, f := range st.Clear {
		switch f {
		case "width":
			d.Width = nil
		case "height":
			d.Height = nil
		}
	}
	if st.Color != "" {
		d.Color = st.Color
	}
	if st.Opacity != nil {
		d.Opacity = clampOpacity(*st.Opacity)
	}
	return d, nil
}

func (st scriptStep) panel(ws *Workspace) error {
	switch st.Panel {
	case "controls":
		if st.Open == nil {
			ws.ToggleControlsPanel()
		} else {
			ws.SetControlsPanelOpen(*st.Open)
		}
	case "shapes":
		if st.Open == nil {
			ws.ToggleShapeList()
		} else {
			ws.SetShapeListOpen(*st.Open)
		}
	default:
		return fmt.Errorf("unknown panel %q", st.Panel)
	}
	return nil
}
