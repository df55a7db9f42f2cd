package pixelshapes

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// RecordVersion is the schema version written by this package. Records with
// any other version are treated as absent; there is no migration path.
const RecordVersion = 1

var (
	// ErrCorruptRecord is returned by DecodeRecord for data that is not a
	// JSON object.
	ErrCorruptRecord = errors.New("pixelshapes: corrupt workspace record")
	// ErrVersionMismatch is returned by DecodeRecord when the record was
	// written under a different schema version.
	ErrVersionMismatch = errors.New("pixelshapes: workspace record version mismatch")
)

// Record is the persisted form of a workspace.
type Record struct {
	Version             int      `json:"version"`
	Shapes              []Shape  `json:"shapes"`
	Zoom                float64  `json:"zoom"`
	CanvasOffset        Vec2     `json:"canvasOffset"`
	IsControlsPanelOpen bool     `json:"isControlsPanelOpen"`
	IsShapeListOpen     bool     `json:"isShapeListOpen"`
	SelectedShapeID     *ShapeID `json:"selectedShapeId,omitempty"`
}

// EncodeRecord serializes rec as JSON.
func EncodeRecord(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("pixelshapes: encode record: %w", err)
	}
	return data, nil
}

// rawShape mirrors Shape with every field optional so each one can be
// checked on its own.
type rawShape struct {
	ID        *float64  `json:"id"`
	Kind      *string   `json:"kind"`
	Width     *float64  `json:"width"`
	Height    *float64  `json:"height"`
	BaseColor *string   `json:"baseColor"`
	Opacity   *float64  `json:"opacity"`
	Position  *rawPoint `json:"position"`
}

type rawPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (p *rawPoint) vec() (Vec2, bool) {
	if p == nil || p.X == nil || p.Y == nil {
		return Vec2{}, false
	}
	return Vec2{*p.X, *p.Y}, true
}

// DecodeRecord parses and validates a stored record field by field. Shapes
// that fail validation are dropped individually, as are repeated ids; other
// fields fall back to defaults (zoom is clamped into limits). The selected
// id survives only if it names a surviving shape.
//
// Data that is not a JSON object yields ErrCorruptRecord, and a missing or
// different version yields ErrVersionMismatch. Callers treat both as "no
// prior state".
func DecodeRecord(data []byte, limits ViewLimits) (*Record, error) {
	limits = limits.normalized()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrCorruptRecord
	}

	var version float64
	if err := json.Unmarshal(fields["version"], &version); err != nil || version != RecordVersion {
		return nil, fmt.Errorf("%w: got %s, want %d", ErrVersionMismatch, fields["version"], RecordVersion)
	}

	rec := &Record{
		Version: RecordVersion,
		Shapes:  decodeShapes(fields["shapes"]),
		Zoom:    limits.DefaultZoom,
	}

	var zoom *float64
	if err := json.Unmarshal(fields["zoom"], &zoom); err == nil && zoom != nil {
		rec.Zoom = clamp(*zoom, limits.MinZoom, limits.MaxZoom)
	}

	var offset rawPoint
	if err := json.Unmarshal(fields["canvasOffset"], &offset); err == nil {
		if v, ok := offset.vec(); ok {
			rec.CanvasOffset = v
		}
	}

	rec.IsControlsPanelOpen = decodeBool(fields["isControlsPanelOpen"])
	rec.IsShapeListOpen = decodeBool(fields["isShapeListOpen"])

	var selected *float64
	if err := json.Unmarshal(fields["selectedShapeId"], &selected); err == nil && selected != nil {
		if id, ok := wholeID(*selected); ok {
			for _, sh := range rec.Shapes {
				if sh.ID == id {
					rec.SelectedShapeID = &id
					break
				}
			}
		}
	}
	return rec, nil
}

func decodeShapes(raw json.RawMessage) []Shape {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Shape{}
	}
	shapes := make([]Shape, 0, len(items))
	seen := make(map[ShapeID]struct{}, len(items))
	for _, item := range items {
		sh, ok := decodeShape(item)
		if !ok {
			continue
		}
		if _, dup := seen[sh.ID]; dup {
			continue
		}
		seen[sh.ID] = struct{}{}
		shapes = append(shapes, sh)
	}
	return shapes
}

// decodeShape validates one stored shape against the full schema.
func decodeShape(item json.RawMessage) (Shape, bool) {
	var r rawShape
	if err := json.Unmarshal(item, &r); err != nil {
		return Shape{}, false
	}
	if r.ID == nil || r.Kind == nil || r.Width == nil || r.Height == nil ||
		r.BaseColor == nil || r.Opacity == nil {
		return Shape{}, false
	}
	id, ok := wholeID(*r.ID)
	if !ok {
		return Shape{}, false
	}
	kind, err := ParseShapeKind(*r.Kind)
	if err != nil {
		return Shape{}, false
	}
	width, ok := positiveDimension(*r.Width)
	if !ok {
		return Shape{}, false
	}
	height, ok := positiveDimension(*r.Height)
	if !ok {
		return Shape{}, false
	}
	if *r.Opacity < 0 || *r.Opacity > 1 {
		return Shape{}, false
	}
	pos, ok := r.Position.vec()
	if !ok {
		return Shape{}, false
	}
	return Shape{
		ID:        id,
		Kind:      kind,
		Width:     width,
		Height:    height,
		BaseColor: *r.BaseColor,
		Opacity:   *r.Opacity,
		Position:  pos,
	}, true
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

// wholeID accepts integral numbers that fit a ShapeID.
func wholeID(f float64) (ShapeID, bool) {
	if math.Trunc(f) != f || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return ShapeID(f), true
}

// positiveDimension accepts positive numbers and rounds them to whole
// pixels; values that round to zero are rejected.
func positiveDimension(f float64) (int, bool) {
	if !(f > 0) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0, false
	}
	n := int(math.Round(f))
	if n < 1 {
		return 0, false
	}
	return n, true
}
