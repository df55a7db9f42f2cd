package pixelshapes

import (
	"fmt"
	"math"
)

// View bounds and fit-to-content defaults.
const (
	MinZoom     = 1.0
	MaxZoom     = 64.0
	DefaultZoom = 10.0

	// FitPadding is the viewport margin, in pixels, kept around content by
	// View.Reset.
	FitPadding = 50.0
)

// Vec2 is a 2D vector used for positions, offsets and sizes.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Round returns v with both components rounded to the nearest integer.
func (v Vec2) Round() Vec2 { return Vec2{math.Round(v.X), math.Round(v.Y)} }

// Finite reports whether both components are neither NaN nor infinite.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	minX := math.Min(r.X, other.X)
	minY := math.Min(r.Y, other.Y)
	maxX := math.Max(r.X+r.Width, other.X+other.Width)
	maxY := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.Width/2, r.Y + r.Height/2}
}

// ShapeKind selects the pixel-mask primitive a shape is drawn with.
type ShapeKind uint8

const (
	KindEllipse  ShapeKind = iota // filled ellipse inscribed in the shape box
	KindCrescent                  // ellipse with an offset ellipse cut out of it
	KindBox                       // filled rectangle
)

var kindNames = [...]string{
	KindEllipse:  "ellipse",
	KindCrescent: "crescent",
	KindBox:      "box",
}

// String returns the persisted name of the kind.
func (k ShapeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", uint8(k))
}

// Valid reports whether k is one of the enumerated kinds.
func (k ShapeKind) Valid() bool {
	return int(k) < len(kindNames)
}

// ParseShapeKind maps a persisted kind name back to its ShapeKind.
func ParseShapeKind(s string) (ShapeKind, error) {
	for i, name := range kindNames {
		if name == s {
			return ShapeKind(i), nil
		}
	}
	return 0, fmt.Errorf("pixelshapes: unknown shape kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k ShapeKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("pixelshapes: unknown shape kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ShapeKind) UnmarshalText(b []byte) error {
	parsed, err := ParseShapeKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// LayerDirection identifies a z-order move relative to the current position.
type LayerDirection uint8

const (
	LayerToFront  LayerDirection = iota // topmost (end of order)
	LayerToBack                         // bottommost (start of order)
	LayerForward                        // one step toward the front
	LayerBackward                       // one step toward the back
)

var directionNames = map[string]LayerDirection{
	"toFront":  LayerToFront,
	"toBack":   LayerToBack,
	"forward":  LayerForward,
	"backward": LayerBackward,
}

// ParseLayerDirection maps the names used by scripts and the CLI
// (toFront, toBack, forward, backward) to a LayerDirection. Unknown names
// return ok=false.
func ParseLayerDirection(s string) (dir LayerDirection, ok bool) {
	dir, ok = directionNames[s]
	return dir, ok
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// clampOpacity clamps v into [0, 1]. NaN maps to DefaultOpacity.
func clampOpacity(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultOpacity
	}
	return clamp(v, 0, 1)
}
