package pixelshapes

import (
	"errors"
	"strings"
)

// ShapeID identifies a shape for the lifetime of a workspace and across
// reloads.
type ShapeID int64

// Draft defaults used whenever the selection machine returns to idle.
const (
	DefaultShapeKind = KindEllipse
	DefaultWidth     = 10
	DefaultHeight    = 10
	DefaultColor     = "#4a90d9"
	DefaultOpacity   = 1.0
)

// ErrNoSelection is returned by Workspace.UpdateSelectedShape when nothing is
// selected or the selected shape no longer exists.
var ErrNoSelection = errors.New("pixelshapes: no shape selected")

// Shape is one placed pixel-art primitive. A *Shape reachable from a
// ShapeStore is never modified in place: every edit installs a new value, so
// pointer equality doubles as change detection.
type Shape struct {
	ID        ShapeID   `json:"id"`
	Kind      ShapeKind `json:"kind"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	BaseColor string    `json:"baseColor"`
	Opacity   float64   `json:"opacity"`
	Position  Vec2      `json:"position"`
}

// Bounds returns the world-space box covered by the shape.
func (s *Shape) Bounds() Rect {
	return Rect{X: s.Position.X, Y: s.Position.Y, Width: float64(s.Width), Height: float64(s.Height)}
}

// Draft holds the pending, uncommitted form values used to create a shape or
// edit the selected one. A nil Width or Height models an empty input.
type Draft struct {
	Kind    ShapeKind
	Width   *int
	Height  *int
	Color   string
	Opacity float64
}

// Dim returns a pointer to n, for filling Draft dimensions.
func Dim(n int) *int { return &n }

// DefaultDraft returns the creation defaults shown while nothing is selected.
func DefaultDraft() Draft {
	return Draft{
		Kind:    DefaultShapeKind,
		Width:   Dim(DefaultWidth),
		Height:  Dim(DefaultHeight),
		Color:   DefaultColor,
		Opacity: DefaultOpacity,
	}
}

// draftFromShape mirrors a shape's editable fields into a fresh draft.
func draftFromShape(s *Shape) Draft {
	return Draft{
		Kind:    s.Kind,
		Width:   Dim(s.Width),
		Height:  Dim(s.Height),
		Color:   s.BaseColor,
		Opacity: s.Opacity,
	}
}

// Validate reports every problem with the draft's kind and dimensions.
func (d Draft) Validate() error {
	problems := ValidateDimensions(d.Width, d.Height)
	if !d.Kind.Valid() {
		problems = append(problems, "kind "+d.Kind.String()+" is not a known shape")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateDimensions checks width and height independently and returns one
// human-readable message per problem found. Both are always checked.
func ValidateDimensions(width, height *int) []string {
	var problems []string
	problems = appendDimensionProblem(problems, "width", width)
	problems = appendDimensionProblem(problems, "height", height)
	return problems
}

func appendDimensionProblem(problems []string, name string, v *int) []string {
	switch {
	case v == nil:
		return append(problems, name+" is required")
	case *v <= 0:
		return append(problems, name+" must be a positive number")
	}
	return problems
}

// ValidationError lists the reasons a draft was rejected. The workspace is
// left untouched when one is returned.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "pixelshapes: invalid shape: " + strings.Join(e.Problems, "; ")
}
