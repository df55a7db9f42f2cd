package pixelshapes

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// viewAnim holds active tweens for zoom and both offset components.
type viewAnim struct {
	zoom    *gween.Tween
	offsetX *gween.Tween
	offsetY *gween.Tween

	// exact targets, applied on the last frame to undo float32 rounding
	toZoom   float64
	toOffset Vec2
}

// ViewLimits bounds the zoom and configures fit-to-content.
type ViewLimits struct {
	MinZoom     float64
	MaxZoom     float64
	DefaultZoom float64
	Padding     float64
}

// DefaultViewLimits returns the package constants as limits.
func DefaultViewLimits() ViewLimits {
	return ViewLimits{MinZoom: MinZoom, MaxZoom: MaxZoom, DefaultZoom: DefaultZoom, Padding: FitPadding}
}

// normalized fills zero fields with defaults and orders min/max.
func (l ViewLimits) normalized() ViewLimits {
	d := DefaultViewLimits()
	if l.MinZoom <= 0 {
		l.MinZoom = d.MinZoom
	}
	if l.MaxZoom <= 0 {
		l.MaxZoom = d.MaxZoom
	}
	if l.MaxZoom < l.MinZoom {
		l.MinZoom, l.MaxZoom = l.MaxZoom, l.MinZoom
	}
	if l.DefaultZoom <= 0 {
		l.DefaultZoom = d.DefaultZoom
	}
	l.DefaultZoom = clamp(l.DefaultZoom, l.MinZoom, l.MaxZoom)
	if l.Padding < 0 {
		l.Padding = 0
	}
	return l
}

// View is the pan/zoom transform from world units to viewport pixels.
// A world point p is drawn at p*Zoom + Offset. Zoom stays inside
// [MinZoom, MaxZoom] after every write, including animation frames.
type View struct {
	zoom   float64
	offset Vec2
	limits ViewLimits

	anim *viewAnim
}

// NewView creates a view at the default zoom with the world origin at the
// viewport origin.
func NewView(limits ViewLimits) *View {
	limits = limits.normalized()
	return &View{zoom: limits.DefaultZoom, limits: limits}
}

// Zoom returns the current zoom.
func (v *View) Zoom() float64 { return v.zoom }

// Offset returns the viewport position of the world origin.
func (v *View) Offset() Vec2 { return v.offset }

// Limits returns the zoom bounds in effect.
func (v *View) Limits() ViewLimits { return v.limits }

// ClampZoom clamps z into the view's zoom bounds. NaN maps to the default
// zoom.
func (v *View) ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return v.limits.DefaultZoom
	}
	return clamp(z, v.limits.MinZoom, v.limits.MaxZoom)
}

// SetZoom clamps and stores z. Any running animation is cancelled.
func (v *View) SetZoom(z float64) {
	v.anim = nil
	v.zoom = v.ClampZoom(z)
}

// SetOffset stores the offset as given. A non-finite offset is ignored.
// Any running animation is cancelled.
func (v *View) SetOffset(offset Vec2) {
	v.anim = nil
	if offset.Finite() {
		v.offset = offset
	}
}

// Update sets zoom (clamped) and offset together. A non-finite offset
// keeps the current one.
func (v *View) Update(z float64, offset Vec2) {
	v.anim = nil
	v.zoom = v.ClampZoom(z)
	if offset.Finite() {
		v.offset = offset
	}
}

// Pan shifts the offset by (dx, dy) viewport pixels.
func (v *View) Pan(dx, dy float64) {
	v.SetOffset(Vec2{v.offset.X + dx, v.offset.Y + dy})
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// the given viewport pixel fixed, as a wheel-zoom gesture expects.
func (v *View) ZoomAt(factor float64, screen Vec2) {
	if factor <= 0 {
		return
	}
	world := v.ScreenToWorld(screen)
	z := v.ClampZoom(v.zoom * factor)
	v.Update(z, screen.Sub(world.Scale(z)))
}

// WorldToScreen converts world coordinates to viewport pixels.
func (v *View) WorldToScreen(p Vec2) Vec2 {
	return p.Scale(v.zoom).Add(v.offset)
}

// ScreenToWorld converts viewport pixels to world coordinates.
func (v *View) ScreenToWorld(p Vec2) Vec2 {
	return p.Sub(v.offset).Scale(1 / v.zoom)
}

// VisibleBounds returns the world-space rectangle covered by a viewport of
// the given size.
func (v *View) VisibleBounds(viewportW, viewportH float64) Rect {
	tl := v.ScreenToWorld(Vec2{})
	return Rect{X: tl.X, Y: tl.Y, Width: viewportW / v.zoom, Height: viewportH / v.zoom}
}

// FitTarget computes the fit-to-content transform for a content box and
// viewport. ok is false when the content has no area, in which case the
// view should be left as it is.
func (v *View) FitTarget(content Rect, viewportW, viewportH float64) (zoom float64, offset Vec2, ok bool) {
	if content.Width <= 0 || content.Height <= 0 {
		return 0, Vec2{}, false
	}
	pad := v.limits.Padding
	availW := math.Max(1, viewportW-2*pad)
	availH := math.Max(1, viewportH-2*pad)
	zoom = v.ClampZoom(math.Min(availW/content.Width, availH/content.Height))
	center := content.Center()
	offset = Vec2{viewportW / 2, viewportH / 2}.Sub(center.Scale(zoom))
	return zoom, offset, true
}

// Reset fits the view to the given shapes. An empty set restores the
// default zoom with the origin at the viewport corner. Degenerate content
// (zero width or height) leaves the view unchanged and returns false.
func (v *View) Reset(shapes []*Shape, viewportW, viewportH float64) bool {
	if len(shapes) == 0 {
		v.Update(v.limits.DefaultZoom, Vec2{})
		return true
	}
	bounds := shapes[0].Bounds()
	for _, sh := range shapes[1:] {
		bounds = bounds.Union(sh.Bounds())
	}
	zoom, offset, ok := v.FitTarget(bounds, viewportW, viewportH)
	if !ok {
		return false
	}
	v.Update(zoom, offset)
	return true
}

// AnimateTo tweens zoom and offset to the target over duration seconds. The
// target zoom is clamped up front; call Advance each frame.
func (v *View) AnimateTo(zoom float64, offset Vec2, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.OutCubic
	}
	zoom = v.ClampZoom(zoom)
	if !offset.Finite() {
		offset = v.offset
	}
	if duration <= 0 {
		v.Update(zoom, offset)
		return
	}
	v.anim = &viewAnim{
		zoom:     gween.New(float32(v.zoom), float32(zoom), duration, easeFn),
		offsetX:  gween.New(float32(v.offset.X), float32(offset.X), duration, easeFn),
		offsetY:  gween.New(float32(v.offset.Y), float32(offset.Y), duration, easeFn),
		toZoom:   zoom,
		toOffset: offset,
	}
}

// Animating reports whether an AnimateTo tween is in progress.
func (v *View) Animating() bool { return v.anim != nil }

// Advance steps a running animation by dt seconds. It reports whether the
// view changed.
func (v *View) Advance(dt float32) bool {
	if v.anim == nil {
		return false
	}
	z, doneZ := v.anim.zoom.Update(dt)
	x, doneX := v.anim.offsetX.Update(dt)
	y, doneY := v.anim.offsetY.Update(dt)
	if doneZ && doneX && doneY {
		v.zoom, v.offset = v.anim.toZoom, v.anim.toOffset
		v.anim = nil
		return true
	}
	v.zoom = v.ClampZoom(float64(z))
	v.offset = Vec2{float64(x), float64(y)}
	return true
}
