// Package preview draws a pixelshapes workspace onto an Ebitengine image.
//
// Each distinct (kind, width, height) mask is rasterized once into a white
// texture; shapes are drawn from those textures with a color scale for their
// base color and opacity, and a GeoM for the view transform. Shapes outside
// the destination are culled.
package preview

import (
	"image/color"

	"github.com/gogpu/gg"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/pixelshapes"
)

// maxCachedMasks bounds the mask texture cache. When exceeded, textures not
// used in the last frame are released.
const maxCachedMasks = 256

type maskKey struct {
	kind pixelshapes.ShapeKind
	w, h int
}

type maskEntry struct {
	img   *ebiten.Image
	frame uint64
}

// Stats describes the last Draw call.
type Stats struct {
	Shapes   int // shapes considered
	Drawn    int // shapes inside the destination
	Textures int // cached mask textures
}

// Renderer draws workspace shapes. The zero value is not usable; call
// NewRenderer. A Renderer is not safe for concurrent use, matching
// Ebitengine's single draw goroutine.
type Renderer struct {
	// Background fills the destination before shapes are drawn. Nil leaves
	// the destination as is.
	Background color.Color
	// SelectionColor outlines the selected shape. Nil disables the outline.
	SelectionColor color.Color

	masks  map[maskKey]*maskEntry
	colors map[string]gg.RGBA
	frame  uint64
	stats  Stats
	op     ebiten.DrawImageOptions
}

// NewRenderer creates a renderer with a dark background and a white
// selection outline.
func NewRenderer() *Renderer {
	return &Renderer{
		Background:     color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff},
		SelectionColor: color.White,
		masks:          make(map[maskKey]*maskEntry),
		colors:         make(map[string]gg.RGBA),
	}
}

// Stats returns the statistics of the last Draw.
func (r *Renderer) Stats() Stats { return r.stats }

// Draw renders the workspace through its current view.
func (r *Renderer) Draw(dst *ebiten.Image, ws *pixelshapes.Workspace) {
	sel, ok := ws.Selected()
	if !ok {
		sel = 0
	}
	r.DrawShapes(dst, ws.Shapes(), ws.View(), sel)
}

// DrawShapes renders shapes back to front with the given view. selected is
// outlined; pass 0 for none.
func (r *Renderer) DrawShapes(dst *ebiten.Image, shapes []*pixelshapes.Shape, view pixelshapes.ViewState, selected pixelshapes.ShapeID) {
	r.frame++
	r.stats = Stats{Shapes: len(shapes)}
	if r.Background != nil {
		dst.Fill(r.Background)
	}
	bounds := dst.Bounds()
	screen := pixelshapes.Rect{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y), Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}

	var outline *pixelshapes.Shape
	for _, sh := range shapes {
		if sh.ID == selected {
			outline = sh
		}
		rect := screenRect(sh.Bounds(), view)
		if !rect.Intersects(screen) || sh.Opacity <= 0 {
			continue
		}
		img := r.mask(sh)
		if img == nil {
			continue
		}
		c := r.color(sh.BaseColor)
		a := float32(c.A * sh.Opacity)
		op := &r.op
		op.GeoM.Reset()
		op.GeoM.Scale(view.Zoom, view.Zoom)
		op.GeoM.Translate(rect.X, rect.Y)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(c.R)*a, float32(c.G)*a, float32(c.B)*a, a)
		dst.DrawImage(img, op)
		r.stats.Drawn++
	}
	if outline != nil && r.SelectionColor != nil {
		r.drawOutline(dst, screenRect(outline.Bounds(), view))
	}
	r.prune()
	r.stats.Textures = len(r.masks)
}

func screenRect(world pixelshapes.Rect, view pixelshapes.ViewState) pixelshapes.Rect {
	return pixelshapes.Rect{
		X:      world.X*view.Zoom + view.Offset.X,
		Y:      world.Y*view.Zoom + view.Offset.Y,
		Width:  world.Width * view.Zoom,
		Height: world.Height * view.Zoom,
	}
}

// mask returns the cached white coverage texture for the shape's mask.
func (r *Renderer) mask(sh *pixelshapes.Shape) *ebiten.Image {
	key := maskKey{sh.Kind, sh.Width, sh.Height}
	if e, ok := r.masks[key]; ok {
		e.frame = r.frame
		return e.img
	}
	m := pixelshapes.MaskOf(sh)
	if m.Count() == 0 {
		return nil
	}
	pix := make([]byte, 4*m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		m.Runs(y, func(x0, x1 int) {
			for x := x0; x < x1; x++ {
				i := 4 * (y*m.Width + x)
				pix[i], pix[i+1], pix[i+2], pix[i+3] = 0xff, 0xff, 0xff, 0xff
			}
		})
	}
	img := ebiten.NewImage(m.Width, m.Height)
	img.WritePixels(pix)
	r.masks[key] = &maskEntry{img: img, frame: r.frame}
	return img
}

func (r *Renderer) color(hex string) gg.RGBA {
	if c, ok := r.colors[hex]; ok {
		return c
	}
	c := gg.Hex(hex)
	r.colors[hex] = c
	return c
}

func (r *Renderer) prune() {
	if len(r.masks) <= maxCachedMasks {
		return
	}
	for k, e := range r.masks {
		if e.frame != r.frame {
			e.img.Deallocate()
			delete(r.masks, k)
		}
	}
}

var whitePixel *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.White)
	}
	return whitePixel
}

// drawOutline strokes a one-pixel frame just outside rect.
func (r *Renderer) drawOutline(dst *ebiten.Image, rect pixelshapes.Rect) {
	x0, y0 := rect.X-1, rect.Y-1
	w, h := rect.Width+2, rect.Height+2
	r.fillRect(dst, x0, y0, w, 1)
	r.fillRect(dst, x0, y0+h-1, w, 1)
	r.fillRect(dst, x0, y0, 1, h)
	r.fillRect(dst, x0+w-1, y0, 1, h)
}

func (r *Renderer) fillRect(dst *ebiten.Image, x, y, w, h float64) {
	op := &r.op
	op.GeoM.Reset()
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.Reset()
	op.ColorScale.ScaleWithColor(r.SelectionColor)
	dst.DrawImage(ensureWhitePixel(), op)
}

// Dispose releases every cached texture.
func (r *Renderer) Dispose() {
	for k, e := range r.masks {
		e.img.Deallocate()
		delete(r.masks, k)
	}
}
