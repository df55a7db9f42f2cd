// Package export rasterizes workspace shapes to PNG with gogpu/gg.
//
// Each shape is drawn from its pixel mask, one rectangle per horizontal run,
// so the output matches the editor preview pixel for pixel:
//
//	err := export.SavePNG("art.png", ws.Shapes(), export.Options{Scale: 8})
package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/phanxgames/pixelshapes"
)

// MaxSide caps the width and height of an exported image in pixels.
const MaxSide = 16384

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("export: no shapes")

// Options control the output image.
type Options struct {
	// Scale is the number of image pixels per world unit. Default 1.
	Scale int
	// Padding is the margin, in world units, around the content.
	Padding int
	// Background is a hex color; empty leaves the image transparent.
	Background string
}

func (o Options) scale() float64 {
	if o.Scale < 1 {
		return 1
	}
	return float64(o.Scale)
}

// Frame returns the world-space rectangle an export covers: the union of the
// shape boxes, snapped outward to whole units and grown by the padding.
func Frame(shapes []*pixelshapes.Shape, padding int) (pixelshapes.Rect, bool) {
	if len(shapes) == 0 {
		return pixelshapes.Rect{}, false
	}
	r := shapes[0].Bounds()
	for _, sh := range shapes[1:] {
		r = r.Union(sh.Bounds())
	}
	x0, y0 := math.Floor(r.X), math.Floor(r.Y)
	x1, y1 := math.Ceil(r.X+r.Width), math.Ceil(r.Y+r.Height)
	p := float64(max(padding, 0))
	return pixelshapes.Rect{X: x0 - p, Y: y0 - p, Width: x1 - x0 + 2*p, Height: y1 - y0 + 2*p}, true
}

// Render draws shapes back to front into a new context sized to their frame.
// Colors gg cannot parse render black, as gg.Hex does.
func Render(shapes []*pixelshapes.Shape, opts Options) (*gg.Context, error) {
	frame, ok := Frame(shapes, opts.Padding)
	if !ok {
		return nil, ErrEmpty
	}
	s := opts.scale()
	w, h := int(frame.Width*s), int(frame.Height*s)
	if w > MaxSide || h > MaxSide {
		return nil, fmt.Errorf("export: %dx%d image exceeds %d pixels per side", w, h, MaxSide)
	}

	dc := gg.NewContext(w, h)
	if opts.Background != "" {
		dc.ClearWithColor(gg.Hex(opts.Background))
	} else {
		dc.Clear()
	}
	for _, sh := range shapes {
		if err := drawShape(dc, sh, frame, s); err != nil {
			dc.Close()
			return nil, fmt.Errorf("export: shape %d: %w", sh.ID, err)
		}
	}
	return dc, nil
}

func drawShape(dc *gg.Context, sh *pixelshapes.Shape, frame pixelshapes.Rect, s float64) error {
	mask := pixelshapes.MaskOf(sh)
	if mask.Count() == 0 || sh.Opacity <= 0 {
		return nil
	}
	c := gg.Hex(sh.BaseColor)
	dc.SetRGBA(c.R, c.G, c.B, c.A*sh.Opacity)
	ox := (sh.Position.X - frame.X) * s
	oy := (sh.Position.Y - frame.Y) * s
	for y := 0; y < mask.Height; y++ {
		mask.Runs(y, func(x0, x1 int) {
			dc.DrawRectangle(ox+float64(x0)*s, oy+float64(y)*s, float64(x1-x0)*s, s)
		})
	}
	return dc.Fill()
}

// WritePNG renders shapes and encodes the result as PNG to w.
func WritePNG(w io.Writer, shapes []*pixelshapes.Shape, opts Options) error {
	dc, err := Render(shapes, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	return nil
}

// SavePNG renders shapes to a PNG file.
func SavePNG(path string, shapes []*pixelshapes.Shape, opts Options) error {
	dc, err := Render(shapes, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
