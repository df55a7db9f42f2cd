package pixelshapes

// crescentShift is the fraction of the width the cut-out ellipse of a
// crescent is shifted right by.
const crescentShift = 1.0 / 3.0

// Mask is the pixel coverage of a shape in its own w×h grid, row-major.
type Mask struct {
	Width, Height int
	bits          []bool
}

// NewMask rasterizes kind into a w×h grid by sampling pixel centers.
// Non-positive sizes produce an empty mask.
func NewMask(kind ShapeKind, w, h int) *Mask {
	if w <= 0 || h <= 0 {
		return &Mask{}
	}
	m := &Mask{Width: w, Height: h, bits: make([]bool, w*h)}
	rx, ry := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		py := float64(y) + 0.5
		for x := 0; x < w; x++ {
			px := float64(x) + 0.5
			var on bool
			switch kind {
			case KindBox:
				on = true
			case KindEllipse:
				on = inEllipse(px, py, rx, ry, rx, ry)
			case KindCrescent:
				on = inEllipse(px, py, rx, ry, rx, ry) &&
					!inEllipse(px, py, rx+float64(w)*crescentShift, ry, rx, ry)
			}
			m.bits[y*w+x] = on
		}
	}
	return m
}

// MaskOf rasterizes a shape.
func MaskOf(s *Shape) *Mask {
	return NewMask(s.Kind, s.Width, s.Height)
}

func inEllipse(px, py, cx, cy, rx, ry float64) bool {
	dx := (px - cx) / rx
	dy := (py - cy) / ry
	return dx*dx+dy*dy <= 1
}

// At reports whether pixel (x, y) is covered. Out-of-range pixels are not.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.bits[y*m.Width+x]
}

// Count returns the number of covered pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Runs calls fn for every horizontal run of covered pixels [x0, x1) in row
// y, left to right. Drawing runs instead of single pixels keeps renderers
// to one rectangle per run.
func (m *Mask) Runs(y int, fn func(x0, x1 int)) {
	if y < 0 || y >= m.Height {
		return
	}
	row := m.bits[y*m.Width : (y+1)*m.Width]
	start := -1
	for x, on := range row {
		switch {
		case on && start < 0:
			start = x
		case !on && start >= 0:
			fn(start, x)
			start = -1
		}
	}
	if start >= 0 {
		fn(start, len(row))
	}
}
