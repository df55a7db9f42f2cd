package export

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/phanxgames/pixelshapes"
)

func box(id pixelshapes.ShapeID, x, y float64, w, h int, color string) *pixelshapes.Shape {
	return &pixelshapes.Shape{
		ID: id, Kind: pixelshapes.KindBox, Width: w, Height: h,
		BaseColor: color, Opacity: 1, Position: pixelshapes.Vec2{X: x, Y: y},
	}
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	return img
}

func assertPixel(t *testing.T, img image.Image, x, y int, r, g, b, a uint32) {
	t.Helper()
	gr, gg, gb, ga := img.At(x, y).RGBA()
	if gr>>8 != r || gg>>8 != g || gb>>8 != b || ga>>8 != a {
		t.Errorf("pixel (%d, %d) = (%d, %d, %d, %d), want (%d, %d, %d, %d)",
			x, y, gr>>8, gg>>8, gb>>8, ga>>8, r, g, b, a)
	}
}

func TestFrame(t *testing.T) {
	shapes := []*pixelshapes.Shape{box(1, 2.5, 3, 4, 4, "#fff"), box(2, 10, 1, 2, 2, "#fff")}
	got, ok := Frame(shapes, 1)
	if !ok {
		t.Fatal("Frame not ok")
	}
	want := pixelshapes.Rect{X: 1, Y: 0, Width: 12, Height: 8}
	if got != want {
		t.Errorf("Frame = %+v, want %+v", got, want)
	}
	if _, ok := Frame(nil, 0); ok {
		t.Error("Frame of no shapes reported ok")
	}
}

func TestWritePNGSizeAndColors(t *testing.T) {
	shapes := []*pixelshapes.Shape{
		box(1, 0, 0, 4, 4, "#ff0000"),
		box(2, 2, 2, 4, 4, "#0000ff"), // on top
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, shapes, Options{Scale: 2}); err != nil {
		t.Fatal(err)
	}
	img := decode(t, buf.Bytes())
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
		t.Fatalf("size = %dx%d, want 12x12", b.Dx(), b.Dy())
	}
	assertPixel(t, img, 1, 1, 255, 0, 0, 255)
	assertPixel(t, img, 5, 5, 0, 0, 255, 255)
	assertPixel(t, img, 10, 10, 0, 0, 255, 255)
	assertPixel(t, img, 10, 1, 0, 0, 0, 0)
}

func TestWritePNGBackground(t *testing.T) {
	var buf bytes.Buffer
	err := WritePNG(&buf, []*pixelshapes.Shape{box(1, 0, 0, 1, 1, "#00ff00")},
		Options{Padding: 1, Background: "#ffffff"})
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, buf.Bytes())
	assertPixel(t, img, 0, 0, 255, 255, 255, 255)
	assertPixel(t, img, 1, 1, 0, 255, 0, 255)
}

func TestWritePNGEllipseCorners(t *testing.T) {
	sh := box(1, 0, 0, 10, 10, "#000000")
	sh.Kind = pixelshapes.KindEllipse
	var buf bytes.Buffer
	if err := WritePNG(&buf, []*pixelshapes.Shape{sh}, Options{}); err != nil {
		t.Fatal(err)
	}
	img := decode(t, buf.Bytes())
	assertPixel(t, img, 0, 0, 0, 0, 0, 0)
	assertPixel(t, img, 5, 5, 0, 0, 0, 255)
}

func TestRenderEmpty(t *testing.T) {
	if _, err := Render(nil, Options{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestRenderTooLarge(t *testing.T) {
	shapes := []*pixelshapes.Shape{box(1, 0, 0, MaxSide, 1, "#fff")}
	if _, err := Render(shapes, Options{Scale: 2}); err == nil {
		t.Error("expected size error")
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := SavePNG(path, []*pixelshapes.Shape{box(1, 0, 0, 3, 2, "#123456")}, Options{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if b := decode(t, data).Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("size = %dx%d, want 3x2", b.Dx(), b.Dy())
	}
}
