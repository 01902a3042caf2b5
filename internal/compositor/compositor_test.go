package compositor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"inkframe/internal/logging"
)

var red = color.NRGBA{R: 255, A: 255}

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := New(Options{Width: 800, Height: 480, FontSize: 20, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func isRed(c color.NRGBA) bool {
	return c.R > 200 && c.G < 50 && c.B < 50
}

func isWhite(c color.NRGBA) bool {
	return c.R == 255 && c.G == 255 && c.B == 255 && c.A == 255
}

func TestComposePortraitIsRotatedAndFitted(t *testing.T) {
	c := newTestCompositor(t)
	frame, err := c.ComposeImage(imaging.New(480, 1200, red), "tall.jpg")
	if err != nil {
		t.Fatalf("ComposeImage: %v", err)
	}
	if got := frame.Image.Bounds().Size(); got != image.Pt(800, 480) {
		t.Fatalf("canvas size = %v, want 800x480", got)
	}
	if !frame.Rotated {
		t.Fatal("expected portrait source to be rotated")
	}
	if frame.ScaledSize != image.Pt(800, 320) {
		t.Fatalf("scaled size = %v, want 800x320", frame.ScaledSize)
	}
	if frame.Offset != image.Pt(0, 80) {
		t.Fatalf("offset = %v, want (0,80)", frame.Offset)
	}
	if !hasInk(frame.Image, image.Rect(0, 0, 40, 40)) {
		t.Fatal("expected rotation mark in the top-left corner")
	}
}

func hasInk(img *image.NRGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := img.NRGBAAt(x, y)
			if p.R < 80 && p.G < 80 && p.B < 80 {
				return true
			}
		}
	}
	return false
}

func TestComposeSmallLandscapeIsCenteredNotScaled(t *testing.T) {
	c := newTestCompositor(t)
	frame, err := c.ComposeImage(imaging.New(301, 201, red), "")
	if err != nil {
		t.Fatalf("ComposeImage: %v", err)
	}
	if frame.Rotated {
		t.Fatal("landscape source must not be rotated")
	}
	if frame.ScaledSize != image.Pt(301, 201) {
		t.Fatalf("scaled size = %v, want unchanged 301x201", frame.ScaledSize)
	}
	if frame.Offset != image.Pt(249, 139) {
		t.Fatalf("offset = %v, want floor((800-301)/2), floor((480-201)/2)", frame.Offset)
	}
	px := frame.Image.NRGBAAt
	if !isRed(px(249, 139)) || !isRed(px(549, 339)) {
		t.Fatalf("expected source corners at offset, got %v and %v", px(249, 139), px(549, 339))
	}
	for _, pt := range []image.Point{{248, 139}, {249, 138}, {550, 339}, {549, 340}, {10, 240}} {
		if !isWhite(px(pt.X, pt.Y)) {
			t.Fatalf("expected white margin at %v, got %v", pt, px(pt.X, pt.Y))
		}
	}
}

func TestComposeLargeLandscapeFitsWidth(t *testing.T) {
	c := newTestCompositor(t)
	frame, err := c.ComposeImage(imaging.New(1600, 800, red), "")
	if err != nil {
		t.Fatalf("ComposeImage: %v", err)
	}
	if frame.ScaledSize != image.Pt(800, 400) || frame.Offset != image.Pt(0, 40) {
		t.Fatalf("got scaled %v offset %v, want 800x400 at (0,40)", frame.ScaledSize, frame.Offset)
	}
}

func TestOrientRotatesClockwiseOnScreen(t *testing.T) {
	src := imaging.New(2, 3, color.White)
	src.SetNRGBA(0, 0, red)
	out, rotated := orient(src)
	if !rotated {
		t.Fatal("expected rotation for portrait source")
	}
	if got := out.Bounds().Size(); got != image.Pt(3, 2) {
		t.Fatalf("rotated size = %v, want 3x2", got)
	}
	if !isRed(out.NRGBAAt(2, 0)) {
		t.Fatalf("expected source top-left at rotated top-right, got %v", out.NRGBAAt(2, 0))
	}
	if _, rotated := orient(imaging.New(3, 3, color.White)); rotated {
		t.Fatal("square source must not rotate")
	}
}

func TestComposeDrawsCaptionBottomRight(t *testing.T) {
	c := newTestCompositor(t)
	frame, err := c.ComposeImage(imaging.New(800, 480, red), "beach.jpg")
	if err != nil {
		t.Fatalf("ComposeImage: %v", err)
	}
	if !isWhite(frame.Image.NRGBAAt(799, 479)) {
		t.Fatalf("expected caption backing in the corner, got %v", frame.Image.NRGBAAt(799, 479))
	}
	if !hasInk(frame.Image, image.Rect(600, 440, 800, 480)) {
		t.Fatal("expected caption ink in the bottom-right corner")
	}
	if !isRed(frame.Image.NRGBAAt(5, 5)) {
		t.Fatal("unrotated frame must not carry a rotation mark")
	}
}

func TestComposeEmptyCaptionDrawsNothing(t *testing.T) {
	c := newTestCompositor(t)
	frame, err := c.ComposeImage(imaging.New(800, 480, red), "")
	if err != nil {
		t.Fatalf("ComposeImage: %v", err)
	}
	if !isRed(frame.Image.NRGBAAt(799, 479)) {
		t.Fatalf("expected untouched corner, got %v", frame.Image.NRGBAAt(799, 479))
	}
}

func TestComposeFlattensTransparency(t *testing.T) {
	c := newTestCompositor(t)
	frame, err := c.ComposeImage(image.NewNRGBA(image.Rect(0, 0, 100, 50)), "")
	if err != nil {
		t.Fatalf("ComposeImage: %v", err)
	}
	if !isWhite(frame.Image.NRGBAAt(400, 240)) {
		t.Fatalf("expected transparent pixels flattened to white, got %v", frame.Image.NRGBAAt(400, 240))
	}
}

func TestComposeRejectsEmptyImage(t *testing.T) {
	c := newTestCompositor(t)
	if _, err := c.ComposeImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)), ""); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestComposeFileErrors(t *testing.T) {
	c := newTestCompositor(t)
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(corrupt, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	for _, path := range []string{corrupt, filepath.Join(dir, "missing.png")} {
		if _, err := c.ComposeFile(path); !errors.Is(err, ErrDecode) {
			t.Fatalf("ComposeFile(%s) error = %v, want ErrDecode", path, err)
		}
	}
	if _, err := c.Compose(bytes.NewReader(nil), "x"); !errors.Is(err, ErrDecode) {
		t.Fatalf("Compose(empty) error = %v, want ErrDecode", err)
	}
}

func TestComposeFileUsesBaseNameCaption(t *testing.T) {
	c := newTestCompositor(t)
	path := filepath.Join(t.TempDir(), "sunset.png")
	if err := imaging.Save(imaging.New(64, 32, red), path); err != nil {
		t.Fatalf("save png: %v", err)
	}
	frame, err := c.ComposeFile(path)
	if err != nil {
		t.Fatalf("ComposeFile: %v", err)
	}
	if frame.Caption != "sunset.png" {
		t.Fatalf("caption = %q, want sunset.png", frame.Caption)
	}
}

func TestDisplayNameNormalizesToNFC(t *testing.T) {
	if got := DisplayName("/photos/Cafe\u0301.jpg"); got != "Caf\u00e9.jpg" {
		t.Fatalf("DisplayName = %q, want composed form", got)
	}
}

func TestLoadFaceFallsBack(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(bogus, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write bogus font: %v", err)
	}
	face := LoadFace(bogus, 20, logging.NewNop())
	if face.Name != faceNameGoMono {
		t.Fatalf("face = %q, want embedded fallback", face.Name)
	}
	if !face.HasGlyph('A') {
		t.Fatal("expected embedded face to cover ASCII")
	}

	bitmap := &Face{Name: faceNameBitmap}
	if bitmap.HasGlyph('↻') {
		t.Fatal("bitmap face must not claim the rotation glyph")
	}
}

func TestNewRejectsEmptyCanvas(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 480}); err == nil {
		t.Fatal("expected error for zero width")
	}
}
