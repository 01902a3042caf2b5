package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// captionPadding is the gap between text ink and the edge of its backing
// rectangle, and between the rectangle and the canvas edge.
const captionPadding = 6

// drawCaption places text in the bottom-right corner on a white rectangle.
func drawCaption(canvas draw.Image, face *Face, text string) {
	bounds, _ := font.BoundString(face, text)
	tw := (bounds.Max.X - bounds.Min.X).Ceil()
	th := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if tw <= 0 || th <= 0 {
		return
	}
	cb := canvas.Bounds()
	x := cb.Max.X - tw - captionPadding
	y := cb.Max.Y - th - captionPadding
	backing := image.Rect(x-captionPadding, y-captionPadding, x+tw+captionPadding, y+th+captionPadding)
	drawText(canvas, face, text, image.Pt(x, y), bounds, backing)
}

// drawRotationMark places the rotation glyph in the top-left corner.
func drawRotationMark(canvas draw.Image, face *Face) {
	text := rotationGlyph
	if !face.HasGlyph([]rune(rotationGlyph)[0]) {
		text = rotationFallback
	}
	bounds, _ := font.BoundString(face, text)
	tw := (bounds.Max.X - bounds.Min.X).Ceil()
	th := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if tw <= 0 || th <= 0 {
		return
	}
	cb := canvas.Bounds()
	x := cb.Min.X + captionPadding
	y := cb.Min.Y + captionPadding
	backing := image.Rect(x-captionPadding, y-captionPadding, x+tw+captionPadding, y+th+captionPadding)
	drawText(canvas, face, text, image.Pt(x, y), bounds, backing)
}

// drawText fills backing with white and draws text in black so that its ink
// box starts at topLeft.
func drawText(canvas draw.Image, face *Face, text string, topLeft image.Point, ink fixed.Rectangle26_6, backing image.Rectangle) {
	draw.Draw(canvas, backing.Intersect(canvas.Bounds()), image.NewUniform(color.White), image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(topLeft.X) - ink.Min.X,
			Y: fixed.I(topLeft.Y) - ink.Min.Y,
		},
	}
	d.DrawString(text)
}
