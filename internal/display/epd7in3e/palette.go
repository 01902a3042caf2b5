package epd7in3e

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Panel geometry in landscape orientation.
const (
	Width  = 800
	Height = 480
)

// Ink codes understood by the controller.
const (
	Black  byte = 0x0
	White  byte = 0x1
	Yellow byte = 0x2
	Red    byte = 0x3
	Blue   byte = 0x5
	Green  byte = 0x6
)

// Palette lists the panel inks. Index i of Palette uses inkCodes[i].
var Palette = color.Palette{
	color.NRGBA{A: 255},
	color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	color.NRGBA{R: 255, G: 255, A: 255},
	color.NRGBA{R: 255, A: 255},
	color.NRGBA{B: 255, A: 255},
	color.NRGBA{G: 255, A: 255},
}

var inkCodes = [...]byte{Black, White, Yellow, Red, Blue, Green}

// BufferSize is the length of a packed frame.
const BufferSize = Width * Height / 2

// Pack dithers img onto the panel palette and packs it into the controller
// byte layout. A portrait image of the panel's size is turned to landscape;
// any other size is an error.
func Pack(img image.Image) ([]byte, error) {
	size := img.Bounds().Size()
	switch size {
	case image.Pt(Width, Height):
	case image.Pt(Height, Width):
		img = imaging.Rotate90(img)
	default:
		return nil, fmt.Errorf("image is %dx%d, panel needs %dx%d", size.X, size.Y, Width, Height)
	}

	return packPaletted(Quantize(img)), nil
}

// Quantize dithers img onto the panel palette.
func Quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	paletted := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), Palette)
	draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), img, b.Min)
	return paletted
}

func packPaletted(p *image.Paletted) []byte {
	buf := make([]byte, BufferSize)
	for y := 0; y < Height; y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+Width]
		for x := 0; x < Width; x += 2 {
			buf[(y*Width+x)/2] = inkCodes[row[x]]<<4 | inkCodes[row[x+1]]
		}
	}
	return buf
}

// Fill returns a packed frame of a single ink.
func Fill(ink byte) []byte {
	buf := make([]byte, BufferSize)
	v := ink<<4 | ink
	for i := range buf {
		buf[i] = v
	}
	return buf
}
