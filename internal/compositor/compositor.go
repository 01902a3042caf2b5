package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp" // register BMP decoding for catalog images
	"golang.org/x/text/unicode/norm"

	"inkframe/internal/logging"
)

// ErrDecode marks a source image that could not be read or decoded. Callers
// skip the frame and keep going.
var ErrDecode = errors.New("image decode failed")

// Frame is a display-ready composite.
type Frame struct {
	Image *image.NRGBA
	// Rotated reports whether portrait correction turned the source.
	Rotated bool
	// ScaledSize is the size of the source after orientation and fit.
	ScaledSize image.Point
	// Offset is the top-left corner of the pasted source on the canvas.
	Offset  image.Point
	Caption string
}

// Options configures a Compositor.
type Options struct {
	Width    int
	Height   int
	FontPath string
	FontSize float64
	Logger   *slog.Logger
}

// Compositor renders frames for a fixed canvas size. It is safe for
// concurrent use; font faces are not, so drawing is serialized.
type Compositor struct {
	width  int
	height int
	face   *Face
	logger *slog.Logger
	mu     sync.Mutex
}

// New builds a compositor and resolves its caption face.
func New(opts Options) (*Compositor, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	logger := logging.NewComponentLogger(opts.Logger, "compositor")
	face := LoadFace(opts.FontPath, opts.FontSize, logger)
	logger.Debug("caption face resolved", logging.String("face", face.Name))
	return &Compositor{
		width:  opts.Width,
		height: opts.Height,
		face:   face,
		logger: logger,
	}, nil
}

// Size returns the canvas dimensions.
func (c *Compositor) Size() (int, int) {
	return c.width, c.height
}

// FaceName reports which caption face the probe settled on.
func (c *Compositor) FaceName() string {
	return c.face.Name
}

// ComposeFile decodes path and composes it with its base filename as the
// caption.
func (c *Compositor) ComposeFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDecode, path, err)
	}
	defer file.Close()
	return c.Compose(file, DisplayName(path))
}

// Compose decodes src, applying EXIF orientation, and composes the result.
func (c *Compositor) Compose(src io.Reader, caption string) (*Frame, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return c.ComposeImage(img, caption)
}

// ComposeImage composes an already decoded image.
func (c *Compositor) ComposeImage(img image.Image, caption string) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDecode)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrDecode, bounds.Dx(), bounds.Dy())
	}

	oriented, rotated := orient(flatten(img))
	scaled := fit(oriented, c.width, c.height)
	size := scaled.Bounds().Size()
	offset := image.Pt((c.width-size.X)/2, (c.height-size.Y)/2)

	canvas := imaging.New(c.width, c.height, color.White)
	canvas = imaging.Paste(canvas, scaled, offset)

	c.mu.Lock()
	if caption != "" {
		drawCaption(canvas, c.face, caption)
	}
	if rotated {
		drawRotationMark(canvas, c.face)
	}
	c.mu.Unlock()

	return &Frame{
		Image:      canvas,
		Rotated:    rotated,
		ScaledSize: size,
		Offset:     offset,
		Caption:    caption,
	}, nil
}

// DisplayName returns the caption shown for a catalog path: the base
// filename in NFC form.
func DisplayName(path string) string {
	return norm.NFC.String(filepath.Base(path))
}

// flatten drops transparency by compositing onto white so every pixel of the
// result is opaque.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// orient turns portrait images onto their side. The rotation is 270 degrees
// counter-clockwise with the bounding box expanded to the new shape.
func orient(img *image.NRGBA) (*image.NRGBA, bool) {
	b := img.Bounds()
	if b.Dy() > b.Dx() {
		return imaging.Rotate270(img), true
	}
	return img, false
}

// fit shrinks img to fit within w x h keeping its aspect ratio. Images that
// already fit are returned as is.
func fit(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}
