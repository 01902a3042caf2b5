package display

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"inkframe/internal/fileutil"
)

// PNGDriver writes every frame to a PNG file. It stands in for the panel on
// machines without one.
type PNGDriver struct {
	Path   string
	Width  int
	Height int
}

// Init creates the output directory.
func (p *PNGDriver) Init() error {
	if p.Path == "" {
		return errors.New("png path is empty")
	}
	return os.MkdirAll(filepath.Dir(p.Path), 0o755)
}

// Clear writes a blank white frame.
func (p *PNGDriver) Clear() error {
	buf, err := p.Buffer(imaging.New(p.Width, p.Height, color.White))
	if err != nil {
		return err
	}
	return p.Display(buf)
}

// Buffer encodes img as PNG.
func (p *PNGDriver) Buffer(img image.Image) ([]byte, error) {
	if size := img.Bounds().Size(); p.Width > 0 && size != image.Pt(p.Width, p.Height) {
		return nil, fmt.Errorf("image is %dx%d, driver expects %dx%d", size.X, size.Y, p.Width, p.Height)
	}
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

// Display replaces the output file atomically.
func (p *PNGDriver) Display(buf []byte) error {
	if _, err := fileutil.WriteAtomic(p.Path, bytes.NewReader(buf), 0o644); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Shutdown is a no-op.
func (p *PNGDriver) Shutdown() error { return nil }
