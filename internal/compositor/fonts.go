package compositor

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"inkframe/internal/logging"
)

const (
	faceNameBitmap   = "basicfont-7x13"
	faceNameGoMono   = "gomonobold"
	defaultFontSize  = 20
	fontDPI          = 72
	rotationGlyph    = "↻"
	rotationFallback = "R"
)

// Face is a caption font face plus what the probe learned about it.
type Face struct {
	font.Face
	Name string
	// outline is nil for the bitmap face.
	outline *sfnt.Font
	buf     sfnt.Buffer
}

// HasGlyph reports whether the face can draw r with a real glyph rather than
// a placeholder.
func (f *Face) HasGlyph(r rune) bool {
	if f.outline == nil {
		return r >= 0x20 && r < 0x7f
	}
	idx, err := f.outline.GlyphIndex(&f.buf, r)
	return err == nil && idx != 0
}

// LoadFace resolves the caption face. The configured TrueType file wins when
// it parses; otherwise the embedded Go Mono Bold is used, and as a last resort
// the built-in bitmap face. Failures are logged and never returned.
func LoadFace(path string, size float64, logger *slog.Logger) *Face {
	if size <= 0 {
		size = defaultFontSize
	}
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var face *Face
			face, err = parseFace(data, size, path)
			if err == nil {
				return face
			}
		}
		logging.WarnWithContext(logger, "caption font unavailable; using embedded font", "caption_font_fallback",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.font_path points at a readable TrueType file"),
			logging.String(logging.FieldImpact, "captions use the embedded font"),
		)
	}
	face, err := parseFace(gomonobold.TTF, size, faceNameGoMono)
	if err == nil {
		return face
	}
	logging.WarnWithContext(logger, "embedded font unavailable; using bitmap font", "caption_font_fallback",
		logging.Error(err),
		logging.String(logging.FieldImpact, "captions use a small bitmap font"),
	)
	return &Face{Face: basicfont.Face7x13, Name: faceNameBitmap}
}

func parseFace(data []byte, size float64, name string) (*Face, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return &Face{Face: face, Name: name, outline: parsed}, nil
}
