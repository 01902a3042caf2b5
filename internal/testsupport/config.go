package testsupport

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"inkframe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It selects the PNG driver, disables the web remote and ordered browsing,
// then applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ImageDir = filepath.Join(base, "photos")
	cfgVal.Paths.FallbackImage = filepath.Join(base, "fallback.png")
	cfgVal.Paths.CastPath = filepath.Join(base, "cast", "cast.img")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Display.Driver = config.DriverPNG
	cfgVal.Display.PNGPath = filepath.Join(base, "out", "frame.png")
	cfgVal.Remote.Enabled = false
	cfgVal.Slideshow.Shuffle = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithImages writes small solid images with the given names into the photo
// library.
func WithImages(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteImage(b.t, filepath.Join(b.cfg.Paths.ImageDir, name), 40, 30)
		}
	}
}

// WithFallback writes the fallback image.
func WithFallback() ConfigOption {
	return func(b *configBuilder) {
		WriteImage(b.t, b.cfg.Paths.FallbackImage, 40, 30)
	}
}

// WithRemote enables the web remote on an ephemeral loopback port.
func WithRemote(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.Enabled = true
		b.cfg.Remote.Bind = "127.0.0.1:0"
		b.cfg.Remote.Token = token
	}
}

// WithDirectories creates the directories the daemon writes to.
func WithDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// BaseDir returns an option that records the temp root into dst.
func BaseDir(dst *string) ConfigOption {
	return func(b *configBuilder) {
		*dst = b.baseDir
	}
}

// WriteImage saves a solid w x h image at path, encoded by extension.
func WriteImage(t testing.TB, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := imaging.Save(imaging.New(w, h, color.NRGBA{R: 200, G: 40, A: 255}), path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}
