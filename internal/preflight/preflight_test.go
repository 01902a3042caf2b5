package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkframe/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryReadable_CountsImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	result := CheckDirectoryReadable("library", dir)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "2 images") {
		t.Fatalf("expected image count in detail, got %q", result.Detail)
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "fallback.png")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFileReadable("fallback", f); !r.Passed {
		t.Fatalf("expected pass, got: %s", r.Detail)
	}
	if r := CheckFileReadable("fallback", dir); r.Passed {
		t.Fatal("expected failure for directory")
	}
	if r := CheckFileReadable("fallback", filepath.Join(dir, "missing.png")); r.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckDeviceAccess_RejectsRegularFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "spidev0.0")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDeviceAccess("spi", f); r.Passed {
		t.Fatal("expected failure for regular file")
	}
	if r := CheckDeviceAccess("spi", filepath.Join(t.TempDir(), "absent")); r.Passed {
		t.Fatal("expected failure for missing device")
	}
}

func TestRunAllMarksFatalChecks(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ImageDir = filepath.Join(base, "photos")
	cfg.Paths.FallbackImage = filepath.Join(base, "fallback.png")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CastPath = filepath.Join(base, "cast", "cast.img")
	cfg.Display.Driver = config.DriverPNG
	cfg.Display.PNGPath = filepath.Join(base, "out", "frame.png")

	results := RunAll(&cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected log dir and png output to fail fatally, got %+v", failed)
	}

	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Display.PNGPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if failed := Failed(RunAll(&cfg)); len(failed) != 0 {
		t.Fatalf("expected no fatal failures, got %+v", failed)
	}
}
