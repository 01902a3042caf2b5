package preflight

import (
	"path/filepath"

	"inkframe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Fatal marks checks the daemon cannot run without.
	Fatal bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryReadable("Photo library", cfg.Paths.ImageDir),
		CheckFileReadable("Fallback image", cfg.Paths.FallbackImage),
		fatal(CheckDirectoryAccess("Log directory", cfg.Paths.LogDir)),
		CheckDirectoryAccess("Cast directory", filepath.Dir(cfg.Paths.CastPath)),
	}

	if cfg.Paths.FontPath != "" {
		results = append(results, CheckFileReadable("Caption font", cfg.Paths.FontPath))
	}

	switch cfg.Display.Driver {
	case config.DriverEPD7in3e:
		device := cfg.Display.SPIDevice
		if port := cfg.Display.SPIPort; port != "" {
			device = port
		}
		results = append(results, fatal(CheckDeviceAccess("SPI device", device)))
	case config.DriverPNG:
		results = append(results, fatal(CheckDirectoryAccess("PNG output", filepath.Dir(cfg.Display.PNGPath))))
	}
	return results
}

// Failed returns the fatal checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Fatal && !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func fatal(r Result) Result {
	r.Fatal = true
	return r
}
