package display

import (
	"fmt"
	"log/slog"
	"time"

	"inkframe/internal/config"
	"inkframe/internal/display/epd7in3e"
)

// Open builds the driver selected by display.driver.
func Open(cfg *config.Config, logger *slog.Logger) (*Guarded, error) {
	switch cfg.Display.Driver {
	case config.DriverPNG:
		return Guard(config.DriverPNG, &PNGDriver{
			Path:   cfg.Display.PNGPath,
			Width:  cfg.Display.Width,
			Height: cfg.Display.Height,
		}, logger), nil
	case config.DriverEPD7in3e:
		if cfg.Display.Width != epd7in3e.Width || cfg.Display.Height != epd7in3e.Height {
			return nil, fmt.Errorf("%w: %s panel is %dx%d, display is configured as %dx%d", ErrDriver,
				config.DriverEPD7in3e, epd7in3e.Width, epd7in3e.Height, cfg.Display.Width, cfg.Display.Height)
		}
		port := cfg.Display.SPIPort
		if port == "" {
			port = cfg.Display.SPIDevice
		}
		dev, err := epd7in3e.Open(epd7in3e.Config{
			Port:    port,
			SpeedHz: cfg.Display.SPISpeedHz,
			Pins: epd7in3e.Pins{
				Reset: cfg.Display.ResetPin,
				DC:    cfg.Display.DCPin,
				CS:    cfg.Display.CSPin,
				Busy:  cfg.Display.BusyPin,
				Power: cfg.Display.PowerPin,
			},
			BusyTimeout: time.Duration(cfg.Display.BusyTimeout) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDriver, err)
		}
		return Guard(config.DriverEPD7in3e, dev, logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrDriver, cfg.Display.Driver)
	}
}
