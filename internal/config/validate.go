package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSlideshow(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ImageDir == "" {
		return errors.New("paths.image_dir must be set")
	}
	if c.Paths.FallbackImage == "" {
		return errors.New("paths.fallback_image must be set")
	}
	if c.Paths.CastPath == "" {
		return errors.New("paths.cast_path must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSlideshow() error {
	return ensurePositiveMap(map[string]int{
		"slideshow.dwell_seconds":    c.Slideshow.DwellSeconds,
		"slideshow.fallback_seconds": c.Slideshow.FallbackSeconds,
		"slideshow.poll_millis":      c.Slideshow.PollMillis,
		"slideshow.cast_poll_millis": c.Slideshow.CastPollMillis,
	})
}

func (c *Config) validateDisplay() error {
	if err := ensurePositiveMap(map[string]int{
		"display.width":  c.Display.Width,
		"display.height": c.Display.Height,
	}); err != nil {
		return err
	}
	if c.Display.CaptionFontSize <= 0 {
		return errors.New("display.caption_font_size must be positive")
	}
	switch c.Display.Driver {
	case DriverPNG:
		if c.Display.PNGPath == "" {
			return errors.New("display.png_path must be set when display.driver is \"png\"")
		}
	case DriverEPD7in3e:
		for key, value := range map[string]string{
			"display.reset_pin": c.Display.ResetPin,
			"display.dc_pin":    c.Display.DCPin,
			"display.cs_pin":    c.Display.CSPin,
			"display.busy_pin":  c.Display.BusyPin,
		} {
			if value == "" {
				return fmt.Errorf("%s must be set when display.driver is %q", key, DriverEPD7in3e)
			}
		}
		if c.Display.SPISpeedHz <= 0 {
			return errors.New("display.spi_speed_hz must be positive")
		}
		if c.Display.BusyTimeout <= 0 {
			return errors.New("display.busy_timeout must be positive (seconds)")
		}
	default:
		return fmt.Errorf("display.driver: unsupported value %q (want %q or %q)", c.Display.Driver, DriverEPD7in3e, DriverPNG)
	}
	return nil
}

func (c *Config) validateRemote() error {
	if !c.Remote.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Remote.Bind) == "" {
		return errors.New("remote.bind must be set when remote.enabled is true")
	}
	if c.Remote.MaxUploadMB <= 0 {
		return errors.New("remote.max_upload_mb must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
