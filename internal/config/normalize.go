package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDisplay()
	c.normalizeRemote()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := os.LookupEnv(envImageDirOverride); ok && strings.TrimSpace(value) != "" {
		c.Paths.ImageDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envRemoteTokenOverride); ok && strings.TrimSpace(value) != "" {
		c.Remote.Token = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envNotificationTopicOverride); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.image_dir", &c.Paths.ImageDir},
		{"paths.fallback_image", &c.Paths.FallbackImage},
		{"paths.cast_path", &c.Paths.CastPath},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.font_path", &c.Paths.FontPath},
		{"display.png_path", &c.Display.PNGPath},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeDisplay() {
	c.Display.Driver = strings.ToLower(strings.TrimSpace(c.Display.Driver))
	c.Display.SPIPort = strings.TrimSpace(c.Display.SPIPort)
	c.Display.SPIDevice = strings.TrimSpace(c.Display.SPIDevice)
	for _, pin := range []*string{&c.Display.ResetPin, &c.Display.DCPin, &c.Display.CSPin, &c.Display.BusyPin, &c.Display.PowerPin} {
		*pin = strings.ToUpper(strings.TrimSpace(*pin))
	}
}

func (c *Config) normalizeRemote() {
	c.Remote.Bind = strings.TrimSpace(c.Remote.Bind)
	c.Remote.Token = strings.TrimSpace(c.Remote.Token)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
