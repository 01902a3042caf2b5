package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations used by the frame.
type Paths struct {
	ImageDir      string `toml:"image_dir"`
	FallbackImage string `toml:"fallback_image"`
	CastPath      string `toml:"cast_path"`
	LogDir        string `toml:"log_dir"`
	FontPath      string `toml:"font_path"`
}

// Slideshow contains scheduler timing and ordering.
type Slideshow struct {
	DwellSeconds    int  `toml:"dwell_seconds"`
	FallbackSeconds int  `toml:"fallback_seconds"`
	Shuffle         bool `toml:"shuffle"`
	PollMillis      int  `toml:"poll_millis"`
	CastPollMillis  int  `toml:"cast_poll_millis"`
	// SkipBrokenOnce logs a persistently undecodable image only the first
	// time it fails instead of on every cycle.
	SkipBrokenOnce bool `toml:"skip_broken_once"`
}

// Display contains panel geometry and driver wiring.
type Display struct {
	Driver          string  `toml:"driver"`
	Width           int     `toml:"width"`
	Height          int     `toml:"height"`
	CaptionFontSize float64 `toml:"caption_font_size"`
	PNGPath         string  `toml:"png_path"`
	SPIPort         string  `toml:"spi_port"`
	SPIDevice       string  `toml:"spi_device"`
	SPISpeedHz      int     `toml:"spi_speed_hz"`
	ResetPin        string  `toml:"reset_pin"`
	DCPin           string  `toml:"dc_pin"`
	CSPin           string  `toml:"cs_pin"`
	BusyPin         string  `toml:"busy_pin"`
	PowerPin        string  `toml:"power_pin"`
	BusyTimeout     int     `toml:"busy_timeout"`
}

// Remote contains configuration for the web remote control.
type Remote struct {
	Enabled     bool   `toml:"enabled"`
	Bind        string `toml:"bind"`
	Token       string `toml:"token"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Started        bool   `toml:"started"`
	Cast           bool   `toml:"cast"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for inkframe.
//
// Configuration sections by subsystem:
//   - Paths: photo library, fallback image, cast upload target, logs, font
//   - Slideshow: dwell timing, shuffle, polling increments
//   - Display: canvas geometry and panel driver wiring
//   - Remote: web remote bind address and token
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Slideshow     Slideshow     `toml:"slideshow"`
	Display       Display       `toml:"display"`
	Remote        Remote        `toml:"remote"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("inkframe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates directories the daemon writes into. The image
// directory is never created: an absent library simply yields the fallback
// image.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.CastPath)}
	if c.Display.Driver == DriverPNG {
		dirs = append(dirs, filepath.Dir(c.Display.PNGPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Dwell returns the natural display duration for catalog images.
func (c *Config) Dwell() time.Duration {
	return time.Duration(c.Slideshow.DwellSeconds) * time.Second
}

// FallbackDwell returns how long the fallback image stays up before the
// catalog is checked again.
func (c *Config) FallbackDwell() time.Duration {
	return time.Duration(c.Slideshow.FallbackSeconds) * time.Second
}

// PollInterval returns the dwell loop increment.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Slideshow.PollMillis) * time.Millisecond
}

// CastPollInterval returns the re-poll delay while casting.
func (c *Config) CastPollInterval() time.Duration {
	return time.Duration(c.Slideshow.CastPollMillis) * time.Millisecond
}

// MaxUploadBytes returns the cast upload size limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Remote.MaxUploadMB) << 20
}

// SocketPath returns the IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "inkframe.sock")
}

// LockPath returns the single-instance lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "inkframe.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
