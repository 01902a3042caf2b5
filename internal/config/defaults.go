package config

// Display driver names accepted by display.driver.
const (
	DriverEPD7in3e = "epd7in3e"
	DriverPNG      = "png"
)

const (
	defaultConfigPath            = "~/.config/inkframe/config.toml"
	defaultImageDir              = "~/Pictures/frame"
	defaultFallbackImage         = "~/.local/share/inkframe/fallback.png"
	defaultCastPath              = "/tmp/inkframe/cast.img"
	defaultLogDir                = "~/.local/share/inkframe/logs"
	defaultPNGPath               = "~/.local/share/inkframe/frame.png"
	defaultDwellSeconds          = 300
	defaultFallbackSeconds       = 30
	defaultPollMillis            = 500
	defaultCastPollMillis        = 500
	defaultDisplayWidth          = 800
	defaultDisplayHeight         = 480
	defaultCaptionFontSize       = 20
	defaultSPIPort               = ""
	defaultSPIDevice             = "/dev/spidev0.0"
	defaultSPISpeedHz            = 4_000_000
	defaultResetPin              = "GPIO17"
	defaultDCPin                 = "GPIO25"
	defaultCSPin                 = "GPIO8"
	defaultBusyPin               = "GPIO24"
	defaultPowerPin              = "GPIO18"
	defaultBusyTimeoutSeconds    = 60
	defaultRemoteBind            = "0.0.0.0:5000"
	defaultMaxUploadMB           = 20
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	envImageDirOverride          = "INKFRAME_IMAGE_DIR"
	envRemoteTokenOverride       = "INKFRAME_REMOTE_TOKEN"
	envNotificationTopicOverride = "INKFRAME_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImageDir:      defaultImageDir,
			FallbackImage: defaultFallbackImage,
			CastPath:      defaultCastPath,
			LogDir:        defaultLogDir,
		},
		Slideshow: Slideshow{
			DwellSeconds:    defaultDwellSeconds,
			FallbackSeconds: defaultFallbackSeconds,
			Shuffle:         true,
			PollMillis:      defaultPollMillis,
			CastPollMillis:  defaultCastPollMillis,
		},
		Display: Display{
			Driver:          DriverEPD7in3e,
			Width:           defaultDisplayWidth,
			Height:          defaultDisplayHeight,
			CaptionFontSize: defaultCaptionFontSize,
			PNGPath:         defaultPNGPath,
			SPIPort:         defaultSPIPort,
			SPIDevice:       defaultSPIDevice,
			SPISpeedHz:      defaultSPISpeedHz,
			ResetPin:        defaultResetPin,
			DCPin:           defaultDCPin,
			CSPin:           defaultCSPin,
			BusyPin:         defaultBusyPin,
			PowerPin:        defaultPowerPin,
			BusyTimeout:     defaultBusyTimeoutSeconds,
		},
		Remote: Remote{
			Enabled:     true,
			Bind:        defaultRemoteBind,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Started:        true,
			Cast:           false,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
