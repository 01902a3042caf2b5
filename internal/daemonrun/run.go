package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"inkframe/internal/catalog"
	"inkframe/internal/config"
	"inkframe/internal/daemon"
	"inkframe/internal/display"
	"inkframe/internal/ipc"
	"inkframe/internal/logging"
	"inkframe/internal/notifications"
	"inkframe/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the inkframe runtime loop and blocks until a signal arrives or
// the panel fails.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("inkframe-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update inkframe.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "inkframe-*.log", Exclude: []string{logPath}},
	)

	if err := runPreflight(logger, cfg); err != nil {
		return err
	}
	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "inkframe.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	driver, err := display.Open(cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "open display driver", "display_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check display.driver and the SPI/GPIO settings"),
		)
		return err
	}

	notifier := notifications.NewService(cfg)
	d, err := daemon.New(cfg, logger, daemon.Dependencies{Driver: driver, Notifier: notifier}, logPath)
	if err != nil {
		_ = driver.Shutdown()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		if !errors.Is(err, daemon.ErrAlreadyRunning) {
			_ = driver.Shutdown()
		}
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the panel wiring and that no other inkframe is running"),
		)
		return err
	}

	select {
	case <-signalCtx.Done():
		logger.Info("inkframe shutting down")
		return nil
	case <-d.Done():
		return d.Err()
	}
}

func runPreflight(logger *slog.Logger, cfg *config.Config) error {
	results := preflight.RunAll(cfg)
	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Bool("fatal", result.Fatal),
			logging.String(logging.FieldImpact, "frame may show the fallback image or fail to refresh"),
		)
	}
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, result := range failed {
		names = append(names, fmt.Sprintf("%s (%s)", result.Name, result.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(names, "; "))
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "inkframe.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	images, _ := catalog.ListImages(cfg.Paths.ImageDir)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("driver", cfg.Display.Driver),
		logging.Int("image_count", len(images)),
		logging.Bool("fallback_present", fileExists(cfg.Paths.FallbackImage)),
		logging.Bool("font_configured", strings.TrimSpace(cfg.Paths.FontPath) != ""),
		logging.Bool("remote_enabled", cfg.Remote.Enabled),
		logging.Bool("remote_token_present", strings.TrimSpace(cfg.Remote.Token) != ""),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	}
	if cfg.Display.Driver == config.DriverEPD7in3e {
		attrs = append(attrs,
			logging.String("spi_device", cfg.Display.SPIDevice),
			logging.Bool("spi_available", fileExists(cfg.Display.SPIDevice)),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
