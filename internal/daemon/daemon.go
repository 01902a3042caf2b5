package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"inkframe/internal/catalog"
	"inkframe/internal/compositor"
	"inkframe/internal/config"
	"inkframe/internal/display"
	"inkframe/internal/fileutil"
	"inkframe/internal/logging"
	"inkframe/internal/notifications"
	"inkframe/internal/playback"
	"inkframe/internal/slideshow"
)

// ErrAlreadyRunning is returned when another frame process holds the lock.
var ErrAlreadyRunning = errors.New("another inkframe instance is already running")

// ErrEmptyCast is returned when a cast upload carries no bytes.
var ErrEmptyCast = errors.New("cast image is empty")

// Dependencies are the collaborators a daemon drives. Catalog and Composer
// default to the filesystem catalog and the standard compositor; Driver is
// required.
type Dependencies struct {
	Driver   display.Driver
	Catalog  slideshow.Lister
	Composer slideshow.Composer
	Notifier notifications.Service
}

// Daemon owns the frame runtime and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	state     *playback.State
	scheduler *slideshow.Scheduler
	driver    display.Driver
	notifier  notifications.Service
	logPath   string

	lockPath string
	lock     *flock.Flock

	castMu sync.Mutex

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	api     *apiServer
	errMu   sync.Mutex
	runErr  error
}

// Status represents daemon runtime information.
type Status struct {
	Running    bool              `json:"running"`
	PID        int               `json:"pid"`
	Driver     string            `json:"driver"`
	ImageDir   string            `json:"image_dir"`
	LockPath   string            `json:"lock_path"`
	LogPath    string            `json:"log_path,omitempty"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	Playback   playback.Snapshot `json:"playback"`
	Slideshow  slideshow.Status  `json:"slideshow"`
	LastError  string            `json:"last_error,omitempty"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, deps Dependencies, logPath string) (*Daemon, error) {
	if cfg == nil || deps.Driver == nil {
		return nil, errors.New("daemon requires config and display driver")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Catalog{Dir: cfg.Paths.ImageDir, Shuffle: cfg.Slideshow.Shuffle}
	}
	if deps.Composer == nil {
		comp, err := compositor.New(compositor.Options{
			Width:    cfg.Display.Width,
			Height:   cfg.Display.Height,
			FontPath: cfg.Paths.FontPath,
			FontSize: cfg.Display.CaptionFontSize,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create compositor: %w", err)
		}
		deps.Composer = comp
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}

	state := playback.New()
	scheduler := slideshow.New(deps.Catalog, deps.Composer, deps.Driver, state, slideshow.Options{
		FallbackImage:  cfg.Paths.FallbackImage,
		Dwell:          cfg.Dwell(),
		FallbackDwell:  cfg.FallbackDwell(),
		Poll:           cfg.PollInterval(),
		CastPoll:       cfg.CastPollInterval(),
		SkipBrokenOnce: cfg.Slideshow.SkipBrokenOnce,
	}, logger)

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		state:     state,
		scheduler: scheduler,
		driver:    deps.Driver,
		notifier:  deps.Notifier,
		logPath:   logPath,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the lock, prepares the panel and launches the scheduler and
// the web remote.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if err := d.driver.Init(); err != nil {
		d.abortStart()
		return fmt.Errorf("init panel: %w", err)
	}
	if err := d.driver.Clear(); err != nil {
		d.abortStart()
		return fmt.Errorf("clear panel: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if d.cfg.Remote.Enabled {
		api, err := newAPIServer(d.cfg, d, d.logger)
		if err == nil {
			err = api.start(runCtx)
		}
		if err != nil {
			cancel()
			d.abortStart()
			return fmt.Errorf("start remote: %w", err)
		}
		d.api = api
	}

	d.cancel = cancel
	d.done = make(chan struct{})
	d.setErr(nil)
	d.running.Store(true)
	go d.run(runCtx)

	d.logger.Info("inkframe daemon started",
		logging.String("lock", d.lockPath),
		logging.String("image_dir", d.cfg.Paths.ImageDir),
		logging.String("driver", d.cfg.Display.Driver),
	)
	images, _ := catalog.ListImages(d.cfg.Paths.ImageDir)
	d.publish(ctx, notifications.EventStarted, notifications.Payload{
		"images": len(images),
		"dir":    d.cfg.Paths.ImageDir,
		"bind":   d.RemoteAddr(),
	})
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.driver.Shutdown()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

func (d *Daemon) run(ctx context.Context) {
	defer close(d.done)
	err := d.scheduler.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	d.setErr(err)
	logging.ErrorWithContext(d.logger, "slideshow stopped", "slideshow_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the panel connection and restart inkframe"),
	)
	d.publish(context.WithoutCancel(ctx), notifications.EventError, notifications.Payload{
		"error":   err,
		"context": "panel refresh",
	})
}

// Done is closed when the scheduler goroutine exits. It is nil before Start.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Err returns the fatal scheduler error, if any.
func (d *Daemon) Err() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.runErr
}

func (d *Daemon) setErr(err error) {
	d.errMu.Lock()
	d.runErr = err
	d.errMu.Unlock()
}

// Stop cancels the scheduler, shuts the panel down and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		<-d.done
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	if err := d.driver.Shutdown(); err != nil {
		logging.WarnWithContext(d.logger, "panel shutdown failed", "panel_shutdown_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "panel may stay powered until the next start"),
		)
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("inkframe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Next skips to the next image.
func (d *Daemon) Next() {
	d.state.RequestAdvance()
	d.logger.Debug("advance requested")
}

// Previous goes back one image.
func (d *Daemon) Previous() {
	d.state.RequestReverse()
	d.logger.Debug("reverse requested")
}

// TogglePause flips the paused flag and returns the new value.
func (d *Daemon) TogglePause() bool {
	paused := d.state.TogglePause()
	d.logger.Info("pause toggled", logging.Bool("paused", paused))
	return paused
}

// Resume ends a cast and unpauses.
func (d *Daemon) Resume() {
	d.state.Resume()
	d.logger.Info("slideshow resumed")
}

// Cast stores the uploaded image at the configured cast path and shows it
// until Resume.
func (d *Daemon) Cast(ctx context.Context, src io.Reader, filename string) error {
	d.castMu.Lock()
	defer d.castMu.Unlock()

	body := bufio.NewReader(src)
	if _, err := body.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyCast
		}
		return fmt.Errorf("read cast image: %w", err)
	}

	target := d.cfg.Paths.CastPath
	written, err := fileutil.WriteAtomic(target, body, 0o644)
	if err != nil {
		return fmt.Errorf("store cast image: %w", err)
	}

	gen := d.state.SetCastOverride(target)
	name := strings.TrimSpace(filepath.Base(filename))
	logging.WithContext(ctx, d.logger).Info("image cast",
		logging.String("filename", name),
		logging.Int64("bytes", written),
		logging.Any("generation", gen),
	)
	d.publish(ctx, notifications.EventCast, notifications.Payload{"filename": name})
	return nil
}

// CastFile casts an image that already exists on this host.
func (d *Daemon) CastFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cast source: %w", err)
	}
	defer file.Close()
	return d.Cast(ctx, file, path)
}

// Playback returns the shared control state.
func (d *Daemon) Playback() *playback.State {
	return d.state
}

// RemoteAddr returns the web remote listen address once started.
func (d *Daemon) RemoteAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	status := Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		Driver:     d.cfg.Display.Driver,
		ImageDir:   d.cfg.Paths.ImageDir,
		LockPath:   d.lockPath,
		LogPath:    d.logPath,
		RemoteAddr: d.RemoteAddr(),
		Playback:   d.state.Snapshot(),
		Slideshow:  d.scheduler.Status(),
	}
	if err := d.Err(); err != nil {
		status.LastError = err.Error()
	}
	return status
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := d.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
			logging.String(logging.FieldImpact, "push notification not delivered"),
		)
	}
}
