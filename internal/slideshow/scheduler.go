package slideshow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkframe/internal/compositor"
	"inkframe/internal/display"
	"inkframe/internal/logging"
	"inkframe/internal/playback"
)

// Phase is the scheduler state for a cycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseCasting  Phase = "casting"
	PhaseBrowsing Phase = "browsing"
	PhaseFallback Phase = "fallback"
)

// Lister enumerates catalog images.
type Lister interface {
	List() ([]string, error)
}

// Composer turns an image file into a frame.
type Composer interface {
	ComposeFile(path string) (*compositor.Frame, error)
}

// Options holds scheduler timing and the fallback image.
type Options struct {
	FallbackImage  string
	Dwell          time.Duration
	FallbackDwell  time.Duration
	Poll           time.Duration
	CastPoll       time.Duration
	SkipBrokenOnce bool
}

// Status summarizes scheduler progress.
type Status struct {
	Phase          Phase     `json:"phase"`
	Index          int       `json:"index"`
	CatalogSize    int       `json:"catalog_size"`
	FramesRendered int64     `json:"frames_rendered"`
	DecodeFailures int64     `json:"decode_failures"`
	LastFrame      string    `json:"last_frame,omitempty"`
	LastFrameAt    time.Time `json:"last_frame_at,omitzero"`
	LastError      string    `json:"last_error,omitempty"`
}

// Scheduler drives the panel from the catalog and the shared playback state.
// Step and Run must be called from a single goroutine; Status is safe from
// any goroutine.
type Scheduler struct {
	catalog  Lister
	composer Composer
	driver   display.Driver
	state    *playback.State
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	index         int
	started       bool
	lastRendered  string
	castAttempted uint64
	broken        map[string]struct{}

	mu     sync.Mutex
	status Status
}

// New wires a scheduler. Zero durations fall back to the usual defaults.
func New(catalog Lister, composer Composer, driver display.Driver, state *playback.State, opts Options, logger *slog.Logger) *Scheduler {
	if opts.Dwell <= 0 {
		opts.Dwell = 300 * time.Second
	}
	if opts.FallbackDwell <= 0 {
		opts.FallbackDwell = 30 * time.Second
	}
	if opts.Poll <= 0 {
		opts.Poll = 500 * time.Millisecond
	}
	if opts.CastPoll <= 0 {
		opts.CastPoll = 500 * time.Millisecond
	}
	return &Scheduler{
		catalog:  catalog,
		composer: composer,
		driver:   driver,
		state:    state,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "slideshow"),
		now:      time.Now,
		broken:   map[string]struct{}{},
		status:   Status{Phase: PhaseIdle},
	}
}

// Status returns a copy of the current progress counters.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run cycles until ctx is cancelled or the driver fails. Driver failures are
// returned wrapped in display.ErrDriver; cancellation returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("slideshow started",
		logging.Duration("dwell", s.opts.Dwell),
		logging.Duration("fallback_dwell", s.opts.FallbackDwell),
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		phase, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if err := s.wait(ctx, phase); err != nil {
			return err
		}
	}
}

// Step performs one scheduler cycle without the trailing wait and reports
// the phase it ran.
func (s *Scheduler) Step(ctx context.Context) (Phase, error) {
	if err := ctx.Err(); err != nil {
		return PhaseIdle, err
	}
	snap := s.state.Snapshot()
	if snap.Casting() {
		return PhaseCasting, s.stepCasting(snap)
	}

	images, err := s.catalog.List()
	if err != nil {
		logging.WarnWithContext(s.logger, "catalog listing failed; treating as empty", "catalog_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.image_dir permissions"),
			logging.String(logging.FieldImpact, "fallback image shown until the library is readable"),
		)
		images = nil
	}
	if len(images) == 0 {
		return PhaseFallback, s.stepFallback()
	}
	return PhaseBrowsing, s.stepBrowsing(images)
}

func (s *Scheduler) stepCasting(snap playback.Snapshot) error {
	s.setPhase(PhaseCasting)
	if snap.CastDisplayed || snap.Generation == s.castAttempted {
		return nil
	}
	s.castAttempted = snap.Generation
	s.lastRendered = ""
	shown, err := s.render(snap.CastOverride, PhaseCasting)
	if err != nil {
		return err
	}
	if shown {
		s.state.MarkCastDisplayed(snap.Generation)
	}
	return nil
}

func (s *Scheduler) stepFallback() error {
	s.setPhase(PhaseFallback)
	s.started = false
	s.lastRendered = ""
	s.updateStatus(func(st *Status) {
		st.CatalogSize = 0
		st.Index = 0
	})
	_, err := s.render(s.opts.FallbackImage, PhaseFallback)
	return err
}

func (s *Scheduler) stepBrowsing(images []string) error {
	s.setPhase(PhaseBrowsing)
	n := len(images)
	step := playback.StepHold
	first := !s.started
	if first {
		s.started = true
		s.index = 0
	} else {
		s.index = min(s.index, n-1)
		step = s.state.TakeStep()
		switch step {
		case playback.StepForward:
			s.index = (s.index + 1) % n
		case playback.StepBackward:
			s.index = (s.index - 1 + n) % n
		}
	}
	s.updateStatus(func(st *Status) {
		st.Index = s.index
		st.CatalogSize = n
	})

	path := images[s.index]
	if !first && step == playback.StepHold && path == s.lastRendered {
		return nil
	}
	shown, err := s.render(path, PhaseBrowsing)
	if err != nil {
		return err
	}
	if shown {
		s.lastRendered = path
		s.state.SetCurrentPath(path)
	} else {
		s.lastRendered = ""
	}
	return nil
}

// render composes and displays path. It reports false when the image was
// skipped and returns an error only for driver failures.
func (s *Scheduler) render(path string, phase Phase) (bool, error) {
	start := s.now()
	frame, err := s.composer.ComposeFile(path)
	if err != nil {
		s.decodeFailed(path, phase, err)
		return false, nil
	}
	buf, err := s.driver.Buffer(frame.Image)
	if err == nil {
		err = s.driver.Display(buf)
	}
	if err != nil {
		if !errors.Is(err, display.ErrDriver) {
			err = fmt.Errorf("%w: %w", display.ErrDriver, err)
		}
		s.updateStatus(func(st *Status) { st.LastError = err.Error() })
		logging.ErrorWithContext(s.logger, "panel update failed", "display_failed",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldState, string(phase)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the panel wiring and SPI device"),
		)
		return false, err
	}

	delete(s.broken, path)
	at := s.now()
	s.updateStatus(func(st *Status) {
		st.FramesRendered++
		st.LastFrame = path
		st.LastFrameAt = at
	})
	s.logger.Info("frame displayed",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldState, string(phase)),
		logging.Bool("rotated", frame.Rotated),
		logging.Duration("duration", at.Sub(start)),
	)
	return true, nil
}

func (s *Scheduler) decodeFailed(path string, phase Phase, err error) {
	s.updateStatus(func(st *Status) {
		st.DecodeFailures++
		st.LastError = err.Error()
	})
	if _, seen := s.broken[path]; seen && s.opts.SkipBrokenOnce {
		s.logger.Debug("image skipped again", logging.String(logging.FieldPath, path), logging.Error(err))
		return
	}
	s.broken[path] = struct{}{}
	logging.WarnWithContext(s.logger, "image could not be decoded; skipping", "frame_decode_failed",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldState, string(phase)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the file is a readable jpg, png or bmp"),
		logging.String(logging.FieldImpact, "image skipped for this cycle"),
	)
}

func (s *Scheduler) setPhase(phase Phase) {
	s.mu.Lock()
	prev := s.status.Phase
	s.status.Phase = phase
	s.mu.Unlock()
	if prev != phase {
		s.logger.Info("slideshow state changed",
			logging.String("from", string(prev)),
			logging.String(logging.FieldState, string(phase)),
		)
	}
}

func (s *Scheduler) updateStatus(fn func(*Status)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
}
