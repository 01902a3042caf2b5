package display

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"inkframe/internal/logging"
)

// ErrDriver marks failures talking to the panel.
var ErrDriver = errors.New("display driver error")

// Driver is the panel contract.
type Driver interface {
	Init() error
	Clear() error
	// Buffer converts a composite into the driver's native frame format.
	Buffer(img image.Image) ([]byte, error)
	Display(buf []byte) error
	Shutdown() error
}

// Guarded wraps a driver so that every error carries ErrDriver, operations
// are serialized and Shutdown runs at most once.
type Guarded struct {
	name   string
	inner  Driver
	logger *slog.Logger

	mu       sync.Mutex
	shutdown bool
}

// Guard wraps inner under name.
func Guard(name string, inner Driver, logger *slog.Logger) *Guarded {
	return &Guarded{
		name:   name,
		inner:  inner,
		logger: logging.NewComponentLogger(logger, "display").With(logging.String("driver", name)),
	}
}

// Name returns the driver name.
func (g *Guarded) Name() string { return g.name }

func (g *Guarded) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDriver) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %w", ErrDriver, g.name, op, err)
}

var errShutdown = errors.New("driver already shut down")

func (g *Guarded) Init() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shutdown {
		return g.wrap("init", errShutdown)
	}
	g.logger.Info("panel init")
	return g.wrap("init", g.inner.Init())
}

func (g *Guarded) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shutdown {
		return g.wrap("clear", errShutdown)
	}
	return g.wrap("clear", g.inner.Clear())
}

func (g *Guarded) Buffer(img image.Image) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf, err := g.inner.Buffer(img)
	return buf, g.wrap("buffer", err)
}

func (g *Guarded) Display(buf []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shutdown {
		return g.wrap("display", errShutdown)
	}
	return g.wrap("display", g.inner.Display(buf))
}

// Shutdown releases the panel. Later calls are no-ops.
func (g *Guarded) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shutdown {
		return nil
	}
	g.shutdown = true
	g.logger.Info("panel shutdown")
	return g.wrap("shutdown", g.inner.Shutdown())
}
