package playback

import "sync"

// Step is the catalog transition resolved for one scheduler cycle.
type Step int

const (
	// StepHold keeps the current index.
	StepHold Step = iota
	// StepForward moves to the next image.
	StepForward
	// StepBackward moves to the previous image.
	StepBackward
)

func (s Step) String() string {
	switch s {
	case StepForward:
		return "forward"
	case StepBackward:
		return "backward"
	default:
		return "hold"
	}
}

// Snapshot is a consistent copy of the control state.
type Snapshot struct {
	Advance       bool   `json:"advance"`
	Reverse       bool   `json:"reverse"`
	Paused        bool   `json:"paused"`
	CastOverride  string `json:"cast_override,omitempty"`
	CastDisplayed bool   `json:"cast_displayed"`
	CurrentPath   string `json:"current_path,omitempty"`
	// Generation increases with every cast assignment.
	Generation uint64 `json:"generation"`
}

// Casting reports whether an override is active.
func (s Snapshot) Casting() bool {
	return s.CastOverride != ""
}

// State is the single shared control object.
type State struct {
	mu            sync.Mutex
	advance       bool
	reverse       bool
	paused        bool
	castOverride  string
	castDisplayed bool
	currentPath   string
	generation    uint64
	wake          chan struct{}
}

// New returns an unpaused state with no pending commands.
func New() *State {
	return &State{wake: make(chan struct{}, 1)}
}

// Wake delivers a value after any mutation. The channel holds at most one
// pending signal.
func (s *State) Wake() <-chan struct{} {
	return s.wake
}

func (s *State) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// RequestAdvance asks the scheduler to move forward once.
func (s *State) RequestAdvance() {
	s.mu.Lock()
	s.advance = true
	s.mu.Unlock()
	s.notify()
}

// RequestReverse asks the scheduler to move back once.
func (s *State) RequestReverse() {
	s.mu.Lock()
	s.reverse = true
	s.mu.Unlock()
	s.notify()
}

// TogglePause flips the paused flag and returns the new value.
func (s *State) TogglePause() bool {
	s.mu.Lock()
	s.paused = !s.paused
	paused := s.paused
	s.mu.Unlock()
	s.notify()
	return paused
}

// SetCastOverride shows path until Resume. The slideshow is paused so that
// resuming continues from where it stood. It returns the assignment
// generation.
func (s *State) SetCastOverride(path string) uint64 {
	s.mu.Lock()
	s.castOverride = path
	s.castDisplayed = false
	s.paused = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()
	s.notify()
	return gen
}

// Resume clears any cast override and unpauses.
func (s *State) Resume() {
	s.mu.Lock()
	s.castOverride = ""
	s.castDisplayed = false
	s.paused = false
	s.mu.Unlock()
	s.notify()
}

// CurrentPath returns the last catalog image shown on the panel.
func (s *State) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPath
}

// SetCurrentPath records the catalog image now on the panel.
func (s *State) SetCurrentPath(path string) {
	s.mu.Lock()
	s.currentPath = path
	s.mu.Unlock()
}

// Paused reports the paused flag.
func (s *State) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Snapshot returns a copy of every field taken under one lock.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Advance:       s.advance,
		Reverse:       s.reverse,
		Paused:        s.paused,
		CastOverride:  s.castOverride,
		CastDisplayed: s.castDisplayed,
		CurrentPath:   s.currentPath,
		Generation:    s.generation,
	}
}

// TakeStep resolves the transition for a browsing cycle and consumes the
// one-shot flags. Reverse wins over advance; both flags are cleared when
// reverse is taken so a single cycle never applies two moves.
func (s *State) TakeStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.reverse:
		s.reverse = false
		s.advance = false
		return StepBackward
	case s.advance || !s.paused:
		s.advance = false
		return StepForward
	default:
		return StepHold
	}
}

// MarkCastDisplayed records that the override of generation gen reached the
// panel. It reports false when a newer assignment or a resume superseded it.
func (s *State) MarkCastDisplayed(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.castOverride == "" || s.generation != gen {
		return false
	}
	s.castDisplayed = true
	return true
}

// Interrupted reports whether a pending command should end the current
// dwell early.
func (s *State) Interrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance || s.reverse || s.castOverride != ""
}
