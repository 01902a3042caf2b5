package slideshow

import (
	"context"
	"time"
)

func (s *Scheduler) wait(ctx context.Context, phase Phase) error {
	switch phase {
	case PhaseCasting:
		return s.sleep(ctx, s.opts.CastPoll)
	case PhaseFallback:
		return s.fallbackDwell(ctx)
	default:
		return s.dwell(ctx)
	}
}

// dwell keeps the current image up for the configured duration. Time spent
// paused does not count. It returns early once a command is pending.
func (s *Scheduler) dwell(ctx context.Context) error {
	var elapsed time.Duration
	for elapsed < s.opts.Dwell {
		if s.state.Interrupted() {
			return nil
		}
		paused := s.state.Paused()
		start := s.now()
		if err := s.sleep(ctx, min(s.opts.Poll, s.opts.Dwell-elapsed)); err != nil {
			return err
		}
		if !paused && !s.state.Paused() {
			elapsed += s.now().Sub(start)
		}
	}
	return nil
}

// fallbackDwell waits before the catalog is checked again. A cast ends the
// wait early.
func (s *Scheduler) fallbackDwell(ctx context.Context) error {
	deadline := s.now().Add(s.opts.FallbackDwell)
	for {
		if s.state.Snapshot().Casting() {
			return nil
		}
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			return nil
		}
		if err := s.sleep(ctx, min(s.opts.Poll, remaining)); err != nil {
			return err
		}
	}
}

// sleep waits for d, a state change or cancellation.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.state.Wake():
		return nil
	case <-timer.C:
		return nil
	}
}
