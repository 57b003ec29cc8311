// Package paint implements the paint scheduler: the pre_paint/paint/
// post_paint cycle and the adaptive repaint-interval timer that governs
// how often the backend repaints the damaged region.
package paint

import (
	"time"

	"unagi/internal/region"
)

// Backend is the rendering contract's paint half. internal/rendering
// implements it; declared locally here to keep paint decoupled from the
// concrete rendering package.
type Backend interface {
	PaintAll(damaged bool)
}

// Hooks lets plugins observe the paint cycle. Both are called for every
// enabled and activated plugin, pre_paint before painting occurs and
// post_paint immediately after.
type Hooks interface {
	PrePaint()
	PostPaint()
}

// ewmaAlpha weights the exponential moving average of paint durations
// used to derive the next repaint interval: higher favours recent
// samples, trading stability for responsiveness to a changing paint
// cost (e.g. switching from partial to full-screen repaints).
const ewmaAlpha = 0.2

// Scheduler owns the adaptive repaint timer. One paint cycle per Tick:
// it checks the damage region and the force-repaint flag, invokes
// plugin pre/post hooks, delegates the actual paint to Backend, and
// recomputes the next repaint interval from an EWMA of observed paint
// durations clamped to [MinimumRepaintInterval, RefreshRateInterval].
type Scheduler struct {
	Region  *region.Manager
	Backend Backend
	Hooks   Hooks

	RefreshRateInterval  float64
	MinimumRepaintInterval float64

	repaintInterval float64
	ewmaPaintTime   float64
	paintCount      uint64
	initialised     bool

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// New creates a Scheduler whose initial repaint interval equals the
// screen's refresh-rate interval.
func New(rm *region.Manager, backend Backend, hooks Hooks, refreshRateInterval, minimumRepaintInterval float64) *Scheduler {
	return &Scheduler{
		Region: rm, Backend: backend, Hooks: hooks,
		RefreshRateInterval: refreshRateInterval, MinimumRepaintInterval: minimumRepaintInterval,
		repaintInterval: refreshRateInterval,
		Now:             time.Now,
	}
}

// RepaintInterval returns the current timer period, to be used by the
// caller to rearm its ticker after each Tick.
func (s *Scheduler) RepaintInterval() time.Duration {
	return time.Duration(s.repaintInterval * float64(time.Second))
}

// Tick runs one pre_paint/paint/post_paint cycle if the global damage
// region is non-empty or force_repaint is set; otherwise it is a no-op
// and the caller should re-arm its timer unchanged. Returns whether a
// paint actually occurred.
func (s *Scheduler) Tick() (painted bool, err error) {
	if s.Hooks != nil {
		s.Hooks.PrePaint()
	}

	forced := s.Region.ForceRepaint()
	empty, emptyErr := s.Region.IsEmpty()
	if emptyErr != nil {
		return false, emptyErr
	}
	if empty && !forced {
		return false, nil
	}

	if forced {
		if err := s.Region.ResetDamaged(); err != nil {
			return false, err
		}
	}

	start := s.Now()
	s.Backend.PaintAll(!empty || forced)

	if !forced {
		if err := s.Region.ResetDamaged(); err != nil {
			return false, err
		}
	}

	paintTime := s.Now().Sub(start).Seconds()

	if !forced {
		s.recordPaintTime(paintTime)
	}

	if s.Hooks != nil {
		s.Hooks.PostPaint()
	}

	s.Region.SetForceRepaint(false)
	return true, nil
}

// recordPaintTime folds paintTime into the EWMA and derives the next
// repaint interval. When the average paint cost leaves less than
// MinimumRepaintInterval of headroom before the next refresh, the
// interval falls back to the full refresh-rate interval rather than
// scheduling a repaint that would never keep up.
func (s *Scheduler) recordPaintTime(paintTime float64) {
	s.paintCount++
	if !s.initialised {
		s.ewmaPaintTime = paintTime
		s.initialised = true
	} else {
		s.ewmaPaintTime = ewmaAlpha*paintTime + (1-ewmaAlpha)*s.ewmaPaintTime
	}

	currentInterval := s.RefreshRateInterval - s.ewmaPaintTime
	if currentInterval < s.MinimumRepaintInterval {
		s.repaintInterval = s.RefreshRateInterval
	} else {
		s.repaintInterval = currentInterval
	}
}

// PaintCount returns the number of non-forced paints performed so far,
// mirroring the original implementation's paint_counter used in its
// debug-mode timing statistics.
func (s *Scheduler) PaintCount() uint64 { return s.paintCount }
