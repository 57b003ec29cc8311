package paint

import (
	"testing"
	"time"
)

// Scheduler.Tick takes a concrete *region.Manager bound to a live X
// connection, so these tests exercise recordPaintTime and the clamping
// arithmetic directly — that is where all of the scheduler's actual
// decision logic lives.

func TestRecordPaintTimeClampsToRefreshWhenNoHeadroom(t *testing.T) {
	s := &Scheduler{RefreshRateInterval: 0.02, MinimumRepaintInterval: 0.01}
	s.recordPaintTime(0.018) // leaves only 0.002s headroom, below the 0.01 floor
	if s.repaintInterval != s.RefreshRateInterval {
		t.Fatalf("repaintInterval = %v, want refresh-rate fallback %v", s.repaintInterval, s.RefreshRateInterval)
	}
}

func TestRecordPaintTimeUsesHeadroomWhenAvailable(t *testing.T) {
	s := &Scheduler{RefreshRateInterval: 0.02, MinimumRepaintInterval: 0.01}
	s.recordPaintTime(0.002)
	want := 0.02 - 0.002
	if diff := s.repaintInterval - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("repaintInterval = %v, want %v", s.repaintInterval, want)
	}
}

func TestRecordPaintTimeEWMASmoothsSpikes(t *testing.T) {
	s := &Scheduler{RefreshRateInterval: 0.1, MinimumRepaintInterval: 0.01}
	for i := 0; i < 20; i++ {
		s.recordPaintTime(0.01)
	}
	// One spike should not dominate the average given alpha=0.2.
	s.recordPaintTime(0.09)
	if s.ewmaPaintTime > 0.03 {
		t.Fatalf("ewmaPaintTime = %v, spike dominated the average", s.ewmaPaintTime)
	}
}

func TestPaintCountIncrementsPerRecordedPaintTime(t *testing.T) {
	s := &Scheduler{RefreshRateInterval: 0.02, MinimumRepaintInterval: 0.01}
	s.recordPaintTime(0.001)
	s.recordPaintTime(0.001)
	if s.PaintCount() != 2 {
		t.Fatalf("PaintCount() = %d, want 2", s.PaintCount())
	}
}

func TestRepaintIntervalDuration(t *testing.T) {
	s := &Scheduler{repaintInterval: 0.02}
	if got := s.RepaintInterval(); got != 20*time.Millisecond {
		t.Fatalf("RepaintInterval() = %v, want 20ms", got)
	}
}
