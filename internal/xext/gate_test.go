package xext

import "testing"

// rateFromMode mirrors the arithmetic in refreshCRTCs without needing a
// live *xgb.Conn, so the clamping behaviour can be exercised directly.
func rateFromMode(dotClock uint32, htotal, vtotal uint16) float64 {
	if htotal == 0 || vtotal == 0 {
		return 0
	}
	hz := float64(dotClock) / (float64(htotal) * float64(vtotal))
	if hz <= 0 {
		return DefaultRefreshRateInterval
	}
	interval := 1.0 / hz
	if interval < 0.010 || interval > 1.0 {
		return DefaultRefreshRateInterval
	}
	return interval
}

func TestRateFromMode60Hz(t *testing.T) {
	// A typical 1920x1080@60Hz CVT-RB mode: ~138.5MHz dot clock.
	got := rateFromMode(138500000, 2080, 1111)
	want := 1.0 / 60.0
	if diff := got - want; diff > 0.002 || diff < -0.002 {
		t.Fatalf("rateFromMode = %v, want ~%v", got, want)
	}
}

func TestRateFromModeZeroTotalsReturnsZeroSentinel(t *testing.T) {
	if got := rateFromMode(138500000, 0, 1111); got != 0 {
		t.Fatalf("expected 0 sentinel for zero htotal, got %v", got)
	}
}

func TestRateFromModeImplausiblyFastClampsToDefault(t *testing.T) {
	// A bogus dot clock producing a sub-10ms interval must fall back.
	got := rateFromMode(1000000000, 10, 10)
	if got != DefaultRefreshRateInterval {
		t.Fatalf("rateFromMode = %v, want default %v", got, DefaultRefreshRateInterval)
	}
}

func TestRateFromModeImplausiblySlowClampsToDefault(t *testing.T) {
	got := rateFromMode(1000, 10000, 10000)
	if got != DefaultRefreshRateInterval {
		t.Fatalf("rateFromMode = %v, want default %v", got, DefaultRefreshRateInterval)
	}
}

func TestErrMissingExtensionMessage(t *testing.T) {
	err := &ErrMissingExtension{Name: "Composite"}
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestErrExtensionTooOldMessage(t *testing.T) {
	err := &ErrExtensionTooOld{Name: "Damage", Have: 0, WantMajor: 1, WantMinor: 1}
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestMinimumRepaintIntervalBelowDefault(t *testing.T) {
	if MinimumRepaintInterval >= DefaultRefreshRateInterval {
		t.Fatalf("MinimumRepaintInterval (%v) must be below DefaultRefreshRateInterval (%v)",
			MinimumRepaintInterval, DefaultRefreshRateInterval)
	}
}
