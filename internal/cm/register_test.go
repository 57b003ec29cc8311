package cm

import "testing"

func TestSentinelErrorsAreDistinct(t *testing.T) {
	if ErrAlreadyActive == nil || ErrAnotherCompositorRunning == nil {
		t.Fatal("sentinel errors must be non-nil")
	}
	if ErrAlreadyActive.Error() == ErrAnotherCompositorRunning.Error() {
		t.Fatal("sentinel errors must have distinct messages")
	}
}

func TestErrAnotherCompositorRunningWraps(t *testing.T) {
	if ErrAnotherCompositorRunning.Error() == "" {
		t.Fatal("expected non-empty message")
	}
}
