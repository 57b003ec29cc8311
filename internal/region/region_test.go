package region

import "testing"

// TestForceRepaintDefaultsFalse and the toggle tests below exercise the
// force-repaint flag directly; ForceRepaint/SetForceRepaint touch no
// *xgb.Conn, unlike every other Manager method which round-trips to the
// XFixes extension.
func TestForceRepaintDefaultsFalse(t *testing.T) {
	m := &Manager{}
	if m.ForceRepaint() {
		t.Fatal("a fresh Manager should not start with force-repaint set")
	}
}

func TestSetForceRepaintToggles(t *testing.T) {
	m := &Manager{}
	m.SetForceRepaint(true)
	if !m.ForceRepaint() {
		t.Fatal("SetForceRepaint(true) should make ForceRepaint() true")
	}
	m.SetForceRepaint(false)
	if m.ForceRepaint() {
		t.Fatal("SetForceRepaint(false) should make ForceRepaint() false")
	}
}

func TestSetForceRepaintIdempotent(t *testing.T) {
	m := &Manager{}
	m.SetForceRepaint(true)
	m.SetForceRepaint(true)
	if !m.ForceRepaint() {
		t.Fatal("repeated SetForceRepaint(true) should remain true")
	}
}
