package atoms

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

// newTestRegistry builds a Registry with its lookup maps populated
// directly, bypassing New (which interns atoms over a live connection),
// so the pure lookup/classification logic can be exercised without an
// X server.
func newTestRegistry() *Registry {
	r := &Registry{
		byName:          map[string]xproto.Atom{"_XROOTPMAP_ID": 100, "_XSETROOT_ID": 101, "_NET_SUPPORTED": 102},
		backgroundAtoms: map[xproto.Atom]bool{100: true, 101: true},
		supported:       map[xproto.Atom]bool{},
	}
	return r
}

func TestAtomReturnsInternedValue(t *testing.T) {
	r := newTestRegistry()
	if got := r.Atom("_NET_SUPPORTED"); got != 102 {
		t.Fatalf("Atom(_NET_SUPPORTED) = %d, want 102", got)
	}
}

func TestAtomPanicsOnUnknownName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Atom should panic on a name outside the startup table")
		}
	}()
	newTestRegistry().Atom("_SOME_UNKNOWN_ATOM")
}

func TestIsBackgroundAtom(t *testing.T) {
	r := newTestRegistry()
	if !r.IsBackgroundAtom(100) {
		t.Fatal("_XROOTPMAP_ID's atom should be classified as a background atom")
	}
	if !r.IsBackgroundAtom(101) {
		t.Fatal("_XSETROOT_ID's atom should be classified as a background atom")
	}
	if r.IsBackgroundAtom(102) {
		t.Fatal("_NET_SUPPORTED's atom should not be classified as a background atom")
	}
}

func TestIsSupportedReflectsLastUpdate(t *testing.T) {
	r := newTestRegistry()
	if r.IsSupported(102) {
		t.Fatal("nothing should be supported before any UpdateSupported call")
	}
	r.supported[102] = true
	if !r.IsSupported(102) {
		t.Fatal("IsSupported should reflect the supported map")
	}
}
