package keymod

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestKeysymsForKeycode(t *testing.T) {
	reply := &xproto.GetKeyboardMappingReply{
		KeysymsPerKeycode: 2,
		Keysyms: []xproto.Keysym{
			'a', 'A', // keycode minKc+0
			keysymNumLock, 0, // keycode minKc+1
		},
	}
	got := keysymsForKeycode(reply, 8, 9)
	if len(got) != 2 || got[0] != keysymNumLock {
		t.Fatalf("keysymsForKeycode = %v, want [NumLock, 0]", got)
	}
}

func TestKeysymsForKeycodeOutOfRange(t *testing.T) {
	reply := &xproto.GetKeyboardMappingReply{
		KeysymsPerKeycode: 2,
		Keysyms:           []xproto.Keysym{'a', 'A'},
	}
	if got := keysymsForKeycode(reply, 8, 100); got != nil {
		t.Fatalf("expected nil for out-of-range keycode, got %v", got)
	}
}

func TestCleanMaskStripsLockModifiers(t *testing.T) {
	r := &Resolver{NumLockMask: xproto.ModMask2, CapsLockMask: xproto.ModMaskLock}
	state := xproto.ModMaskShift | xproto.ModMask2 | xproto.ModMaskLock
	got := r.CleanMask(state)
	if got != xproto.ModMaskShift {
		t.Fatalf("CleanMask = %#x, want only ModMaskShift (%#x)", got, xproto.ModMaskShift)
	}
}

func TestCleanMaskNoOpWhenNothingResolved(t *testing.T) {
	r := &Resolver{}
	state := xproto.ModMaskShift | xproto.ModMaskControl
	// ModMaskLock is always stripped even with nothing resolved, since
	// CapsLock being unresolved should not leak the Lock bit through.
	got := r.CleanMask(state)
	if got != state {
		t.Fatalf("CleanMask = %#x, want unchanged %#x", got, state)
	}
}
