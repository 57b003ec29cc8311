// Package keymod resolves which of the X modifier bits (Mod1 through
// Mod5) correspond to NumLock, ShiftLock, CapsLock and ModeSwitch, so
// plugins that grab keys can mask those "lock" modifiers out of a
// reported event state before comparing it against a configured
// key binding.
package keymod

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Keysym values from X11/keysym.h for the four lock-like modifiers
// this resolver cares about.
const (
	keysymNumLock    = 0xff7f
	keysymShiftLock  = 0xffe6
	keysymCapsLock   = 0xffe5
	keysymModeSwitch = 0xff7e
)

// modMasks lists the eight modifier bits in GetModifierMapping's fixed
// order: Shift, Lock, Control, Mod1..Mod5.
var modMasks = [8]uint16{
	xproto.ModMaskShift, xproto.ModMaskLock, xproto.ModMaskControl,
	xproto.ModMask1, xproto.ModMask2, xproto.ModMask3, xproto.ModMask4, xproto.ModMask5,
}

// Resolver holds the resolved bitmask for each lock-like modifier, as
// computed once by Resolve. It is not recomputed when the keyboard
// mapping changes: a MappingNotify is only forwarded to plugins.
type Resolver struct {
	NumLockMask    uint16
	ShiftLockMask  uint16
	CapsLockMask   uint16
	ModeSwitchMask uint16
}

// Resolve queries GetModifierMapping and GetKeyboardMapping and
// determines which modifier bit, if any, each of NumLock/ShiftLock/
// CapsLock/ModeSwitch is bound to. A modifier with no bound keycode
// yields a zero mask, which is a safe no-op when used to clear bits
// from an event's state.
func Resolve(conn *xgb.Conn, setup *xproto.SetupInfo) (*Resolver, error) {
	modMapping, err := xproto.GetModifierMapping(conn).Reply()
	if err != nil {
		return nil, err
	}

	minKc, maxKc := setup.MinKeycode, setup.MaxKeycode
	kbdMapping, err := xproto.GetKeyboardMapping(conn, minKc, byte(int(maxKc)-int(minKc)+1)).Reply()
	if err != nil {
		return nil, err
	}

	r := &Resolver{}
	perMod := int(modMapping.KeycodesPerModifier)

	for modIndex := 0; modIndex < 8; modIndex++ {
		mask := modMasks[modIndex]
		for i := 0; i < perMod; i++ {
			kc := modMapping.Keycodes[modIndex*perMod+i]
			if kc == 0 {
				continue
			}
			for _, ks := range keysymsForKeycode(kbdMapping, minKc, kc) {
				switch ks {
				case keysymNumLock:
					r.NumLockMask = mask
				case keysymShiftLock:
					r.ShiftLockMask = mask
				case keysymCapsLock:
					r.CapsLockMask = mask
				case keysymModeSwitch:
					r.ModeSwitchMask = mask
				}
			}
		}
	}

	return r, nil
}

func keysymsForKeycode(reply *xproto.GetKeyboardMappingReply, minKc xproto.Keycode, kc xproto.Keycode) []xproto.Keysym {
	perKc := int(reply.KeysymsPerKeycode)
	idx := (int(kc) - int(minKc)) * perKc
	if idx < 0 || idx+perKc > len(reply.Keysyms) {
		return nil
	}
	return reply.Keysyms[idx : idx+perKc]
}

// CleanMask strips every resolved lock modifier from state, leaving
// only the modifiers meaningful for matching a key binding.
func (r *Resolver) CleanMask(state uint16) uint16 {
	return state &^ (r.NumLockMask | r.ShiftLockMask | r.CapsLockMask | r.ModeSwitchMask |
		xproto.ModMaskLock)
}
