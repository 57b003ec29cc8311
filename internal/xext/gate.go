// Package xext queries the presence and versions of the X extensions the
// compositor depends on (Composite, Damage, XFixes, RandR) and, when
// RandR is present, the screen's CRTC list and derived refresh rate.
package xext

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

// DefaultRefreshRateInterval is used when RandR is absent or reports an
// implausible rate (< 10ms or > 1s).
const DefaultRefreshRateInterval = 0.02

// MinimumRepaintInterval is the floor on the paint scheduler's timer
// period, 100Hz.
const MinimumRepaintInterval = 0.01

// ErrMissingExtension is returned when a required X extension is absent.
type ErrMissingExtension struct{ Name string }

func (e *ErrMissingExtension) Error() string {
	return fmt.Sprintf("xext: required extension %s is not present on this display", e.Name)
}

// ErrExtensionTooOld is returned when a required extension is present but
// below the minimum supported version.
type ErrExtensionTooOld struct {
	Name                   string
	Have, WantMajor, WantMinor uint32
}

func (e *ErrExtensionTooOld) Error() string {
	return fmt.Sprintf("xext: %s version too old (major=%d, want >= %d.%d)",
		e.Name, e.Have, e.WantMajor, e.WantMinor)
}

// Info holds the extension presence/version info and, if RandR is
// present, the CRTC list and derived refresh rate.
type Info struct {
	Composite *xproto.QueryExtensionReply
	Damage    *xproto.QueryExtensionReply
	XFixes    *xproto.QueryExtensionReply
	RandR     *xproto.QueryExtensionReply

	HasRandR bool
	CRTCs    []randr.GetCrtcInfoReply

	RefreshRateInterval float64
}

// Query issues QueryExtension for Composite, Damage, XFixes and RandR and
// verifies minimum versions (Composite >= 0.3, Damage >= 1.1,
// XFixes >= 2.0, RandR >= 1.3 if present — RandR is optional).
func Query(conn *xgb.Conn, root xproto.Window) (*Info, error) {
	compositeCookie := xproto.QueryExtension(conn, uint16(len("Composite")), "Composite")
	damageCookie := xproto.QueryExtension(conn, uint16(len("DAMAGE")), "DAMAGE")
	xfixesCookie := xproto.QueryExtension(conn, uint16(len("XFIXES")), "XFIXES")
	randrCookie := xproto.QueryExtension(conn, uint16(len("RANDR")), "RANDR")

	info := &Info{RefreshRateInterval: DefaultRefreshRateInterval}

	var err error
	if info.Composite, err = requireExtension(compositeCookie, "Composite"); err != nil {
		return nil, err
	}
	if err := composite.Initialize(conn); err == nil {
		ver, verr := composite.QueryVersion(conn, 0, 3).Reply()
		if verr != nil || (ver.MajorVersion == 0 && ver.MinorVersion < 3) {
			return nil, &ErrExtensionTooOld{Name: "Composite", WantMajor: 0, WantMinor: 3}
		}
	}

	if info.Damage, err = requireExtension(damageCookie, "Damage"); err != nil {
		return nil, err
	}
	if err := damage.Initialize(conn); err == nil {
		ver, verr := damage.QueryVersion(conn, 1, 1).Reply()
		if verr != nil || ver.MajorVersion < 1 || (ver.MajorVersion == 1 && ver.MinorVersion < 1) {
			return nil, &ErrExtensionTooOld{Name: "Damage", WantMajor: 1, WantMinor: 1}
		}
	}

	if info.XFixes, err = requireExtension(xfixesCookie, "XFixes"); err != nil {
		return nil, err
	}
	if err := xfixes.Initialize(conn); err == nil {
		ver, verr := xfixes.QueryVersion(conn, 2, 0).Reply()
		if verr != nil || ver.MajorVersion < 2 {
			return nil, &ErrExtensionTooOld{Name: "XFixes", WantMajor: 2, WantMinor: 0}
		}
	}

	// RandR is optional: absence just means the default 50Hz refresh
	// interval is used.
	if randrReply, rerr := randrCookie.Reply(); rerr == nil && randrReply.Present {
		info.RandR = randrReply
		if err := randr.Initialize(conn); err == nil {
			if ver, verr := randr.QueryVersion(conn, 1, 3).Reply(); verr == nil &&
				(ver.MajorVersion > 1 || (ver.MajorVersion == 1 && ver.MinorVersion >= 3)) {
				info.HasRandR = true
				randr.SelectInput(conn, root, randr.NotifyMaskScreenChange)
				if err := info.refreshCRTCs(conn, root); err != nil {
					return nil, err
				}
			}
		}
	}

	return info, nil
}

func requireExtension(cookie xproto.QueryExtensionCookie, name string) (*xproto.QueryExtensionReply, error) {
	reply, err := cookie.Reply()
	if err != nil {
		return nil, fmt.Errorf("xext: querying %s: %w", name, err)
	}
	if !reply.Present {
		return nil, &ErrMissingExtension{Name: name}
	}
	return reply, nil
}

// refreshCRTCs re-queries the RandR screen resources and recomputes
// RefreshRateInterval from the active CRTC with the highest refresh
// rate, clamped to the default when the result is implausible (< 10ms
// or > 1s).
func (info *Info) refreshCRTCs(conn *xgb.Conn, root xproto.Window) error {
	resReply, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return fmt.Errorf("xext: GetScreenResources: %w", err)
	}

	info.CRTCs = info.CRTCs[:0]
	var bestHz float64
	for _, crtc := range resReply.Crtcs {
		ci, err := randr.GetCrtcInfo(conn, crtc, resReply.ConfigTimestamp).Reply()
		if err != nil || ci.Mode == 0 {
			continue
		}
		info.CRTCs = append(info.CRTCs, *ci)

		for _, mode := range resReply.Modes {
			if randr.Mode(mode.Id) != ci.Mode || mode.Htotal == 0 || mode.Vtotal == 0 {
				continue
			}
			hz := float64(mode.DotClock) / (float64(mode.Htotal) * float64(mode.Vtotal))
			if hz > bestHz {
				bestHz = hz
			}
		}
	}

	if bestHz <= 0 {
		info.RefreshRateInterval = DefaultRefreshRateInterval
		return nil
	}
	interval := 1.0 / bestHz
	if interval < 0.010 || interval > 1.0 {
		info.RefreshRateInterval = DefaultRefreshRateInterval
		return nil
	}
	info.RefreshRateInterval = interval
	return nil
}

// RefreshScreenChange re-derives CRTCs/refresh rate on a
// RandR.ScreenChangeNotify event.
func (info *Info) RefreshScreenChange(conn *xgb.Conn, root xproto.Window) error {
	return info.refreshCRTCs(conn, root)
}
