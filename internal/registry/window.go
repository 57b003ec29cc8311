// Package registry implements the window registry: the stack-ordered list
// of known top-level windows overlaid with an indexed map for O(log n)
// dispatch lookup, plus the window record's lifecycle operations.
package registry

import (
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

// MapState mirrors a window's server-reported map state.
type MapState int

const (
	Unmapped MapState = iota
	Unviewable
	Viewable
)

// TransformStatus tracks whether a window record's transform matrix still
// needs to be (re)applied by the rendering backend.
type TransformStatus int

const (
	TransformNone TransformStatus = iota
	TransformRequired
	TransformDone
)

// FullyDamagedRatio and DamageNotifyMax are the only thresholds of record
// governing when a window is treated as fully damaged: once
// damage_notify_counter exceeds DamageNotifyMax, or once the accumulated
// damaged ratio reaches FullyDamagedRatio, the whole window region is
// added to damage instead of the individual reported rectangles.
const (
	FullyDamagedRatio = 0.9
	DamageNotifyMax   = 24
)

// Geometry is a window's last-known position and size, in root
// coordinates, including its border width.
type Geometry struct {
	X, Y          int16
	Width, Height uint16
	BorderWidth   uint16
}

// WidthWithBorder and HeightWithBorder report the window's on-screen
// extent including both border edges.
func (g Geometry) WidthWithBorder() uint16  { return g.Width + g.BorderWidth*2 }
func (g Geometry) HeightWithBorder() uint16 { return g.Height + g.BorderWidth*2 }

// Window is one record per known top-level child of the root. The
// registry exclusively owns these; pointers handed to plugins and the
// backend are borrowed references valid only until the record is
// removed from the registry.
type Window struct {
	ID xproto.Window

	Geometry          Geometry
	MapState          MapState
	OverrideRedirect  bool

	Pixmap xproto.Pixmap
	Damage damage.Damage
	Region xfixes.Region

	IsRectangular       bool
	Damaged             bool
	DamagedRatio        float64
	DamageNotifyCounter int16

	TransformStatus TransformStatus
	TransformMatrix [4][4]float64

	// Rendering is opaque backend-private state. It is owned by the
	// rendering backend and freed via the backend's FreeWindow/
	// FreeWindowPixmap hooks invoked by the registry at record removal
	// and at pixmap replacement. The registry never dereferences it.
	Rendering interface{}

	prev, next *Window
}

// AddToDamagedRatio accumulates a reported DamageNotify area's share of
// the window's total area into DamagedRatio, returning the updated value.
func (w *Window) AddToDamagedRatio(areaWidth, areaHeight uint16) float64 {
	windowArea := float64(w.Geometry.Width) * float64(w.Geometry.Height)
	if windowArea == 0 {
		w.DamagedRatio = FullyDamagedRatio
		return w.DamagedRatio
	}
	w.DamagedRatio += float64(areaWidth) * float64(areaHeight) / windowArea
	return w.DamagedRatio
}

// ResetDamage clears per-window damage tracking once w's content has
// actually been painted, so the next DamageNotify is handled as the
// first one since that paint (the whole window region is damaged again)
// instead of being dropped because DamagedRatio is still latched at
// FullyDamagedRatio. This is the per-window counterpart of the
// global damaged region being reset after every repaint.
func (w *Window) ResetDamage() {
	w.Damaged = false
	w.DamagedRatio = 0
	w.DamageNotifyCounter = 0
}
