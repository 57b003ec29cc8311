// Package rendering defines the rendering backend contract: the vtable
// a concrete backend (internal/rendering/refbackend, or a plugin-style
// alternative) must implement so the core never dereferences
// backend-private state directly.
package rendering

import (
	"unagi/internal/registry"
)

// Backend is the full rendering contract the engine drives the paint
// and event-error-labeling cycle through. Every method operates on
// registry.Window records only through their exported fields and the
// opaque Rendering field the backend itself owns.
type Backend interface {
	// Init performs one-time backend setup: querying picture formats,
	// creating the root target picture, and any other per-display state
	// that survives for the backend's lifetime.
	Init() error
	// InitFinalise is called once every extension and the window
	// registry are ready, for setup that depends on them (e.g. sizing
	// the root picture to the current screen dimensions).
	InitFinalise() error

	// ResetBackground invalidates the cached root background picture,
	// called when the root's background pixmap property or the root
	// geometry changes. The picture is rebuilt lazily by PaintBackground.
	ResetBackground()
	// PaintBackground composites the root background onto the backend's
	// target beneath every window, covering any area damage exposes that
	// no window occupies.
	PaintBackground()

	// PaintWindow composites a single window onto the backend's target,
	// called by PaintAll for every visible window bottom-to-top.
	PaintWindow(w *registry.Window) error
	// PaintAll repaints the whole screen. damaged indicates whether
	// this is a damage-driven repaint (true) or a forced full repaint
	// (false is never passed; force_repaint implies damaged semantics
	// too, since the entire region is treated as dirty either way).
	PaintAll(damaged bool)

	// FreeWindow releases any backend-private state associated with w
	// (e.g. a cached Picture), called by the registry right before a
	// window record is removed.
	FreeWindow(w *registry.Window)
	// FreeWindowPixmap releases backend-private state tied specifically
	// to w's current NameWindowPixmap, called before that pixmap is
	// replaced or freed.
	FreeWindowPixmap(w *registry.Window)

	// IsOwnRequest, RequestLabel and ErrorLabel let the event dispatcher
	// decode X errors raised by requests this backend issues under its
	// own extension (e.g. Render), the same way it decodes
	// Composite/XFixes/Damage errors.
	IsOwnRequest(majorOpcode uint8) bool
	RequestLabel(minorCode uint16) string
	ErrorLabel(errorCode uint8) string
}
