// Package event implements the compositor's event dispatcher: X error
// labeling, and the handlers for every event type the core registers
// interest in (damage, randr, input, window lifecycle, property and
// keyboard-mapping changes).
package event

import (
	"log"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"unagi/internal/atoms"
	"unagi/internal/region"
	"unagi/internal/registry"
	"unagi/internal/xext"
)

// compositeRequestLabel and friends mirror the per-extension request
// label tables used to decode the minor opcode of a failed request for
// diagnostic logging. Order matches each extension's request
// numbering, starting at 0.
var compositeRequestLabel = []string{
	"CompositeQueryVersion",
	"CompositeRedirectWindow",
	"CompositeRedirectSubwindows",
	"CompositeUnredirectWindow",
	"CompositeUnredirectSubwindows",
	"CompositeCreateRegionFromBorderClip",
	"CompositeNameWindowPixmap",
	"CompositeGetOverlayWindow",
	"CompositeReleaseOverlayWindow",
}

var xfixesRequestLabel = []string{
	"XFixesQueryVersion",
	"XFixesChangeSaveSet",
	"XFixesSelectSelectionInput",
	"XFixesSelectCursorInput",
	"XFixesGetCursorImage",
	"XFixesCreateRegion",
	"XFixesCreateRegionFromBitmap",
	"XFixesCreateRegionFromWindow",
	"XFixesCreateRegionFromGC",
	"XFixesCreateRegionFromPicture",
	"XFixesDestroyRegion",
	"XFixesSetRegion",
	"XFixesCopyRegion",
	"XFixesUnionRegion",
	"XFixesIntersectRegion",
	"XFixesSubtractRegion",
	"XFixesInvertRegion",
	"XFixesTranslateRegion",
	"XFixesRegionExtents",
	"XFixesFetchRegion",
}

var damageRequestLabel = []string{
	"DamageQueryVersion",
	"DamageCreate",
	"DamageDestroy",
	"DamageSubtract",
	"DamageAdd",
}

func requestLabel(labels []string, minorCode uint16) string {
	if int(minorCode) < len(labels) {
		return labels[minorCode]
	}
	return "unknown"
}

// PluginHost is the narrow slice of the plugin host (internal/plugin)
// the dispatcher needs in order to fan each event out to interested
// plugins. Declared locally to avoid an import cycle symmetric with
// internal/registry's Backend interface.
type PluginHost interface {
	HandleDamage(ev damage.NotifyEvent, w *registry.Window)
	HandleRandRScreenChange(ev randr.ScreenChangeNotifyEvent)
	HandleKeyPress(ev xproto.KeyPressEvent, w *registry.Window)
	HandleKeyRelease(ev xproto.KeyReleaseEvent, w *registry.Window)
	HandleButtonRelease(ev xproto.ButtonReleaseEvent, w *registry.Window)
	HandleMotionNotify(ev xproto.MotionNotifyEvent)
	HandleCirculate(ev xproto.CirculateNotifyEvent, w *registry.Window)
	HandleConfigure(ev xproto.ConfigureNotifyEvent, w *registry.Window)
	HandleCreate(ev xproto.CreateNotifyEvent, w *registry.Window)
	HandleDestroy(ev xproto.DestroyNotifyEvent, w *registry.Window)
	HandleMap(ev xproto.MapNotifyEvent, w *registry.Window)
	HandleReparent(ev xproto.ReparentNotifyEvent, w *registry.Window)
	HandleUnmap(ev xproto.UnmapNotifyEvent, w *registry.Window)
	HandleMapping(ev xproto.MappingNotifyEvent)
	// HandleProperty fans a PropertyNotify out to every enabled,
	// activated plugin's property hook, then re-evaluates requirements
	// for any plugin not yet enabled.
	HandleProperty(ev xproto.PropertyNotifyEvent, w *registry.Window)
}

// Backend reports the current rendering backend's error/request
// classification so Composite/XFixes/Damage errors can still be decoded
// when the backend also defines its own request space (e.g. Render).
type Backend interface {
	IsOwnRequest(majorOpcode uint8) bool
	RequestLabel(minorCode uint16) string
	ErrorLabel(errorCode uint8) string
}

// Dispatcher wires together the pieces an event handler needs: the
// connection, the window registry, the global damage region, the atom
// table, the extension gate's version/opcode info, a rendering backend
// for error classification, and the plugin host for fan-out.
type Dispatcher struct {
	Conn     *xgb.Conn
	Root     xproto.Window
	Screen   *xproto.ScreenInfo
	Registry *registry.Registry
	Region   *region.Manager
	Atoms    *atoms.Registry
	Ext      *xext.Info
	Backend  Backend
	Plugins  PluginHost

	// ResetBackground is invoked when the root background property or
	// geometry changes and the cached background picture must be
	// rebuilt.
	ResetBackground func()
	// OnRootResize is invoked on a root ConfigureNotify with the new
	// dimensions, used by the engine to force a full repaint.
	OnRootResize func(width, height uint16)
}

// HandleError logs an X error using the per-extension request/error
// label tables, falling back to the backend's own classification when
// the failing request belongs to the rendering extension rather than
// one of Composite/XFixes/Damage. major/minor/code are the request's
// major opcode, minor opcode, and the error code, as carried in every
// X error regardless of which extension raised it.
func (d *Dispatcher) HandleError(major uint8, minor uint16, code uint8) {
	var label string
	ownRequest := d.Backend != nil && d.Backend.IsOwnRequest(major)
	switch {
	case ownRequest:
		label = d.Backend.RequestLabel(minor)
	case d.Ext.Composite != nil && major == d.Ext.Composite.MajorOpcode:
		label = requestLabel(compositeRequestLabel, minor)
	case d.Ext.XFixes != nil && major == d.Ext.XFixes.MajorOpcode:
		label = requestLabel(xfixesRequestLabel, minor)
	case d.Ext.Damage != nil && major == d.Ext.Damage.MajorOpcode:
		label = requestLabel(damageRequestLabel, minor)
	default:
		label = "core"
	}

	errLabel := "unknown"
	if ownRequest {
		if l := d.Backend.ErrorLabel(code); l != "" {
			errLabel = l
		}
	}

	log.Printf("X error: request=%s (major=%d, minor=%d), error=%s", label, major, minor, errLabel)
}

// Dispatch routes one decoded xgb event to its handler. Unrecognised
// event types are silently ignored, mirroring the original switch's
// fallthrough default.
func (d *Dispatcher) Dispatch(ev xgb.Event) {
	switch e := ev.(type) {
	case damage.NotifyEvent:
		d.handleDamageNotify(e)
	case randr.ScreenChangeNotifyEvent:
		d.handleRandRScreenChangeNotify(e)
	case xproto.KeyPressEvent:
		d.Plugins.HandleKeyPress(e, d.Registry.ListGet(e.Event))
	case xproto.KeyReleaseEvent:
		d.Plugins.HandleKeyRelease(e, d.Registry.ListGet(e.Event))
	case xproto.ButtonReleaseEvent:
		d.Plugins.HandleButtonRelease(e, d.Registry.ListGet(e.Event))
	case xproto.MotionNotifyEvent:
		d.Plugins.HandleMotionNotify(e)
	case xproto.CirculateNotifyEvent:
		d.handleCirculateNotify(e)
	case xproto.ConfigureNotifyEvent:
		d.handleConfigureNotify(e)
	case xproto.CreateNotifyEvent:
		d.handleCreateNotify(e)
	case xproto.DestroyNotifyEvent:
		d.handleDestroyNotify(e)
	case xproto.MapNotifyEvent:
		d.handleMapNotify(e)
	case xproto.ReparentNotifyEvent:
		d.handleReparentNotify(e)
	case xproto.UnmapNotifyEvent:
		d.handleUnmapNotify(e)
	case xproto.PropertyNotifyEvent:
		d.handlePropertyNotify(e)
	case xproto.MappingNotifyEvent:
		d.handleMappingNotify(e)
	}
}
