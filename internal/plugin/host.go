// Package plugin implements the plugin host: an ordered list of
// effect plugins fanned out to on every relevant event and paint-cycle
// boundary, with the opacity plugin pinned to the tail of the list so
// every other plugin's damage has already been computed by the time
// opacity is applied.
package plugin

import (
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"unagi/internal/registry"
)

// EventHooks is the subset of a plugin's vtable concerned with X
// events. Every method is optional: a plugin that does not care about
// an event type simply implements it as a no-op, matching the
// original's "only call if the function pointer is non-nil" pattern
// with Go's zero-cost empty-method convention.
type EventHooks interface {
	Damage(ev damage.NotifyEvent, w *registry.Window)
	RandRScreenChangeNotify(ev randr.ScreenChangeNotifyEvent)
	KeyPress(ev xproto.KeyPressEvent, w *registry.Window)
	KeyRelease(ev xproto.KeyReleaseEvent, w *registry.Window)
	ButtonRelease(ev xproto.ButtonReleaseEvent, w *registry.Window)
	MotionNotify(ev xproto.MotionNotifyEvent)
	Circulate(ev xproto.CirculateNotifyEvent, w *registry.Window)
	Configure(ev xproto.ConfigureNotifyEvent, w *registry.Window)
	Create(ev xproto.CreateNotifyEvent, w *registry.Window)
	Destroy(ev xproto.DestroyNotifyEvent, w *registry.Window)
	Map(ev xproto.MapNotifyEvent, w *registry.Window)
	Reparent(ev xproto.ReparentNotifyEvent, w *registry.Window)
	Unmap(ev xproto.UnmapNotifyEvent, w *registry.Window)
	Mapping(ev xproto.MappingNotifyEvent)
	Property(ev xproto.PropertyNotifyEvent, w *registry.Window)
}

// Plugin is the full vtable a plugin must implement.
type Plugin interface {
	EventHooks

	// Name identifies the plugin. The plugin named "opacity" is special:
	// NewHost always moves it to the tail of the list regardless of
	// registration order, so every other plugin's pre_paint hook has
	// already run (and thus already queued any damage it needs) before
	// opacity values are read for this frame.
	Name() string
	// CheckRequirements reports whether the plugin's preconditions
	// (required atoms, extensions, etc.) are currently met. Evaluated
	// once before the main loop starts and again after every
	// PropertyNotify until it returns true.
	CheckRequirements() bool
	// ManageExisting is called once at startup, before the main loop
	// begins, with every window the registry discovered then.
	ManageExisting(windows []*registry.Window)
	// GetOpacity returns the plugin's opinion of w's opacity and
	// whether it has one; a plugin with no opinion (e.g. anything
	// other than the dedicated opacity plugin) returns ok=false.
	GetOpacity(w *registry.Window) (opacity uint16, ok bool)
	// PrePaint runs before the repaint decision is made, so a plugin
	// can add to or withhold from the damaged region.
	PrePaint()
	// PostPaint runs immediately after a repaint completed.
	PostPaint()
}

type entry struct {
	plugin    Plugin
	enabled   bool
	activated bool
}

// Host owns the ordered plugin list and fans events and paint-cycle
// hooks out to every enabled and activated plugin.
type Host struct {
	entries []*entry
}

// NewHost builds a Host from plugins in registration order, then moves
// any plugin named "opacity" to the tail.
func NewHost(plugins []Plugin) *Host {
	h := &Host{}
	var opacity *entry
	for _, p := range plugins {
		e := &entry{plugin: p, activated: true}
		if p.Name() == "opacity" {
			opacity = e
			continue
		}
		h.entries = append(h.entries, e)
	}
	if opacity != nil {
		h.entries = append(h.entries, opacity)
	}
	return h
}

// CheckRequirements evaluates every not-yet-enabled plugin's
// requirements, called once at startup and again after each
// PropertyNotify.
func (h *Host) CheckRequirements() {
	for _, e := range h.entries {
		if !e.enabled {
			e.enabled = e.plugin.CheckRequirements()
		}
	}
}

// ManageExisting fans the startup window snapshot out to every plugin,
// regardless of its current enabled state (mirrors the original's
// unconditional window_manage_existing hook).
func (h *Host) ManageExisting(windows []*registry.Window) {
	for _, e := range h.entries {
		e.plugin.ManageExisting(windows)
	}
}

// Opacity aggregates every enabled, activated plugin's opinion on w's
// opacity, returning the first one that has an opinion. Plugin order
// (with opacity pinned to the tail) means any earlier plugin wanting to
// veto or override opacity gets first refusal.
func (h *Host) Opacity(w *registry.Window) (opacity uint16, ok bool) {
	for _, e := range h.entries {
		if !e.enabled || !e.activated {
			continue
		}
		if v, has := e.plugin.GetOpacity(w); has {
			return v, true
		}
	}
	return 0, false
}

func (h *Host) active(f func(e *entry)) {
	for _, e := range h.entries {
		if e.enabled && e.activated {
			f(e)
		}
	}
}

func (h *Host) PrePaint()  { h.active(func(e *entry) { e.plugin.PrePaint() }) }
func (h *Host) PostPaint() { h.active(func(e *entry) { e.plugin.PostPaint() }) }

func (h *Host) HandleDamage(ev damage.NotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Damage(ev, w) })
}
func (h *Host) HandleRandRScreenChange(ev randr.ScreenChangeNotifyEvent) {
	h.active(func(e *entry) { e.plugin.RandRScreenChangeNotify(ev) })
}
func (h *Host) HandleKeyPress(ev xproto.KeyPressEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.KeyPress(ev, w) })
}
func (h *Host) HandleKeyRelease(ev xproto.KeyReleaseEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.KeyRelease(ev, w) })
}
func (h *Host) HandleButtonRelease(ev xproto.ButtonReleaseEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.ButtonRelease(ev, w) })
}
func (h *Host) HandleMotionNotify(ev xproto.MotionNotifyEvent) {
	h.active(func(e *entry) { e.plugin.MotionNotify(ev) })
}
func (h *Host) HandleCirculate(ev xproto.CirculateNotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Circulate(ev, w) })
}
func (h *Host) HandleConfigure(ev xproto.ConfigureNotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Configure(ev, w) })
}
func (h *Host) HandleCreate(ev xproto.CreateNotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Create(ev, w) })
}
func (h *Host) HandleDestroy(ev xproto.DestroyNotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Destroy(ev, w) })
}
func (h *Host) HandleMap(ev xproto.MapNotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Map(ev, w) })
}
func (h *Host) HandleReparent(ev xproto.ReparentNotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Reparent(ev, w) })
}
func (h *Host) HandleUnmap(ev xproto.UnmapNotifyEvent, w *registry.Window) {
	h.active(func(e *entry) { e.plugin.Unmap(ev, w) })
}
func (h *Host) HandleMapping(ev xproto.MappingNotifyEvent) {
	h.active(func(e *entry) { e.plugin.Mapping(ev) })
}

// HandleProperty also re-evaluates requirements for plugins not yet
// enabled, mirroring the original's inline check after the property
// hook runs.
func (h *Host) HandleProperty(ev xproto.PropertyNotifyEvent, w *registry.Window) {
	for _, e := range h.entries {
		if e.enabled && e.activated {
			e.plugin.Property(ev, w)
		}
		if !e.enabled {
			e.enabled = e.plugin.CheckRequirements()
		}
	}
}
