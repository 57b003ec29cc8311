// Package opacityfade is an illustrative effect plugin reading the
// _NET_WM_WINDOW_OPACITY property set by window managers/clients to
// drive per-window translucency, the one plugin the plugin host always
// pins to the tail of its list.
package opacityfade

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/godbus/dbus/v5"

	"unagi/internal/atoms"
	"unagi/internal/registry"
)

// FullyOpaque is the value substituted for a window with no
// _NET_WM_WINDOW_OPACITY property set.
const FullyOpaque uint16 = 0xffff

// Plugin reads _NET_WM_WINDOW_OPACITY whenever it changes and caches
// the last-known opacity per window id, since the property is set
// rarely (on click-through fades, usually at most once per transition)
// relative to how often GetOpacity is polled during painting.
type Plugin struct {
	conn  *xgb.Conn
	atoms *atoms.Registry

	cache map[xproto.Window]uint16
}

// New creates a Plugin bound to conn/atoms.
func New(conn *xgb.Conn, atomRegistry *atoms.Registry) *Plugin {
	return &Plugin{conn: conn, atoms: atomRegistry, cache: map[xproto.Window]uint16{}}
}

func (p *Plugin) Name() string { return "opacity" }

// CheckRequirements is always true: _NET_WM_WINDOW_OPACITY needs no
// extension support, just atom interning already done at startup.
func (p *Plugin) CheckRequirements() bool { return true }

func (p *Plugin) ManageExisting(windows []*registry.Window) {
	for _, w := range windows {
		p.refresh(w.ID)
	}
}

// GetOpacity always has an opinion: FullyOpaque when no property is
// set, matching the convention that an absent property means opaque.
func (p *Plugin) GetOpacity(w *registry.Window) (uint16, bool) {
	if v, ok := p.cache[w.ID]; ok {
		return v, true
	}
	return FullyOpaque, true
}

func (p *Plugin) refresh(id xproto.Window) {
	reply, err := xproto.GetProperty(p.conn, false, id, p.atoms.Atom("_NET_WM_WINDOW_OPACITY"),
		xproto.AtomCardinal, 0, 1).Reply()
	if err != nil || reply.ValueLen == 0 || len(reply.Value) < 4 {
		delete(p.cache, id)
		return
	}
	// _NET_WM_WINDOW_OPACITY is a 32-bit fraction of 0xffffffff; the
	// high 16 bits give enough precision for Render's 16-bit alpha.
	raw := uint32(reply.Value[0]) | uint32(reply.Value[1])<<8 |
		uint32(reply.Value[2])<<16 | uint32(reply.Value[3])<<24
	p.cache[id] = uint16(raw >> 16)
}

func (p *Plugin) PrePaint()  {}
func (p *Plugin) PostPaint() {}

func (p *Plugin) Damage(damage.NotifyEvent, *registry.Window)                  {}
func (p *Plugin) RandRScreenChangeNotify(randr.ScreenChangeNotifyEvent)        {}
func (p *Plugin) KeyPress(xproto.KeyPressEvent, *registry.Window)              {}
func (p *Plugin) KeyRelease(xproto.KeyReleaseEvent, *registry.Window)          {}
func (p *Plugin) ButtonRelease(xproto.ButtonReleaseEvent, *registry.Window)    {}
func (p *Plugin) MotionNotify(xproto.MotionNotifyEvent)                        {}
func (p *Plugin) Circulate(xproto.CirculateNotifyEvent, *registry.Window)      {}
func (p *Plugin) Configure(xproto.ConfigureNotifyEvent, *registry.Window)      {}
func (p *Plugin) Create(xproto.CreateNotifyEvent, *registry.Window)            {}
func (p *Plugin) Destroy(xproto.DestroyNotifyEvent, *registry.Window)          {}
func (p *Plugin) Map(xproto.MapNotifyEvent, *registry.Window)                  {}
func (p *Plugin) Reparent(xproto.ReparentNotifyEvent, *registry.Window)        {}
func (p *Plugin) Unmap(xproto.UnmapNotifyEvent, *registry.Window)              {}
func (p *Plugin) Mapping(xproto.MappingNotifyEvent)                            {}

// Property refreshes the cache when the changed atom is
// _NET_WM_WINDOW_OPACITY on a window we know about.
func (p *Plugin) Property(ev xproto.PropertyNotifyEvent, w *registry.Window) {
	if w == nil || ev.Atom != p.atoms.Atom("_NET_WM_WINDOW_OPACITY") {
		return
	}
	p.refresh(ev.Window)
}

// dbusMethods is the value exported on the plugin's
// org.minidweeb.unagi.plugin.opacity interface.
type dbusMethods struct{ p *Plugin }

// SetOpacity overrides a window's cached opacity directly, for D-Bus
// clients that want to drive translucency without going through
// _NET_WM_WINDOW_OPACITY (e.g. a key-binding plugin reacting to a
// hotkey). The next property refresh for id overwrites this value.
func (d *dbusMethods) SetOpacity(id uint32, opacity uint16) *dbus.Error {
	d.p.cache[xproto.Window(id)] = opacity
	return nil
}

// DbusMethods implements dbuscontrol.PluginExporter.
func (p *Plugin) DbusMethods() interface{} { return &dbusMethods{p: p} }
