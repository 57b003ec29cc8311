package event

import (
	"log"

	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"

	"unagi/internal/registry"
)

func (d *Dispatcher) handleDamageNotify(ev damage.NotifyEvent) {
	w := d.Registry.ListGet(xproto.Window(ev.Drawable))
	if w == nil || !d.Registry.IsVisible(w) {
		return
	}

	d.Plugins.HandleDamage(ev, w)

	var damagedRegion xfixes.Region
	isTemporary := false

	switch {
	case !w.Damaged:
		// First damage since the window was last painted (or ever):
		// repaint the whole window.
		damagedRegion = w.Region
		w.Damaged = true
		w.DamagedRatio = registry.FullyDamagedRatio + 0.1
	case w.DamagedRatio >= registry.FullyDamagedRatio:
		return
	default:
		w.DamageNotifyCounter++
		if w.DamageNotifyCounter > registry.DamageNotifyMax ||
			w.AddToDamagedRatio(ev.Area.Width, ev.Area.Height) >= registry.FullyDamagedRatio {
			damagedRegion = w.Region
			w.DamagedRatio = registry.FullyDamagedRatio + 0.1
		} else {
			rid, err := newAreaRegion(d, ev)
			if err != nil {
				log.Printf("event: creating damaged-area region: %v", err)
				return
			}
			damagedRegion = rid
			isTemporary = true
		}
	}

	if err := d.Region.AddDamagedRegion(damagedRegion, isTemporary); err != nil {
		log.Printf("event: unioning damaged region: %v", err)
	}
}

// newAreaRegion creates a one-off XFixes region covering a DamageNotify
// event's reported rectangle, translated from window-relative to root
// coordinates.
func newAreaRegion(d *Dispatcher, ev damage.NotifyEvent) (xfixes.Region, error) {
	id, err := xfixes.NewRegionId(d.Conn)
	if err != nil {
		return 0, err
	}
	rect := xproto.Rectangle{
		X:      ev.Area.X + ev.Geometry.X,
		Y:      ev.Area.Y + ev.Geometry.Y,
		Width:  ev.Area.Width,
		Height: ev.Area.Height,
	}
	if err := xfixes.CreateRegionChecked(d.Conn, id, []xproto.Rectangle{rect}).Check(); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *Dispatcher) handleRandRScreenChangeNotify(ev randr.ScreenChangeNotifyEvent) {
	if err := d.Ext.RefreshScreenChange(d.Conn, d.Root); err != nil {
		log.Printf("event: refreshing RandR screen info: %v", err)
	}
	d.Plugins.HandleRandRScreenChange(ev)
}

func (d *Dispatcher) handleCirculateNotify(ev xproto.CirculateNotifyEvent) {
	w := d.Registry.ListGet(ev.Window)
	if w == nil {
		return
	}
	if ev.Place == xproto.PlaceOnBottom {
		d.Registry.Restack(w, xproto.WindowNone)
	} else {
		windows := d.Registry.Windows()
		if len(windows) > 0 {
			d.Registry.Restack(w, windows[len(windows)-1].ID)
		}
	}
	d.Plugins.HandleCirculate(ev, w)
}

func (d *Dispatcher) handleConfigureNotify(ev xproto.ConfigureNotifyEvent) {
	if ev.Window == d.Root {
		d.Screen.WidthInPixels = ev.Width
		d.Screen.HeightInPixels = ev.Height
		if d.ResetBackground != nil {
			d.ResetBackground()
		}
		if d.OnRootResize != nil {
			d.OnRootResize(ev.Width, ev.Height)
		}
		return
	}

	w := d.Registry.ListGet(ev.Window)
	if w == nil {
		return
	}

	wasVisible := d.Registry.IsVisible(w)
	if wasVisible {
		xr, err := d.Registry.GetRegion(w, true, false)
		if err == nil {
			d.Region.AddDamagedRegion(xr, true)
		}
		w.DamagedRatio = registry.FullyDamagedRatio + 0.1
	}

	w.Geometry.X, w.Geometry.Y = ev.X, ev.Y

	updatePixmap := w.MapState == registry.Viewable &&
		(w.Geometry.Width != ev.Width || w.Geometry.Height != ev.Height || w.Geometry.BorderWidth != ev.BorderWidth)

	w.Geometry.Width, w.Geometry.Height, w.Geometry.BorderWidth = ev.Width, ev.Height, ev.BorderWidth
	w.OverrideRedirect = ev.OverrideRedirect

	if d.Registry.IsVisible(w) {
		d.Registry.GetRegion(w, true, true) // re-create: geometry just changed
		if updatePixmap || !wasVisible {
			d.Registry.FreePixmap(w, d.registryBackend())
			d.Registry.GetPixmap(w)
		}
		if xr, err := d.Registry.GetRegion(w, true, false); err == nil {
			d.Region.AddDamagedRegion(xr, false)
		}
		w.DamagedRatio = registry.FullyDamagedRatio + 0.1
	}

	d.Registry.Restack(w, ev.AboveSibling)
	d.Plugins.HandleConfigure(ev, w)
}

func (d *Dispatcher) handleCreateNotify(ev xproto.CreateNotifyEvent) {
	w, err := d.Registry.Add(ev.Window, false)
	if err != nil {
		log.Printf("event: registering created window %#x: %v", ev.Window, err)
		return
	}
	if w == nil {
		return
	}
	w.Geometry = registry.Geometry{
		X: ev.X, Y: ev.Y, Width: ev.Width, Height: ev.Height, BorderWidth: ev.BorderWidth,
	}
	d.Plugins.HandleCreate(ev, w)
}

func (d *Dispatcher) handleDestroyNotify(ev xproto.DestroyNotifyEvent) {
	w := d.Registry.ListGet(ev.Window)
	if w == nil {
		return
	}
	w.Damage = 0
	d.Plugins.HandleDestroy(ev, w)
	d.Registry.Remove(w, true, d.registryBackend())
}

// registryBackend returns the rendering backend's FreeWindow/
// FreeWindowPixmap hooks for the registry to invoke, or nil if the
// configured backend does not provide them.
func (d *Dispatcher) registryBackend() registry.Backend {
	rb, _ := d.Backend.(registry.Backend)
	return rb
}

func (d *Dispatcher) handleMapNotify(ev xproto.MapNotifyEvent) {
	w := d.Registry.ListGet(ev.Window)
	if w == nil {
		return
	}
	w.MapState = registry.Viewable

	if d.Registry.IsVisible(w) {
		d.Registry.GetRegion(w, true, true)
		d.Registry.FreePixmap(w, d.registryBackend())
		d.Registry.GetPixmap(w)
	}
	w.Damaged = false
	d.Plugins.HandleMap(ev, w)
}

func (d *Dispatcher) handleReparentNotify(ev xproto.ReparentNotifyEvent) {
	w := d.Registry.ListGet(ev.Window)
	if ev.Parent == d.Root {
		w, _ = d.Registry.Add(ev.Window, true)
	} else {
		d.Registry.Remove(w, true, d.registryBackend())
	}
	d.Plugins.HandleReparent(ev, w)
}

func (d *Dispatcher) handleUnmapNotify(ev xproto.UnmapNotifyEvent) {
	w := d.Registry.ListGet(ev.Window)
	if w == nil {
		log.Printf("event: UnmapNotify for unknown window %#x", ev.Window)
		return
	}
	if d.Registry.IsVisible(w) {
		if xr, err := d.Registry.GetRegion(w, true, false); err == nil {
			d.Region.AddDamagedRegion(xr, true)
		}
		w.DamagedRatio = registry.FullyDamagedRatio + 0.1
	}
	w.MapState = registry.Unmapped
	w.Damaged = false
	d.Plugins.HandleUnmap(ev, w)
}

func (d *Dispatcher) handlePropertyNotify(ev xproto.PropertyNotifyEvent) {
	if ev.Window == d.Root && d.Atoms.IsBackgroundAtom(ev.Atom) {
		if d.ResetBackground != nil {
			d.ResetBackground()
		}
	}
	if ev.Atom == d.Atoms.Atom("_NET_SUPPORTED") {
		if err := d.Atoms.UpdateSupported(d.Root); err != nil {
			log.Printf("event: updating _NET_SUPPORTED: %v", err)
		}
	}
	d.Plugins.HandleProperty(ev, d.Registry.ListGet(ev.Window))
}

func (d *Dispatcher) handleMappingNotify(ev xproto.MappingNotifyEvent) {
	if ev.Request != xproto.MappingModifier && ev.Request != xproto.MappingKeyboard {
		return
	}
	d.Plugins.HandleMapping(ev)
}
