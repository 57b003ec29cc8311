// Package dbuscontrol implements the compositor's D-Bus control
// surface: org.minidweeb.unagi exposes an exit() method, and each
// plugin can register its own org.minidweeb.unagi.plugin.<name>
// interface on the same bus name and object path.
package dbuscontrol

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// BusName is the default D-Bus bus name and core interface name,
// overridable via config.Core.DbusService.
const BusName = "org.minidweeb.unagi"

// PluginInterfacePrefix is prepended to a plugin's name to form its
// D-Bus interface name, e.g. "org.minidweeb.unagi.plugin.opacity".
const PluginInterfacePrefix = BusName + ".plugin."

// ObjectPath is the single object path every interface, core and
// plugin alike, is exported on.
const ObjectPath = dbus.ObjectPath("/org/minidweeb/unagi")

// Bus owns the session bus connection and the core control object.
// Only one Unagi instance may own a given bus name at a time: a second
// RequestName for the same name fails, mirroring the original's "one
// instance per D-Bus session" comment.
type Bus struct {
	conn    *dbus.Conn
	busName string

	exitRequested bool
	exitCh        chan struct{}
}

// control is exported as the BusName/ObjectPath/BusName method set.
// Its only method is Exit, matching the original's "only 'exit' is
// implemented for the core" comment.
type control struct {
	bus *Bus
}

// Exit marks the bus for a deferred shutdown: the reply is still sent
// normally, and the caller (the engine's main loop) checks
// ExitRequested after finishing the current event batch rather than
// exiting from inside the D-Bus dispatch callback.
func (c *control) Exit() *dbus.Error {
	c.bus.exitRequested = true
	select {
	case c.bus.exitCh <- struct{}{}:
	default:
	}
	return nil
}

// ExitSignal returns a channel that receives a value once exit() is
// called, for a main loop to select on alongside X events and timers.
func (b *Bus) ExitSignal() <-chan struct{} { return b.exitCh }

// Connect connects to the session bus and requests busName
// (DO-NOT-QUEUE semantics: if another instance already owns it,
// Connect fails rather than waiting).
func Connect(busName string) (*Bus, error) {
	if busName == "" {
		busName = BusName
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbuscontrol: connecting to session bus: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbuscontrol: requesting name %s: %w", busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner && reply != dbus.RequestNameReplyAlreadyOwner {
		conn.Close()
		return nil, fmt.Errorf("dbuscontrol: %s: failed to become primary owner", busName)
	}

	b := &Bus{conn: conn, busName: busName, exitCh: make(chan struct{}, 1)}
	if err := conn.Export(&control{bus: b}, ObjectPath, busName); err != nil {
		b.Close()
		return nil, fmt.Errorf("dbuscontrol: exporting core interface: %w", err)
	}
	return b, nil
}

// PluginExporter is implemented by a plugin that wants to expose
// methods over D-Bus. Export is called once per plugin at registration
// time with the interface name already computed
// (PluginInterfacePrefix + plugin name); the plugin's Go value is
// exported as-is via conn.Export, so its exported methods become the
// D-Bus interface's methods.
type PluginExporter interface {
	DbusMethods() interface{}
}

// RegisterPlugin exports a plugin's D-Bus methods, if any, under its
// own interface name on the shared object path.
func (b *Bus) RegisterPlugin(name string, exporter PluginExporter) error {
	methods := exporter.DbusMethods()
	if methods == nil {
		return nil
	}
	iface := PluginInterfacePrefix + name
	if err := b.conn.Export(methods, ObjectPath, iface); err != nil {
		return fmt.Errorf("dbuscontrol: exporting plugin %s interface: %w", name, err)
	}
	return nil
}

// ExitRequested reports whether exit() has been called since the last
// ClearExitRequested, letting the engine defer shutdown until the
// current event batch is fully drained.
func (b *Bus) ExitRequested() bool { return b.exitRequested }

// ClearExitRequested resets the flag; unused in practice since a
// requested exit always terminates the process, but kept symmetric
// with ExitRequested for testability.
func (b *Bus) ClearExitRequested() { b.exitRequested = false }

// Close releases the bus name and closes the connection. Deliberately
// only ever releases the name (never adds a match rule for it): the
// original C implementation's release path mistakenly re-added the
// "type='method_call'" match rule instead of removing it, which would
// have left a stale match registered after every exit.
func (b *Bus) Close() error {
	if b.conn == nil {
		return nil
	}
	b.conn.ReleaseName(b.busName)
	return b.conn.Close()
}
