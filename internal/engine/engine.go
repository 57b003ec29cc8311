// Package engine wires every package in this module into the running
// compositor: it owns the X connection, performs startup registration,
// and runs the main event/paint loop.
package engine

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"unagi/internal/atoms"
	"unagi/internal/cm"
	"unagi/internal/config"
	"unagi/internal/dbuscontrol"
	"unagi/internal/event"
	"unagi/internal/keymod"
	"unagi/internal/paint"
	"unagi/internal/plugin"
	"unagi/internal/plugin/opacityfade"
	"unagi/internal/region"
	"unagi/internal/registry"
	"unagi/internal/rendering"
	"unagi/internal/rendering/refbackend"
	"unagi/internal/vsync"
	"unagi/internal/xext"
)

// Options configures a single compositor instance.
type Options struct {
	// Display overrides the DISPLAY environment variable; empty uses it
	// as-is.
	Display string
	// Screen selects which screen to manage; -1 selects screen 0.
	Screen int
	// Dbus enables the D-Bus control bus (org.minidweeb.unagi).
	Dbus bool
	// Vsync enables DRM vblank pacing; if opening the DRM device fails,
	// the engine falls back to unthrottled painting rather than failing
	// startup.
	Vsync bool
	// Plugins are the effect plugins to load in addition to the opacity
	// plugin, which is always loaded and always pinned to the tail of
	// the plugin list.
	Plugins []plugin.Plugin
}

// Engine owns every resource acquired during startup and the main
// loop driving the compositor.
type Engine struct {
	xu   *xgbutil.XUtil
	conn *xgb.Conn
	root xproto.Window

	atoms    *atoms.Registry
	ext      *xext.Info
	registry *registry.Registry
	region   *region.Manager
	cmReg    *cm.Registration
	keys     *keymod.Resolver
	backend  rendering.Backend
	plugins  *plugin.Host
	dispatch *event.Dispatcher
	sched    *paint.Scheduler
	vsync    vsync.Provider
	dbus     *dbuscontrol.Bus

	events chan xgb.Event
	errs   chan xgb.Error
	stop   chan struct{}
}

// New connects to the display, claims the compositing-manager
// selection, and wires every package into a runnable Engine. On any
// failure, resources already acquired are released before returning.
func New(opts Options) (*Engine, error) {
	var xu *xgbutil.XUtil
	var err error
	if opts.Display != "" {
		xu, err = xgbutil.NewConnDisplay(opts.Display)
	} else {
		xu, err = xgbutil.NewConn()
	}
	if err != nil {
		return nil, fmt.Errorf("engine: connecting to X: %w", err)
	}

	conn := xu.Conn()
	root := xu.RootWin()
	screen := xu.Screen()

	e := &Engine{
		xu: xu, conn: conn, root: root,
		events: make(chan xgb.Event, 64),
		errs:   make(chan xgb.Error, 8),
		stop:   make(chan struct{}),
	}

	if e.atoms, err = atoms.New(xu); err != nil {
		xu.Conn().Close()
		return nil, err
	}

	if e.ext, err = xext.Query(conn, root); err != nil {
		xu.Conn().Close()
		return nil, err
	}

	screenNum := opts.Screen
	if screenNum < 0 {
		// Modern servers expose multiple monitors as one logical screen
		// via RandR rather than the legacy multi-screen model, so 0 is
		// the overwhelmingly common case when the caller doesn't care.
		screenNum = 0
	}
	selectionAtom, err := e.atoms.InternCMSelection(screenNum)
	if err != nil {
		xu.Conn().Close()
		return nil, err
	}
	e.cmReg, err = cm.Register(conn, root, screenNum, selectionAtom, e.atoms.Atom("MANAGER"))
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("engine: registering as compositing manager: %w", err)
	}

	e.registry = registry.New(conn, root, screen)
	if e.region, err = region.New(conn); err != nil {
		e.cmReg.Close()
		xu.Conn().Close()
		return nil, err
	}

	renderExtReply, err := xproto.QueryExtension(conn, uint16(len("RENDER")), "RENDER").Reply()
	if err != nil || !renderExtReply.Present {
		e.Close()
		return nil, fmt.Errorf("engine: RENDER extension not present")
	}
	e.backend = refbackend.New(conn, root, screen, e.registry, e.region, e.atoms,
		renderExtReply.MajorOpcode, renderExtReply.FirstError)
	if err := e.backend.Init(); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.backend.InitFinalise(); err != nil {
		e.Close()
		return nil, err
	}

	if e.keys, err = keymod.Resolve(conn, xproto.Setup(conn)); err != nil {
		log.Printf("engine: resolving keyboard modifiers: %v", err)
		e.keys = &keymod.Resolver{}
	}

	core, cerr := config.LoadCore()
	if cerr != nil {
		log.Printf("engine: loading core.conf: %v, using defaults", cerr)
		core = &config.Core{DbusService: dbuscontrol.BusName, VsyncDrm: true, Rendering: "reference"}
	}
	if core.Rendering != "" && core.Rendering != "reference" {
		log.Printf("engine: rendering backend %q not implemented, falling back to \"reference\"", core.Rendering)
	}

	allPlugins := append([]plugin.Plugin{opacityfade.New(conn, e.atoms)}, opts.Plugins...)
	e.plugins = plugin.NewHost(allPlugins)
	e.plugins.CheckRequirements()

	e.dispatch = &event.Dispatcher{
		Conn: conn, Root: root, Screen: screen,
		Registry: e.registry, Region: e.region, Atoms: e.atoms, Ext: e.ext,
		Backend: e.backend, Plugins: e.plugins,
		ResetBackground: e.backend.ResetBackground,
		OnRootResize: func(width, height uint16) {
			e.region.SetForceRepaint(true)
		},
	}

	e.sched = paint.New(e.region, e.backend, e.plugins, e.ext.RefreshRateInterval, xext.MinimumRepaintInterval)

	if opts.Vsync && core.VsyncDrm {
		if d, err := vsync.OpenDRM(); err != nil {
			log.Printf("engine: VSync disabled, failed to open DRM device: %v", err)
			e.vsync = vsync.Noop()
		} else {
			e.vsync = d
		}
	} else {
		e.vsync = vsync.Noop()
	}

	if opts.Dbus {
		name := dbuscontrol.BusName
		if core.DbusService != "" {
			name = core.DbusService
		}
		bus, err := dbuscontrol.Connect(name)
		if err != nil {
			log.Printf("engine: D-Bus control bus disabled: %v", err)
		} else {
			e.dbus = bus
			for _, p := range allPlugins {
				exporter, ok := p.(dbuscontrol.PluginExporter)
				if !ok {
					continue
				}
				if err := e.dbus.RegisterPlugin(p.Name(), exporter); err != nil {
					log.Printf("engine: registering D-Bus interface for plugin %s: %v", p.Name(), err)
				}
			}
		}
	}

	if err := e.manageExisting(); err != nil {
		e.Close()
		return nil, err
	}

	return e, nil
}

// manageExisting discovers already-mapped top-level windows at
// startup and registers them, mirroring the original's initial
// window_manage_existing() sweep over the root's children.
func (e *Engine) manageExisting() error {
	tree, err := xproto.QueryTree(e.conn, e.root).Reply()
	if err != nil {
		return fmt.Errorf("engine: QueryTree(root): %w", err)
	}
	if err := e.registry.ManageExisting(tree.Children); err != nil {
		return err
	}
	e.plugins.ManageExisting(e.registry.Windows())
	return nil
}

// Run starts the event-reading goroutine and drives the main select
// loop until a termination signal, a D-Bus exit() call, or a call to
// Stop.
func (e *Engine) Run() error {
	go e.readEvents()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	timer := time.NewTimer(e.sched.RepaintInterval())
	defer timer.Stop()

	var exitSignal <-chan struct{}
	if e.dbus != nil {
		exitSignal = e.dbus.ExitSignal()
	}

	for {
		// Paint has strictly higher priority than ordinary event
		// processing: check the paint timer first, non-blocking, so a
		// burst of queued X events can never starve a due paint tick
		// the way a flat select's pseudo-random case choice could.
		select {
		case <-e.stop:
			return nil
		case sig := <-sigCh:
			log.Printf("engine: received signal %v, shutting down", sig)
			return nil
		case <-exitSignal:
			log.Printf("engine: D-Bus exit() received, shutting down")
			return nil
		case <-timer.C:
			e.paintTick(timer)
			continue
		default:
		}

		select {
		case <-e.stop:
			return nil

		case sig := <-sigCh:
			log.Printf("engine: received signal %v, shutting down", sig)
			return nil

		case <-exitSignal:
			log.Printf("engine: D-Bus exit() received, shutting down")
			return nil

		case xerr := <-e.errs:
			e.handleXError(xerr)

		case ev := <-e.events:
			e.dispatch.Dispatch(ev)

		case <-timer.C:
			e.paintTick(timer)
		}
	}
}

// drainSlack is the margin drainPendingEvents keeps before the current
// repaint interval: it aborts, and lets the pending paint proceed, once
// elapsed time plus drainSlack exceeds that interval.
const drainSlack = time.Millisecond

// paintTick drains any events already queued (bounded by drainSlack),
// waits for vsync, and runs one scheduler tick, then rearms timer for
// the next interval.
func (e *Engine) paintTick(timer *time.Timer) {
	e.drainPendingEvents(drainSlack)
	if err := e.vsync.Wait(); err != nil {
		log.Printf("engine: vsync wait: %v", err)
	}
	if _, err := e.sched.Tick(); err != nil {
		log.Printf("engine: paint tick: %v", err)
	}
	timer.Reset(e.sched.RepaintInterval())
}

// drainPendingEvents processes X events/errors already sitting in the
// channels before a paint tick proceeds, so a burst of events cannot
// starve painting. It aborts once elapsed wall-clock since it started
// plus slack would exceed the current repaint interval.
func (e *Engine) drainPendingEvents(slack time.Duration) {
	start := time.Now()
	interval := e.sched.RepaintInterval()
	for {
		select {
		case xerr := <-e.errs:
			e.handleXError(xerr)
		case ev := <-e.events:
			e.dispatch.Dispatch(ev)
		default:
			return
		}
		if time.Since(start)+slack > interval {
			return
		}
	}
}

// Stop requests the main loop to exit on its next iteration.
func (e *Engine) Stop() {
	select {
	case e.stop <- struct{}{}:
	default:
	}
}

func (e *Engine) readEvents() {
	for {
		ev, err := e.conn.WaitForEvent()
		if ev == nil && err == nil {
			return // connection closed
		}
		if err != nil {
			if xerr, ok := err.(xgb.Error); ok {
				select {
				case e.errs <- xerr:
				default:
				}
			}
			continue
		}
		select {
		case e.events <- ev:
		case <-e.stop:
			return
		}
	}
}

// Close releases every resource acquired by New, in reverse order of
// acquisition.
func (e *Engine) Close() error {
	if e.dbus != nil {
		e.dbus.Close()
	}
	if e.vsync != nil {
		e.vsync.Close()
	}
	if e.region != nil {
		e.region.Close()
	}
	if e.cmReg != nil {
		e.cmReg.Close()
	}
	if e.xu != nil {
		e.xu.Conn().Close()
	}
	return nil
}
