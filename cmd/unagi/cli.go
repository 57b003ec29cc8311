package main

import "flag"

// CLIOpts mirrors the flag surface of a small, script-friendly daemon:
// no subcommands, just a handful of boolean toggles and a couple of
// string/int overrides.
type CLIOpts struct {
	verbose      bool
	display      string
	screen       int
	noDbus       bool
	noVsync      bool
	printVersion bool
}

func parseCLIOpts() CLIOpts {
	var opt CLIOpts
	flag.BoolVar(&opt.verbose, "v", false, "Verbose output (print logs to stderr)")
	flag.StringVar(&opt.display, "display", "", "X display to connect to (defaults to $DISPLAY)")
	flag.IntVar(&opt.screen, "screen", -1, "Screen number to manage (defaults to 0)")
	flag.BoolVar(&opt.noDbus, "no-dbus", false, "Disable the D-Bus control interface")
	flag.BoolVar(&opt.noVsync, "no-vsync", false, "Disable DRM VSync pacing")
	flag.BoolVar(&opt.printVersion, "version", false, "Print version and exit")
	flag.Parse()

	return opt
}
