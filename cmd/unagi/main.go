package main

import (
	"io"
	"log"
	"os"

	"unagi/internal/engine"
)

var version = "unknown" // set by scripts/embedversion.go

//go:generate go run ../../scripts/embedversion.go

func main() {
	opt := parseCLIOpts()

	if opt.verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
	log.Printf("unagi starting. Version: %s\n", version)

	if opt.printVersion {
		os.Stdout.WriteString(version + "\n")
		return
	}

	eng, err := engine.New(engine.Options{
		Display: opt.display,
		Screen:  opt.screen,
		Dbus:    !opt.noDbus,
		Vsync:   !opt.noVsync,
	})
	if err != nil {
		log.Printf("unagi: startup failed: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	if err := eng.Run(); err != nil {
		log.Printf("unagi: %v\n", err)
		os.Exit(1)
	}
}
