package dbuscontrol

import "testing"

func TestExitMarksBusForDeferredShutdown(t *testing.T) {
	b := &Bus{}
	c := &control{bus: b}
	if b.ExitRequested() {
		t.Fatal("ExitRequested true before Exit called")
	}
	if err := c.Exit(); err != nil {
		t.Fatalf("Exit returned error: %v", err)
	}
	if !b.ExitRequested() {
		t.Fatal("ExitRequested false after Exit called")
	}
}

func TestClearExitRequestedResetsFlag(t *testing.T) {
	b := &Bus{exitRequested: true}
	b.ClearExitRequested()
	if b.ExitRequested() {
		t.Fatal("ExitRequested true after ClearExitRequested")
	}
}

func TestCloseOnZeroValueBusIsNoop(t *testing.T) {
	b := &Bus{}
	if err := b.Close(); err != nil {
		t.Fatalf("Close on nil conn returned error: %v", err)
	}
}

type fakeExporter struct{ methods interface{} }

func (f fakeExporter) DbusMethods() interface{} { return f.methods }

func TestRegisterPluginSkipsNilMethods(t *testing.T) {
	b := &Bus{}
	if err := b.RegisterPlugin("opacity", fakeExporter{methods: nil}); err != nil {
		t.Fatalf("RegisterPlugin with nil methods should be a no-op, got: %v", err)
	}
}

func TestPluginInterfacePrefixFormat(t *testing.T) {
	want := "org.minidweeb.unagi.plugin."
	if PluginInterfacePrefix != want {
		t.Fatalf("PluginInterfacePrefix = %q, want %q", PluginInterfacePrefix, want)
	}
}
