package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExistsTrueForRealFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "present")
	if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ok, err := exists(f)
	if err != nil || !ok {
		t.Fatalf("exists(%q) = %v, %v; want true, nil", f, ok, err)
	}
}

func TestExistsFalseForMissingFile(t *testing.T) {
	ok, err := exists(filepath.Join(t.TempDir(), "absent"))
	if err != nil || ok {
		t.Fatalf("exists(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestXdgOrFallbackUsesEnvWhenValid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got := xdgOrFallback("XDG_CONFIG_HOME", "/nonexistent/fallback"); got != dir {
		t.Fatalf("xdgOrFallback = %q, want %q", got, dir)
	}
}

func TestXdgOrFallbackUsesFallbackWhenEnvUnset(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	if got := xdgOrFallback("XDG_CONFIG_HOME", "/fallback"); got != "/fallback" {
		t.Fatalf("xdgOrFallback = %q, want /fallback", got)
	}
}

func TestXdgOrFallbackUsesFallbackWhenEnvPointsToMissingDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/definitely/does/not/exist")
	if got := xdgOrFallback("XDG_CONFIG_HOME", "/fallback"); got != "/fallback" {
		t.Fatalf("xdgOrFallback = %q, want /fallback", got)
	}
}

func TestLoadCoreDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	core, err := LoadCore()
	if err != nil {
		t.Fatalf("LoadCore: %v", err)
	}
	if core.DbusService != "org.minidweeb.unagi" {
		t.Fatalf("DbusService = %q, want default", core.DbusService)
	}
	if len(core.Plugins) != 0 {
		t.Fatalf("expected no plugins configured, got %v", core.Plugins)
	}
}
