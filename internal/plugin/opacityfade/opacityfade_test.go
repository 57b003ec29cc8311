package opacityfade

import (
	"testing"

	"unagi/internal/registry"
)

func TestGetOpacityDefaultsToFullyOpaque(t *testing.T) {
	p := New(nil, nil)
	w := &registry.Window{ID: 1}
	got, ok := p.GetOpacity(w)
	if !ok {
		t.Fatal("expected an opinion")
	}
	if got != FullyOpaque {
		t.Fatalf("GetOpacity = %#x, want FullyOpaque %#x", got, FullyOpaque)
	}
}

func TestGetOpacityReturnsCachedValue(t *testing.T) {
	p := New(nil, nil)
	p.cache[42] = 0x8000
	w := &registry.Window{ID: 42}
	got, ok := p.GetOpacity(w)
	if !ok || got != 0x8000 {
		t.Fatalf("GetOpacity = %#x, %v; want 0x8000, true", got, ok)
	}
}

func TestNameIsOpacity(t *testing.T) {
	p := New(nil, nil)
	if p.Name() != "opacity" {
		t.Fatalf("Name() = %q, want opacity", p.Name())
	}
}

func TestCheckRequirementsAlwaysTrue(t *testing.T) {
	p := New(nil, nil)
	if !p.CheckRequirements() {
		t.Fatal("expected CheckRequirements() to always be true")
	}
}
