package plugin

import (
	"testing"

	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"unagi/internal/registry"
)

type stubPlugin struct {
	name       string
	opacity    uint16
	hasOpacity bool
	prePaints  int
}

func (s *stubPlugin) Name() string                  { return s.name }
func (s *stubPlugin) CheckRequirements() bool        { return true }
func (s *stubPlugin) ManageExisting([]*registry.Window) {}
func (s *stubPlugin) GetOpacity(w *registry.Window) (uint16, bool) {
	return s.opacity, s.hasOpacity
}
func (s *stubPlugin) PrePaint()  { s.prePaints++ }
func (s *stubPlugin) PostPaint() {}

func (s *stubPlugin) Damage(damage.NotifyEvent, *registry.Window)               {}
func (s *stubPlugin) RandRScreenChangeNotify(randr.ScreenChangeNotifyEvent)     {}
func (s *stubPlugin) KeyPress(xproto.KeyPressEvent, *registry.Window)          {}
func (s *stubPlugin) KeyRelease(xproto.KeyReleaseEvent, *registry.Window)      {}
func (s *stubPlugin) ButtonRelease(xproto.ButtonReleaseEvent, *registry.Window) {}
func (s *stubPlugin) MotionNotify(xproto.MotionNotifyEvent)                    {}
func (s *stubPlugin) Circulate(xproto.CirculateNotifyEvent, *registry.Window)  {}
func (s *stubPlugin) Configure(xproto.ConfigureNotifyEvent, *registry.Window)  {}
func (s *stubPlugin) Create(xproto.CreateNotifyEvent, *registry.Window)        {}
func (s *stubPlugin) Destroy(xproto.DestroyNotifyEvent, *registry.Window)      {}
func (s *stubPlugin) Map(xproto.MapNotifyEvent, *registry.Window)              {}
func (s *stubPlugin) Reparent(xproto.ReparentNotifyEvent, *registry.Window)    {}
func (s *stubPlugin) Unmap(xproto.UnmapNotifyEvent, *registry.Window)          {}
func (s *stubPlugin) Mapping(xproto.MappingNotifyEvent)                        {}
func (s *stubPlugin) Property(xproto.PropertyNotifyEvent, *registry.Window)    {}

func TestNewHostMovesOpacityToTail(t *testing.T) {
	opacity := &stubPlugin{name: "opacity"}
	fade := &stubPlugin{name: "fade"}
	h := NewHost([]Plugin{opacity, fade})
	if len(h.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(h.entries))
	}
	if h.entries[len(h.entries)-1].plugin.Name() != "opacity" {
		t.Fatal("expected opacity plugin at the tail")
	}
	if h.entries[0].plugin.Name() != "fade" {
		t.Fatal("expected fade plugin first")
	}
}

func TestOpacityFirstNonNullWins(t *testing.T) {
	fade := &stubPlugin{name: "fade", opacity: 0x4000, hasOpacity: true, prePaints: 0}
	opacity := &stubPlugin{name: "opacity", opacity: 0xffff, hasOpacity: true}
	h := NewHost([]Plugin{opacity, fade})
	for _, e := range h.entries {
		e.enabled = true
	}
	got, ok := h.Opacity(&registry.Window{ID: 1})
	if !ok || got != 0x4000 {
		t.Fatalf("Opacity = %#x, %v; want 0x4000, true (fade wins, runs before opacity)", got, ok)
	}
}

func TestOpacityFallsThroughWhenEarlierPluginHasNoOpinion(t *testing.T) {
	fade := &stubPlugin{name: "fade", hasOpacity: false}
	opacity := &stubPlugin{name: "opacity", opacity: 0xaaaa, hasOpacity: true}
	h := NewHost([]Plugin{opacity, fade})
	for _, e := range h.entries {
		e.enabled = true
	}
	got, ok := h.Opacity(&registry.Window{ID: 1})
	if !ok || got != 0xaaaa {
		t.Fatalf("Opacity = %#x, %v; want 0xaaaa, true (falls through to opacity plugin)", got, ok)
	}
}

func TestDisabledPluginSkippedFromPrePaint(t *testing.T) {
	p := &stubPlugin{name: "x"}
	h := NewHost([]Plugin{p})
	h.entries[0].enabled = false
	h.PrePaint()
	if p.prePaints != 0 {
		t.Fatalf("disabled plugin's PrePaint was called")
	}
	h.entries[0].enabled = true
	h.PrePaint()
	if p.prePaints != 1 {
		t.Fatalf("enabled plugin's PrePaint was not called")
	}
}
