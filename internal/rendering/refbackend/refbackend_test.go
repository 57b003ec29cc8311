package refbackend

import (
	"testing"

	"github.com/BurntSushi/xgb/render"
)

func directformat(depth byte) render.Directformat {
	d := render.Directformat{
		RedShift: 16, RedMask: 0xff,
		GreenShift: 8, GreenMask: 0xff,
		BlueShift: 0, BlueMask: 0xff,
		AlphaShift: 24, AlphaMask: 0xff,
	}
	if depth == 24 {
		d.AlphaShift, d.AlphaMask = 0, 0
	}
	return d
}

func TestFindPictformatMatchesDepth32(t *testing.T) {
	fs := []render.Pictforminfo{
		{Id: 1, Type: render.PictTypeDirect, Depth: 24, Direct: directformat(24)},
		{Id: 2, Type: render.PictTypeDirect, Depth: 32, Direct: directformat(32)},
	}
	got, err := findPictformat(fs, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("findPictformat(32) = %v, want 2", got)
	}
}

func TestFindPictformatNoMatch(t *testing.T) {
	fs := []render.Pictforminfo{
		{Id: 1, Type: render.PictTypeDirect, Depth: 24, Direct: directformat(24)},
	}
	if _, err := findPictformat(fs, 32); err == nil {
		t.Fatal("expected error when no depth-32 format is present")
	}
}

func TestErrorLabelKnownAndUnknown(t *testing.T) {
	b := &Backend{}
	if got := b.ErrorLabel(0); got != "BadPictFormat" {
		t.Fatalf("ErrorLabel(0) = %q, want BadPictFormat", got)
	}
	if got := b.ErrorLabel(99); got != "" {
		t.Fatalf("ErrorLabel(99) = %q, want empty", got)
	}
}

func TestErrorOffsetSubtractsFirstError(t *testing.T) {
	b := &Backend{firstError: 142}
	if got := b.ErrorOffset(142); got != 0 {
		t.Fatalf("ErrorOffset(142) = %d, want 0", got)
	}
}

func TestIsOwnRequest(t *testing.T) {
	b := &Backend{majorOpcode: 150}
	if !b.IsOwnRequest(150) {
		t.Fatal("expected true for matching opcode")
	}
	if b.IsOwnRequest(139) {
		t.Fatal("expected false for non-matching opcode")
	}
}

func TestRequestLabelRoundTrip(t *testing.T) {
	b := &Backend{}
	if got := b.RequestLabel(requestComposite); got != "RenderComposite" {
		t.Fatalf("RequestLabel(Composite) = %q", got)
	}
	if got := b.RequestLabel(999); got != "unknown" {
		t.Fatalf("RequestLabel(999) = %q, want unknown", got)
	}
}
