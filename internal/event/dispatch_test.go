package event

import "testing"

func TestRequestLabelInRange(t *testing.T) {
	got := requestLabel(compositeRequestLabel, 2)
	if got != "CompositeRedirectSubwindows" {
		t.Fatalf("requestLabel = %q, want CompositeRedirectSubwindows", got)
	}
}

func TestRequestLabelOutOfRange(t *testing.T) {
	got := requestLabel(damageRequestLabel, 99)
	if got != "unknown" {
		t.Fatalf("requestLabel = %q, want unknown", got)
	}
}

type fakeBackend struct {
	ownOpcode uint8
	reqLabel  string
	errLabel  string
}

func (f fakeBackend) IsOwnRequest(major uint8) bool    { return major == f.ownOpcode }
func (f fakeBackend) RequestLabel(minor uint16) string { return f.reqLabel }
func (f fakeBackend) ErrorLabel(code uint8) string     { return f.errLabel }

func TestHandleErrorPrefersBackendForOwnOpcode(t *testing.T) {
	d := &Dispatcher{
		Backend: fakeBackend{ownOpcode: 150, reqLabel: "RenderComposite", errLabel: "BadPicture"},
	}
	// Must not panic even with a nil Ext, since the backend branch is
	// taken before any Ext.* field is dereferenced.
	d.HandleError(150, 3, 7)
}
