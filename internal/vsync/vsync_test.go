package vsync

import "testing"

func TestNoopNeverErrors(t *testing.T) {
	p := Noop()
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDrmIoctlWaitVblankEncoding(t *testing.T) {
	const (
		dirReadWrite = 3
		typeDRM      = 0x64 // 'd'
		nr           = 0x3a
		size         = 16
	)
	want := uint(dirReadWrite<<30 | typeDRM<<8 | nr | size<<16)
	if drmIoctlWaitVblank != want {
		t.Fatalf("drmIoctlWaitVblank = %#x, want %#x", drmIoctlWaitVblank, want)
	}
}
