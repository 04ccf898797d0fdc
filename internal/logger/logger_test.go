package logger

import "testing"

func TestLReturnsNopBeforeInit(t *testing.T) {
	if L() == nil {
		t.Fatalf("expected non-nil logger before Init")
	}
}

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	built, err := Init("not-a-level", "test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !built.Core().Enabled(0) {
		t.Fatalf("expected info level enabled")
	}
	if built.Core().Enabled(-1) {
		t.Fatalf("expected debug level disabled")
	}
	if L() != built {
		t.Fatalf("expected L to return the initialised logger")
	}
}
