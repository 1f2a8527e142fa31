package secrets

import (
	"encoding/hex"
	"testing"
)

func TestNew(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(s) != 64 {
		t.Errorf("length = %d, want 64 hex chars", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Errorf("not hex: %v", err)
	}
}

func TestNewIsRandom(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	b, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a == b {
		t.Error("two generated secrets should differ")
	}
}
