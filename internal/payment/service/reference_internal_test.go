package service

import (
	"strings"
	"testing"
	"time"
)

func TestNewReferenceFormat(t *testing.T) {
	now := time.Now()
	ref := newReference(now)

	parts := strings.Split(ref, "-")
	if len(parts) != 3 {
		t.Fatalf("expected three segments, got %q", ref)
	}
	if parts[0] != "NAPPS" {
		t.Errorf("expected NAPPS prefix, got %q", parts[0])
	}
	if len(parts[2]) != 6 {
		t.Errorf("expected a 6-character suffix, got %q", parts[2])
	}
	if ref == newReference(now) {
		t.Error("two references generated at the same instant should differ")
	}
}
