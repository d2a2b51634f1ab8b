package config

import (
	"testing"
	"time"
)

func TestRequiredString(t *testing.T) {
	t.Setenv("SALON_TEST_REQUIRED", "  ")
	if _, err := RequiredString("SALON_TEST_REQUIRED"); err == nil {
		t.Fatal("expected error for blank value")
	}
	t.Setenv("SALON_TEST_REQUIRED", "postgres://x")
	v, err := RequiredString("SALON_TEST_REQUIRED")
	if err != nil || v != "postgres://x" {
		t.Fatalf("unexpected result %q, %v", v, err)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("SALON_TEST_PORT", "70000")
	if _, err := Port("SALON_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
	t.Setenv("SALON_TEST_PORT", "")
	p, err := Port("SALON_TEST_PORT", "8080")
	if err != nil || p != "8080" {
		t.Fatalf("expected fallback port, got %q, %v", p, err)
	}
}

func TestIntBoolList(t *testing.T) {
	t.Setenv("SALON_TEST_INT", "-3")
	if got := Int("SALON_TEST_INT", 60); got != 60 {
		t.Fatalf("expected fallback 60, got %d", got)
	}
	t.Setenv("SALON_TEST_SECONDS", "30")
	if got := Seconds("SALON_TEST_SECONDS", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %s", got)
	}
	t.Setenv("SALON_TEST_BOOL", "off")
	if Bool("SALON_TEST_BOOL", true) {
		t.Fatal("expected false")
	}
	t.Setenv("SALON_TEST_BOOL", "maybe")
	if !Bool("SALON_TEST_BOOL", true) {
		t.Fatal("expected fallback true")
	}
	t.Setenv("SALON_TEST_LIST", " a, ,b,")
	got := List("SALON_TEST_LIST", "")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list %v", got)
	}
}
