package booking

import (
	"testing"
	"time"
)

func TestTo24Hour(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12:00 AM", "00:00"},
		{"12:30 AM", "00:30"},
		{"12:00 PM", "12:00"},
		{"12:45 PM", "12:45"},
		{"1:15 PM", "13:15"},
		{"11:59 PM", "23:59"},
		{"9:00 AM", "09:00"},
		{"9:05 AM", "09:05"},
		{"10:30 am", "10:30"},
		{"2:05 pm", "14:05"},
	}
	for _, tc := range cases {
		got, err := To24Hour(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestTo24HourRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "10:30", "25:00 PM", "0:30 AM", "10:75 AM", "10.30 AM", "ten AM", "10:30 XM"} {
		if _, err := To24Hour(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestCombineUsesLocation(t *testing.T) {
	loc := time.FixedZone("salon", -5*3600)
	got, err := Combine("2026-03-14", "2:30 PM", loc)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	want := time.Date(2026, 3, 14, 14, 30, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if _, err := Combine("14/03/2026", "2:30 PM", loc); err == nil {
		t.Fatal("expected date parse error")
	}
}
