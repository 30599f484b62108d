package locale

import (
	"testing"
	"time"
)

func TestBase(t *testing.T) {
	cases := map[string]string{
		"bn-BD": "bn",
		"bn_IN": "bn",
		"en-US": "en",
		"bn":    "bn",
	}
	for in, want := range cases {
		if got := Base(in); got != want {
			t.Errorf("Base(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatches(t *testing.T) {
	if !Matches("bn-BD", "bn_IN") {
		t.Error("bn-BD should match bn_IN")
	}
	if Matches("bn-BD", "en-US") || Matches("", "bn") {
		t.Error("unexpected match")
	}
}

func TestClock(t *testing.T) {
	ts := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	if got, want := Clock(ts, "bn-BD"), "৩:০৪:০৫ PM"; got != want {
		t.Errorf("Clock(bn) = %q, want %q", got, want)
	}
	if got, want := Clock(ts, "en-US"), "3:04:05 PM"; got != want {
		t.Errorf("Clock(en) = %q, want %q", got, want)
	}
}

func TestFirstNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"volume 80", 80, true},
		{"ভলিউম ৮০ করো", 80, true},
		{"set 5 then 9", 5, true},
		{"ভলিউম", 0, false},
	}
	for _, c := range cases {
		got, ok := FirstNumber(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("FirstNumber(%q) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
