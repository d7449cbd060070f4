package derive

import "testing"

func TestDetectVersionFindsLeftmostToken(t *testing.T) {
	cases := []struct {
		title    string
		expected string
	}{
		{"Raid Protection 2.1.0", "2.1.0"},
		{"Heli 1.2 Controller 3.4", "1.2"},
		{"update 0.9 beta", "0.9"},
		{"Stack 1.02.003", "1.02.003"},
		{"Four part 1.2.3.4 stays three", "1.2.3"},
	}
	for _, tc := range cases {
		if got := DetectVersion(tc.title); got != tc.expected {
			t.Fatalf("DetectVersion(%q) = %q, expected %q", tc.title, got, tc.expected)
		}
	}
}

func TestDetectVersionDefaults(t *testing.T) {
	cases := []string{
		"",
		"Simple Base",
		"No version here 12",
		"Dotted. but. not. numeric",
	}
	for _, title := range cases {
		if got := DetectVersion(title); got != DefaultVersion {
			t.Fatalf("DetectVersion(%q) = %q, expected default", title, got)
		}
	}
}

func TestDetectVersionPreservesLeadingZeros(t *testing.T) {
	if got := DetectVersion("Furnace Splitter 0.07.1"); got != "0.07.1" {
		t.Fatalf("expected verbatim token, got %q", got)
	}
}
