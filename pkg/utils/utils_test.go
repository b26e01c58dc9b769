package utils

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"board", "sama5d4-ek", "sama5d4-ek"},
		{"vendor_path", "atmel/sama5d3-xplained", "atmel-sama5d3-xplained"},
		{"dot", "rev1.2", "rev1-2"},
		{"colon", "board:a", "board-a"},
		{"space", "my board", "my-board"},
		{"tab", "my\tboard", "my-board"},
		{"empty", "", ""},
		{"all_special", ":/.", "---"},
		{"hyphen_passthrough", "already-safe", "already-safe"},
		{"underscore_passthrough", "a_b", "a_b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeName(tc.in)
			if got != tc.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
