//go:build !windows

package pause

import "testing"

func TestIsPauseKey(t *testing.T) {
	tests := []struct {
		name string
		key  byte
		want bool
	}{
		{name: "space", key: ' ', want: true},
		{name: "p", key: 'p', want: true},
		{name: "P", key: 'P', want: true},
		{name: "esc", key: 0x1b, want: true},
		{name: "ctrl-c in raw mode", key: 0x03, want: true},
		{name: "enter", key: '\r', want: false},
		{name: "letter", key: 'q', want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPauseKey(tt.key); got != tt.want {
				t.Errorf("isPauseKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
