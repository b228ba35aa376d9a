package util

import (
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("CONFPUSH_BASE", "/opt/configs")
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/etc/confpush/candidate.conf", "/etc/confpush/candidate.conf"},
		{"$CONFPUSH_BASE/leaf1/diff.txt", "/opt/configs/leaf1/diff.txt"},
		{"~/archives/running.conf", "/home/tester/archives/running.conf"},
		{"$CONFPUSH_BASE/../shared", "/opt/configs/../shared"},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Errorf("ExpandPath(%q) failed: %v", tt.in, err)
			continue
		}
		if filepath.Clean(got) != filepath.Clean(tt.want) && got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
