package version

import (
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	if Version != "dev" {
		t.Errorf("Version = %q, want %q", Version, "dev")
	}
	if GitCommit != "unknown" {
		t.Errorf("GitCommit = %q, want %q", GitCommit, "unknown")
	}
	if BuildDate != "unknown" {
		t.Errorf("BuildDate = %q, want %q", BuildDate, "unknown")
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.Contains(info, Version) || !strings.Contains(info, GitCommit) {
		t.Errorf("Info() = %q, missing version or commit", info)
	}
}
