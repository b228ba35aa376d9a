package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEvent_New(t *testing.T) {
	event := NewEvent("alice", "leaf1-ny", "sonic", "config.install")

	if event.User != "alice" {
		t.Errorf("User = %q, want %q", event.User, "alice")
	}
	if event.Device != "leaf1-ny" {
		t.Errorf("Device = %q, want %q", event.Device, "leaf1-ny")
	}
	if event.DevOS != "sonic" {
		t.Errorf("DevOS = %q, want %q", event.DevOS, "sonic")
	}
	if event.ID == "" {
		t.Error("ID should not be empty")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestEvent_Chaining(t *testing.T) {
	event := NewEvent("alice", "leaf1-ny", "junos", "config.install").
		WithOutcome(true, false, true).
		WithSuccess().
		WithDuration(time.Second)

	if !event.Changed {
		t.Error("Changed should be true")
	}
	if event.Committed {
		t.Error("Committed should be false")
	}
	if !event.DryRun {
		t.Error("DryRun should be true")
	}
	if !event.Success {
		t.Error("Success should be true")
	}
	if event.Duration != time.Second {
		t.Errorf("Duration = %v", event.Duration)
	}
}

func TestFileLogger_LogAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewFileLogger(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger() failed: %v", err)
	}
	defer logger.Close()

	events := []*Event{
		NewEvent("alice", "leaf1-ny", "sonic", "config.install").WithSuccess(),
		NewEvent("bob", "spine1-ny", "junos", "config.install").WithError("cannot load config: syntax error"),
		NewEvent("alice", "leaf1-ny", "sonic", "config.install").WithSuccess(),
	}
	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log() failed: %v", err)
		}
	}

	all, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Query() returned %d events, want 3", len(all))
	}

	byDevice, err := logger.Query(Filter{Device: "leaf1-ny"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(byDevice) != 2 {
		t.Errorf("device filter returned %d events, want 2", len(byDevice))
	}

	failures, err := logger.Query(Filter{FailureOnly: true})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(failures) != 1 || failures[0].User != "bob" {
		t.Errorf("failure filter = %+v, want bob's event only", failures)
	}

	limited, err := logger.Query(Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit filter returned %d events, want 1", len(limited))
	}
}

func TestFileLogger_QueryMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.log")
	logger, err := NewFileLogger(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger() failed: %v", err)
	}
	logger.Close()
	os.Remove(path)

	events, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query() on missing file failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Query() = %d events, want 0", len(events))
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewFileLogger(path, RotationConfig{MaxSize: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewFileLogger() failed: %v", err)
	}
	defer logger.Close()

	// every Log after the first exceeds MaxSize and rotates
	if err := logger.Log(NewEvent("alice", "leaf1-ny", "sonic", "config.install")); err != nil {
		t.Fatalf("Log() failed: %v", err)
	}
	if err := logger.Log(NewEvent("alice", "leaf1-ny", "sonic", "config.install")); err != nil {
		t.Fatalf("Log() failed: %v", err)
	}

	matches, err := filepath.Glob(path + ".*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Error("rotation should have produced a backup file")
	}
}
