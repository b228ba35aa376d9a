package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStepError(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewStepError(ErrConnect, "cannot connect to device", cause)

	if !strings.Contains(err.Error(), "cannot connect to device") {
		t.Errorf("Error() = %q, should name the step", err.Error())
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, should include the cause", err.Error())
	}
	if !errors.Is(err, ErrConnect) {
		t.Error("errors.Is should match the sentinel")
	}
	if errors.Is(err, ErrCommit) {
		t.Error("errors.Is should not match a different sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the underlying cause via Unwrap")
	}
}

func TestValidationError_Single(t *testing.T) {
	err := NewValidationError("hostname is required")
	if got := err.Error(); got != "validation failed: hostname is required" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("should unwrap to ErrValidation")
	}
}

func TestValidationBuilder(t *testing.T) {
	v := &ValidationBuilder{}
	v.Require(true, "should not appear").
		Require(false, "hostname is required").
		AddErrorf("dev_os %q is unknown", "acme")

	if !v.HasErrors() {
		t.Fatal("HasErrors() should be true")
	}
	err := v.Build()
	if err == nil {
		t.Fatal("Build() should return an error")
	}
	msg := err.Error()
	if strings.Contains(msg, "should not appear") {
		t.Errorf("passing condition leaked into error: %q", msg)
	}
	if !strings.Contains(msg, "hostname is required") || !strings.Contains(msg, `dev_os "acme" is unknown`) {
		t.Errorf("accumulated failures missing: %q", msg)
	}

	empty := &ValidationBuilder{}
	if empty.Build() != nil {
		t.Error("Build() with no failures should return nil")
	}
}
