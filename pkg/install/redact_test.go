package install

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRedactor_Scrub(t *testing.T) {
	r := NewRedactor("s3cret", "enable-pass", "")

	got := r.Scrub("login failed for admin/s3cret (enable: enable-pass)")
	if strings.Contains(got, "s3cret") || strings.Contains(got, "enable-pass") {
		t.Errorf("secrets leaked: %q", got)
	}
	if !strings.Contains(got, "********") {
		t.Errorf("placeholder missing: %q", got)
	}
}

func TestRedactor_EmptySecretIgnored(t *testing.T) {
	r := NewRedactor("")
	if got := r.Scrub("nothing to hide"); got != "nothing to hide" {
		t.Errorf("Scrub() = %q, want input unchanged", got)
	}
}

func TestRedactor_Hook(t *testing.T) {
	r := NewRedactor("s3cret")

	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.AddHook(r.Hook())

	logger.WithField("password", "s3cret").Warn("connecting with s3cret")

	out := buf.String()
	if strings.Contains(out, "s3cret") {
		t.Errorf("secret leaked to log output: %q", out)
	}
}
