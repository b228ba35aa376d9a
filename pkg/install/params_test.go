package install

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/confpush-network/confpush/pkg/util"
)

func boolPtr(b bool) *bool { return &b }

func validParams() *Params {
	return &Params{
		Hostname: "leaf1-ny",
		Username: "admin",
		DevOS:    "sonic",
		Config:   "set x true",
	}
}

func TestResolve_ExplicitWinsOverBundle(t *testing.T) {
	p := validParams()
	p.Provider = Provider{
		"hostname": "bundle-host",
		"username": "bundle-user",
		"dev_os":   "junos",
	}

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.Hostname != "leaf1-ny" {
		t.Errorf("Hostname = %q, want %q", r.Hostname, "leaf1-ny")
	}
	if r.Username != "admin" {
		t.Errorf("Username = %q, want %q", r.Username, "admin")
	}
	if r.DevOS != "sonic" {
		t.Errorf("DevOS = %q, want %q", r.DevOS, "sonic")
	}
}

func TestResolve_BundleFillsAbsent(t *testing.T) {
	p := &Params{
		Config: "set x true",
		Provider: Provider{
			"hostname": "bundle-host",
			"username": "bundle-user",
			"password": "bundle-pass",
			"dev_os":   "junos",
			"timeout":  30,
		},
	}

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.Hostname != "bundle-host" {
		t.Errorf("Hostname = %q, want %q", r.Hostname, "bundle-host")
	}
	if r.Password != "bundle-pass" {
		t.Errorf("Password = %q, want %q", r.Password, "bundle-pass")
	}
	if r.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want %v", r.Timeout, 30*time.Second)
	}
}

func TestResolve_HostAliasInBundle(t *testing.T) {
	p := &Params{
		Username: "admin",
		DevOS:    "sonic",
		Config:   "set x true",
		Provider: Provider{"host": "aliased-host"},
	}

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.Hostname != "aliased-host" {
		t.Errorf("Hostname = %q, want %q", r.Hostname, "aliased-host")
	}

	// "hostname" wins over "host" when both are present
	p.Provider = Provider{"host": "loser", "hostname": "winner"}
	r, err = p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.Hostname != "winner" {
		t.Errorf("Hostname = %q, want %q", r.Hostname, "winner")
	}
}

func TestResolve_ExplicitFalsePreserved(t *testing.T) {
	// An explicitly set false is preserved against the bundle; only an
	// unset boolean falls back.
	p := validParams()
	p.GetDiffs = boolPtr(false)
	p.Provider = Provider{"get_diffs": true}

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.GetDiffs {
		t.Error("explicit get_diffs=false should not be overridden by the bundle")
	}

	// Unset falls back to the bundle
	p.GetDiffs = nil
	r, err = p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if !r.GetDiffs {
		t.Error("unset get_diffs should take the bundle's value")
	}
}

func TestResolve_BoolDefaults(t *testing.T) {
	r, err := validParams().Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.ReplaceConfig {
		t.Error("replace_config should default to false")
	}
	if !r.GetDiffs {
		t.Error("get_diffs should default to true")
	}
	if r.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", r.Timeout, DefaultTimeout)
	}
}

func TestResolve_OptionalArgsMerge(t *testing.T) {
	p := validParams()
	p.OptionalArgs = map[string]string{"port": "2222"}
	p.Provider = Provider{
		"optional_args": map[string]interface{}{"port": "830", "secret": "enable-pass"},
	}

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.OptionalArgs["port"] != "2222" {
		t.Errorf("explicit optional arg lost: port = %q", r.OptionalArgs["port"])
	}
	if r.OptionalArgs["secret"] != "enable-pass" {
		t.Errorf("bundle optional arg lost: secret = %q", r.OptionalArgs["secret"])
	}
}

func TestResolve_CollectsSecrets(t *testing.T) {
	p := validParams()
	p.Password = "top-secret"
	p.OptionalArgs = map[string]string{"secret": "enable-pass"}
	p.Provider = Provider{
		"optional_args": map[string]interface{}{"password": "tunnel-pass"},
	}

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	want := []string{"top-secret", "enable-pass", "tunnel-pass"}
	for _, secret := range want {
		found := false
		for _, got := range r.Secrets {
			if got == secret {
				found = true
			}
		}
		if !found {
			t.Errorf("secret %q not collected (got %v)", secret, r.Secrets)
		}
	}
}

func TestResolve_MissingIdentity(t *testing.T) {
	p := &Params{Config: "set x true"}

	_, err := p.Resolve()
	if err == nil {
		t.Fatal("Resolve() should fail with no identity fields")
	}
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("error should unwrap to ErrValidation, got %v", err)
	}
	for _, want := range []string{"hostname", "username", "dev_os"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestResolve_ConfigSourceRequired(t *testing.T) {
	p := validParams()
	p.Config = ""

	_, err := p.Resolve()
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("missing config source should fail validation, got %v", err)
	}

	p.Config = "set x true"
	p.ConfigFile = "/tmp/config.txt"
	_, err = p.Resolve()
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("config and config_file together should fail validation, got %v", err)
	}
}

func TestResolve_ExpandsPaths(t *testing.T) {
	t.Setenv("CONFPUSH_TEST_DIR", "/var/tmp")

	p := validParams()
	p.Config = ""
	p.ConfigFile = "$CONFPUSH_TEST_DIR/candidate.conf"
	p.DiffFile = "$CONFPUSH_TEST_DIR/diff.txt"

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.ConfigFile != "/var/tmp/candidate.conf" {
		t.Errorf("ConfigFile = %q, want %q", r.ConfigFile, "/var/tmp/candidate.conf")
	}
	if r.DiffFile != "/var/tmp/diff.txt" {
		t.Errorf("DiffFile = %q, want %q", r.DiffFile, "/var/tmp/diff.txt")
	}
}

func TestResolve_YAMLBundleOptionalArgs(t *testing.T) {
	// yaml.v3 decodes the nested optional_args mapping into the Provider
	// type, not map[string]interface{}; the values must still resolve and
	// their secrets must still be collected.
	var provider Provider
	content := `optional_args:
  port: 2222
  secret: enable-pass
`
	if err := yaml.Unmarshal([]byte(content), &provider); err != nil {
		t.Fatalf("unmarshaling provider YAML: %v", err)
	}

	p := validParams()
	p.Provider = provider

	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.OptionalArgs["port"] != "2222" {
		t.Errorf("bundle optional arg port = %q, want %q", r.OptionalArgs["port"], "2222")
	}
	found := false
	for _, s := range r.Secrets {
		if s == "enable-pass" {
			found = true
		}
	}
	if !found {
		t.Errorf("bundle optional_args secret not collected (got %v)", r.Secrets)
	}
}

func TestLoadProvider(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "provider.yml")
	content := `hostname: leaf1-ny
username: admin
password: s3cret
dev_os: junos
timeout: 120
optional_args:
  port: 2222
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing provider file: %v", err)
	}

	provider, err := LoadProvider(path)
	if err != nil {
		t.Fatalf("LoadProvider() failed: %v", err)
	}

	p := &Params{Config: "set x true", Provider: provider}
	r, err := p.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if r.Hostname != "leaf1-ny" || r.Username != "admin" || r.DevOS != "junos" {
		t.Errorf("provider values not applied: %+v", r)
	}
	if r.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want %v", r.Timeout, 120*time.Second)
	}
	if r.OptionalArgs["port"] != "2222" {
		t.Errorf("optional_args port = %q, want %q", r.OptionalArgs["port"], "2222")
	}
}
