// Package install implements the configuration installation workflow:
// resolve connection parameters, open a device session through the driver
// registry, archive / load / diff / commit-or-discard, and report the result.
package install

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/confpush-network/confpush/pkg/util"
)

// DefaultTimeout is the connection timeout used when neither the parameters
// nor the provider bundle set one.
const DefaultTimeout = 60 * time.Second

// Provider is a bundle of connection defaults, typically loaded from
// inventory YAML. Explicit parameters take precedence over bundle values;
// see Params.Resolve for the exact rule.
type Provider map[string]interface{}

// LoadProvider reads a provider bundle from a YAML file.
func LoadProvider(path string) (Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading provider file: %w", err)
	}
	p := Provider{}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing provider YAML: %w", err)
	}
	return p, nil
}

// str returns the first non-empty string value among the given keys.
func (p Provider) str(keys ...string) string {
	for _, key := range keys {
		if v, ok := p[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// boolVal returns the bundle's boolean for key and whether it was present.
func (p Provider) boolVal(key string) (bool, bool) {
	if v, ok := p[key]; ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// intVal returns the bundle's integer for key and whether it was present.
func (p Provider) intVal(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// optionalArgs returns the bundle's optional_args as a string map.
// yaml.v3 decodes nested mappings into the named Provider type, so both map
// shapes must be handled.
func (p Provider) optionalArgs() map[string]string {
	var raw map[string]interface{}
	switch v := p["optional_args"].(type) {
	case map[string]interface{}:
		raw = v
	case Provider:
		raw = v
	default:
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// Params is the invocation surface of an install run before resolution.
//
// ReplaceConfig and GetDiffs are pointers because the precedence rule
// distinguishes unset from explicitly false: an explicitly set false is
// preserved against the provider bundle, while an unset or empty parameter
// falls back to the bundle's value. This asymmetry is deliberate and
// mirrors how inventory-driven callers expect flags to behave.
type Params struct {
	Hostname string
	Username string
	Password string
	DevOS    string
	Timeout  int // seconds; 0 means unset
	Provider Provider

	OptionalArgs map[string]string

	Config     string // inline candidate text
	ConfigFile string // path to candidate file

	CommitChanges bool
	DryRun        bool
	ReplaceConfig *bool // nil = unset (default false)
	GetDiffs      *bool // nil = unset (default true)

	DiffFile      string
	ArchiveFile   string
	CandidateFile string
	CommitComment string
}

// Resolved is a fully resolved, validated parameter set ready to run.
type Resolved struct {
	Hostname string
	Username string
	Password string
	DevOS    string
	Timeout  time.Duration

	OptionalArgs map[string]string

	Config     string
	ConfigFile string

	CommitChanges bool
	DryRun        bool
	ReplaceConfig bool
	GetDiffs      bool

	DiffFile      string
	ArchiveFile   string
	CandidateFile string
	CommitComment string

	// Secrets holds every value that must never appear in logs or output.
	Secrets []string
}

// Resolve merges the explicit parameters with the provider bundle, applies
// defaults, expands file paths, validates required fields, and collects
// secret values for redaction.
//
// Precedence, per field:
//   - hostname accepts either "hostname" or "host" from the bundle.
//   - string parameters: explicit non-empty wins, otherwise the bundle.
//   - boolean parameters: an explicitly set value wins, including false;
//     only an unset parameter falls back to the bundle, then the default.
//   - optional_args merge per key, explicit entries winning.
func (p *Params) Resolve() (*Resolved, error) {
	bundle := p.Provider
	if bundle == nil {
		bundle = Provider{}
	}

	r := &Resolved{
		Hostname:      firstNonEmpty(p.Hostname, bundle.str("hostname", "host")),
		Username:      firstNonEmpty(p.Username, bundle.str("username")),
		Password:      firstNonEmpty(p.Password, bundle.str("password")),
		DevOS:         firstNonEmpty(p.DevOS, bundle.str("dev_os")),
		Config:        firstNonEmpty(p.Config, bundle.str("config")),
		ConfigFile:    firstNonEmpty(p.ConfigFile, bundle.str("config_file")),
		DiffFile:      firstNonEmpty(p.DiffFile, bundle.str("diff_file")),
		ArchiveFile:   firstNonEmpty(p.ArchiveFile, bundle.str("archive_file")),
		CandidateFile: firstNonEmpty(p.CandidateFile, bundle.str("candidate_file")),
		CommitComment: firstNonEmpty(p.CommitComment, bundle.str("commit_comment")),
		CommitChanges: p.CommitChanges,
		DryRun:        p.DryRun,
		ReplaceConfig: resolveBool(p.ReplaceConfig, bundle, "replace_config", false),
		GetDiffs:      resolveBool(p.GetDiffs, bundle, "get_diffs", true),
	}

	timeout := p.Timeout
	if timeout == 0 {
		if v, ok := bundle.intVal("timeout"); ok {
			timeout = v
		}
	}
	if timeout == 0 {
		r.Timeout = DefaultTimeout
	} else {
		r.Timeout = time.Duration(timeout) * time.Second
	}

	r.OptionalArgs = map[string]string{}
	for k, v := range bundle.optionalArgs() {
		r.OptionalArgs[k] = v
	}
	for k, v := range p.OptionalArgs {
		r.OptionalArgs[k] = v
	}

	var err error
	for _, path := range []*string{&r.ConfigFile, &r.DiffFile, &r.ArchiveFile, &r.CandidateFile} {
		if *path, err = util.ExpandPath(*path); err != nil {
			return nil, util.NewValidationError(fmt.Sprintf("expanding path: %v", err))
		}
	}

	v := &util.ValidationBuilder{}
	v.Require(r.Hostname != "", "hostname is required")
	v.Require(r.Username != "", "username is required")
	v.Require(r.DevOS != "", "dev_os is required")
	v.Require(r.Config != "" || r.ConfigFile != "", "either config or config_file is required")
	v.Require(r.Config == "" || r.ConfigFile == "", "config and config_file are mutually exclusive")
	if err := v.Build(); err != nil {
		return nil, err
	}

	r.Secrets = collectSecrets(r.Password, bundle, p.OptionalArgs, r.OptionalArgs)
	return r, nil
}

// collectSecrets gathers every value that must be redacted: the resolved
// password and anything under "password" or "secret" keys in the bundle,
// the bundle's optional_args, and the explicit optional_args.
func collectSecrets(password string, bundle Provider, explicitArgs, resolvedArgs map[string]string) []string {
	seen := map[string]bool{}
	var secrets []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			secrets = append(secrets, v)
		}
	}

	add(password)
	for _, key := range []string{"password", "secret"} {
		add(bundle.str(key))
		add(bundle.optionalArgs()[key])
		add(explicitArgs[key])
		add(resolvedArgs[key])
	}
	return secrets
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool applies the boolean precedence rule: an explicitly set value
// is preserved as-is (false included); unset falls back to the bundle, then
// the default.
func resolveBool(explicit *bool, bundle Provider, key string, def bool) bool {
	if explicit != nil {
		return *explicit
	}
	if v, ok := bundle.boolVal(key); ok {
		return v
	}
	return def
}
