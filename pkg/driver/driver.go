// Package driver defines the capability-set interface every supported device
// OS implements, and the registry that maps an OS identifier to a driver
// implementation. Drivers register themselves from their package init, so a
// binary selects its vendor support by importing driver packages for side
// effect, the same way database/sql drivers are wired.
package driver

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/confpush-network/confpush/pkg/util"
)

// Source selects which configuration store to read from a device.
type Source string

const (
	SourceRunning   Source = "running"
	SourceCandidate Source = "candidate"
)

// ConfigSource carries a candidate configuration payload: either inline
// contents or a file to read it from. Exactly one should be set.
type ConfigSource struct {
	Contents string
	Filename string
}

// Read returns the candidate text, reading Filename when set.
func (s ConfigSource) Read() (string, error) {
	if s.Filename == "" {
		return s.Contents, nil
	}
	data, err := os.ReadFile(s.Filename)
	if err != nil {
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return string(data), nil
}

// ConnectOptions carries the resolved connection identity for a device.
// OptionalArgs is an open map of driver-specific settings; values under
// "password" and "secret" keys are treated as secrets by the caller.
type ConnectOptions struct {
	Hostname     string
	Username     string
	Password     string
	Timeout      time.Duration
	OptionalArgs map[string]string
}

// Arg returns an optional argument with a fallback default.
func (o ConnectOptions) Arg(key, def string) string {
	if v, ok := o.OptionalArgs[key]; ok && v != "" {
		return v
	}
	return def
}

// Driver is the capability set a device OS must provide. The lifecycle is
// Open → (GetConfig / Load* / CompareConfig / Commit-or-Discard) → Close,
// with Close called exactly once on every exit path.
type Driver interface {
	// Open establishes the device session.
	Open(ctx context.Context) error

	// GetConfig retrieves the requested configuration store as text.
	GetConfig(ctx context.Context, source Source) (string, error)

	// LoadMergeCandidate loads src into the candidate store, overlaying the
	// running configuration.
	LoadMergeCandidate(ctx context.Context, src ConfigSource) error

	// LoadReplaceCandidate loads src into the candidate store, wholly
	// superseding the running configuration on commit.
	LoadReplaceCandidate(ctx context.Context, src ConfigSource) error

	// CompareConfig returns the diff between running and candidate
	// configurations. Empty string means no change.
	CompareConfig(ctx context.Context) (string, error)

	// CommitConfig applies the candidate. comment is an optional
	// human-readable note; drivers without comment support may ignore it.
	CommitConfig(ctx context.Context, comment string) error

	// DiscardConfig drops the pending candidate, leaving the device unchanged.
	DiscardConfig(ctx context.Context) error

	// Close tears down the session.
	Close() error
}

// Factory builds an unopened driver for the given connection options.
type Factory func(opts ConnectOptions) (Driver, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a driver factory available under the given device OS key.
// It panics if the key is already taken.
func Register(devOS string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("driver: Register with nil factory")
	}
	if _, dup := registry[devOS]; dup {
		panic("driver: Register called twice for " + devOS)
	}
	registry[devOS] = factory
}

// New builds a driver for devOS. The returned driver is not yet opened.
// Unknown keys fail with util.ErrDriverNotFound before any connection attempt.
func New(devOS string, opts ConnectOptions) (Driver, error) {
	registryMu.RLock()
	factory, ok := registry[devOS]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", util.ErrDriverNotFound, devOS, List())
	}
	return factory(opts)
}

// List returns the registered device OS keys, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
