// Package mock provides a scripted in-memory driver for tests. Importing the
// package registers it under the "mock" device OS; tests script behavior
// through the shared Device returned by Configure.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/confpush-network/confpush/pkg/driver"
)

func init() {
	driver.Register("mock", func(opts driver.ConnectOptions) (driver.Driver, error) {
		mu.Lock()
		defer mu.Unlock()
		if current == nil {
			return nil, fmt.Errorf("mock driver not configured")
		}
		current.Opts = opts
		return current, nil
	})
}

var (
	mu      sync.Mutex
	current *Device
)

// Configure installs a fresh scripted device as the one the registry hands
// out, and returns it for inspection.
func Configure(script Script) *Device {
	mu.Lock()
	defer mu.Unlock()
	current = &Device{Script: script}
	return current
}

// Script controls the canned behavior of a mock device.
type Script struct {
	RunningConfig   string
	CandidateConfig string
	Diff            string // what CompareConfig returns

	OpenErr    error
	GetErr     error
	LoadErr    error
	CompareErr error
	CommitErr  error
	DiscardErr error
	CloseErr   error
}

// Device records every capability call in order.
type Device struct {
	Script Script
	Opts   driver.ConnectOptions

	Calls      []string
	Committed  bool
	Discarded  bool
	LastLoad   driver.ConfigSource
	LastMode   string // "merge" or "replace"
	CommitMsg  string
	CloseCount int
}

func (d *Device) record(call string) {
	d.Calls = append(d.Calls, call)
}

func (d *Device) Open(ctx context.Context) error {
	d.record("open")
	return d.Script.OpenErr
}

func (d *Device) GetConfig(ctx context.Context, source driver.Source) (string, error) {
	d.record("get:" + string(source))
	if d.Script.GetErr != nil {
		return "", d.Script.GetErr
	}
	if source == driver.SourceCandidate {
		return d.Script.CandidateConfig, nil
	}
	return d.Script.RunningConfig, nil
}

func (d *Device) LoadMergeCandidate(ctx context.Context, src driver.ConfigSource) error {
	d.record("load:merge")
	d.LastLoad, d.LastMode = src, "merge"
	return d.Script.LoadErr
}

func (d *Device) LoadReplaceCandidate(ctx context.Context, src driver.ConfigSource) error {
	d.record("load:replace")
	d.LastLoad, d.LastMode = src, "replace"
	return d.Script.LoadErr
}

func (d *Device) CompareConfig(ctx context.Context) (string, error) {
	d.record("compare")
	if d.Script.CompareErr != nil {
		return "", d.Script.CompareErr
	}
	return d.Script.Diff, nil
}

func (d *Device) CommitConfig(ctx context.Context, comment string) error {
	d.record("commit")
	if d.Script.CommitErr != nil {
		return d.Script.CommitErr
	}
	d.Committed = true
	d.CommitMsg = comment
	return nil
}

func (d *Device) DiscardConfig(ctx context.Context) error {
	d.record("discard")
	if d.Script.DiscardErr != nil {
		return d.Script.DiscardErr
	}
	d.Discarded = true
	return nil
}

func (d *Device) Close() error {
	d.record("close")
	d.CloseCount++
	return d.Script.CloseErr
}
