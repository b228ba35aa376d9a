// Package settings manages persistent user settings for the confpush CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences.
type Settings struct {
	// DefaultDevOS is the device OS to use when --dev-os is not specified
	DefaultDevOS string `json:"default_dev_os,omitempty"`

	// DefaultTimeout overrides the connection timeout, in seconds
	DefaultTimeout int `json:"default_timeout,omitempty"`

	// AuditLog overrides the default audit log path
	AuditLog string `json:"audit_log,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "confpush_settings.json"
	}
	return filepath.Join(home, ".confpush", "settings.json")
}

// DefaultAuditPath returns the default audit log path.
func DefaultAuditPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "confpush_audit.log"
	}
	return filepath.Join(home, ".confpush", "audit.log")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// GetAuditLog returns the audit log path (with fallback).
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return DefaultAuditPath()
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
