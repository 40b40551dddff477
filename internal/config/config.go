// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config implements spec.md §6's configuration schema and
// persisted layout: a per-project YAML file at
// <root>/<project-basename>.jupiter.yaml, a global config at
// ~/.jupiter/global_config.yaml, and a project registry at
// ~/.jupiter/projects.json. Defaulting and idempotent directory creation
// follow internal/bootstrap.InitProject's pattern; loading/saving uses
// gopkg.in/yaml.v3 the way the rest of the ecosystem does.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the C16 API facade.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SecurityConfig configures RBAC tokens and run policy.
type SecurityConfig struct {
	AdminTokens      []string `yaml:"admin_tokens"`
	ViewerTokens     []string `yaml:"viewer_tokens"`
	AllowRun         bool     `yaml:"allow_run"`
	AllowedCommands  []string `yaml:"allowed_commands"`
}

// PerformanceConfig tunes scanner/job-manager concurrency.
type PerformanceConfig struct {
	Workers             int `yaml:"workers"`
	MaxConcurrentJobs   int `yaml:"max_concurrent_jobs"`
	PluginMaxConcurrent int `yaml:"plugin_max_concurrent"`
}

// PluginsConfig gates plugin trust and hot reload.
type PluginsConfig struct {
	TrustMode                string `yaml:"trust_mode"` // strict | permissive | dev
	AllowUnsignedLocalPlugins bool  `yaml:"allow_unsigned_local_plugins"`
}

// CIConfig configures the `ci` verb's pass/fail threshold gating.
type CIConfig struct {
	MaxComplexity      int     `yaml:"max_complexity"`
	MaxDuplicationRatio float64 `yaml:"max_duplication_ratio"`
	FailOnUnused        bool    `yaml:"fail_on_unused"`
}

// LicenseConfig configures the C17 license adapter.
type LicenseConfig struct {
	Endpoint     string `yaml:"endpoint"`
	LicenseKey   string `yaml:"license_key"`
	PollSeconds  int    `yaml:"poll_seconds"`
	GraceSeconds int    `yaml:"grace_seconds"`
}

// Config is the full per-project configuration schema.
type Config struct {
	Server                   ServerConfig      `yaml:"server"`
	Security                 SecurityConfig    `yaml:"security"`
	Performance              PerformanceConfig `yaml:"performance"`
	Plugins                  PluginsConfig     `yaml:"plugins"`
	CI                       CIConfig          `yaml:"ci"`
	License                  LicenseConfig     `yaml:"license"`
	DeveloperMode            bool              `yaml:"developer_mode"`
	AllowUnsignedLocalPlugins bool             `yaml:"allow_unsigned_local_plugins"`
}

// Default returns a Config populated with spec.md §6's defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8787},
		Security: SecurityConfig{
			AllowRun: false, AllowedCommands: []string{},
		},
		Performance: PerformanceConfig{Workers: 8, MaxConcurrentJobs: 10, PluginMaxConcurrent: 3},
		Plugins:     PluginsConfig{TrustMode: "permissive", AllowUnsignedLocalPlugins: false},
		CI:          CIConfig{MaxComplexity: 20, MaxDuplicationRatio: 0.1, FailOnUnused: false},
		License:     LicenseConfig{PollSeconds: 3600, GraceSeconds: 86400},
	}
}

// ProjectConfigPath returns <root>/<basename(root)>.jupiter.yaml.
func ProjectConfigPath(root string) string {
	return filepath.Join(root, filepath.Base(root)+".jupiter.yaml")
}

// GlobalDir returns ~/.jupiter, creating it if missing.
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".jupiter")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// GlobalConfigPath returns ~/.jupiter/global_config.yaml.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "global_config.yaml"), nil
}

// ProjectsRegistryPath returns ~/.jupiter/projects.json.
func ProjectsRegistryPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "projects.json"), nil
}

// Load reads and merges the config at path over Default(); a missing file
// is not an error, matching bootstrap.InitProject's idempotent style.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ProjectEntry is one row of the ~/.jupiter/projects.json registry.
type ProjectEntry struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	RootPathOrURL string `json:"root_path_or_url"`
	ConnectorKind string `json:"connector_kind"`
}

// LoadProjectsRegistry reads the registry file; a missing file returns an
// empty registry rather than an error.
func LoadProjectsRegistry(path string) ([]ProjectEntry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []ProjectEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveProjectsRegistry writes the registry file atomically enough for CLI
// use (direct write; callers invoke this infrequently and serially).
func SaveProjectsRegistry(path string, entries []ProjectEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
