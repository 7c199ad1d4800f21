// Package config loads ppal settings from ppal.yaml, the environment and
// command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/ppal/ppal"
	"github.com/petal-labs/ppal/snapshot"
)

const (
	projectConfigName = "ppal.yaml"
	homeConfigDir     = ".ppal"
	homeConfigName    = "config.yaml"
)

// Environment variables that override file values.
const (
	EnvBaseURL          = "PPAL_BASE_URL"
	EnvTimeout          = "PPAL_TIMEOUT"
	EnvSnapshotDB       = "PPAL_SNAPSHOT_DB"
	EnvSnapshotSchedule = "PPAL_SNAPSHOT_SCHEDULE"
	EnvOTLPEndpoint     = "PPAL_OTLP_ENDPOINT"
)

// File is the ppal.yaml shape.
type File struct {
	BaseURL   string         `yaml:"base_url"`
	Timeout   string         `yaml:"timeout"`
	Snapshots SnapshotConfig `yaml:"snapshots"`
	Telemetry Telemetry      `yaml:"telemetry"`
}

// SnapshotConfig configures snapshot storage and the capture schedule.
type SnapshotConfig struct {
	Path     string `yaml:"path"`
	Schedule string `yaml:"schedule"`
	Keep     int    `yaml:"keep"`
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Config is the resolved configuration.
type Config struct {
	// Source is the file that was loaded, or "" when defaults were used.
	Source    string
	BaseURL   string
	Timeout   time.Duration
	Snapshots SnapshotConfig
	Telemetry Telemetry
}

// Overrides are command-line values; zero fields leave the loaded value.
type Overrides struct {
	BaseURL string
	Timeout time.Duration
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// DiscoverPath resolves the config location with first-match semantics:
// explicitPath, then ./ppal.yaml, then ~/.ppal/config.yaml.
func DiscoverPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve user home: %w", err)
	}
	return DiscoverPathFrom(explicitPath, cwd, homeDir)
}

// DiscoverPathFrom is a testable variant of DiscoverPath.
func DiscoverPathFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, homeConfigDir, homeConfigName))
	}

	for i, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			if i == 0 && strings.TrimSpace(explicitPath) != "" {
				return "", false, fmt.Errorf("config file %q not found", candidate)
			}
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("checking config path %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// Load discovers and loads the config, applying the process environment
// and overrides.
func Load(explicitPath string, overrides Overrides) (Config, error) {
	path, _, err := DiscoverPath(explicitPath)
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path, os.LookupEnv, overrides)
}

// LoadFile loads path ("" for none) and layers lookup and overrides on top.
// ${VAR} references in string values are expanded through lookup.
func LoadFile(path string, lookup LookupFunc, overrides Overrides) (Config, error) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	var file File
	if path != "" {
		var err error
		file, err = readFile(path)
		if err != nil {
			return Config{}, err
		}
	}
	expandFile(&file, lookup)

	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		file.BaseURL = v
	}
	if v, ok := lookup(EnvTimeout); ok && strings.TrimSpace(v) != "" {
		file.Timeout = v
	}
	if v, ok := lookup(EnvSnapshotDB); ok && strings.TrimSpace(v) != "" {
		file.Snapshots.Path = v
	}
	if v, ok := lookup(EnvSnapshotSchedule); ok && strings.TrimSpace(v) != "" {
		file.Snapshots.Schedule = v
	}
	if v, ok := lookup(EnvOTLPEndpoint); ok && strings.TrimSpace(v) != "" {
		file.Telemetry.OTLPEndpoint = v
	}

	cfg := Config{
		Source:    path,
		BaseURL:   strings.TrimSpace(file.BaseURL),
		Snapshots: file.Snapshots,
		Telemetry: file.Telemetry,
	}

	timeout, err := parseTimeout(file.Timeout)
	if err != nil {
		return Config{}, err
	}
	cfg.Timeout = timeout

	if overrides.BaseURL != "" {
		cfg.BaseURL = overrides.BaseURL
	}
	if overrides.Timeout != 0 {
		cfg.Timeout = overrides.Timeout
	}

	if err := cfg.applyDefaults(path); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (File, error) {
	// #nosec G304 -- path resolved from explicit local config discovery.
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return file, nil
}

func expandFile(file *File, lookup LookupFunc) {
	expand := func(value string) string {
		return os.Expand(value, func(key string) string {
			v, _ := lookup(key)
			return v
		})
	}
	file.BaseURL = expand(file.BaseURL)
	file.Timeout = expand(file.Timeout)
	file.Snapshots.Path = expand(file.Snapshots.Path)
	file.Snapshots.Schedule = expand(file.Snapshots.Schedule)
	file.Telemetry.OTLPEndpoint = expand(file.Telemetry.OTLPEndpoint)
	file.Telemetry.ServiceName = expand(file.Telemetry.ServiceName)
}

// parseTimeout accepts a Go duration ("10s", "1m30s") or whole seconds.
func parseTimeout(value string) (time.Duration, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return 0, nil
	}
	if seconds, err := strconv.Atoi(clean); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(clean)
	if err != nil {
		return 0, fmt.Errorf("config: invalid timeout %q: %w", value, err)
	}
	return d, nil
}

func (c *Config) applyDefaults(source string) error {
	if c.BaseURL == "" {
		c.BaseURL = ppal.DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = ppal.DefaultTimeout
	}
	if strings.TrimSpace(c.Snapshots.Schedule) == "" {
		c.Snapshots.Schedule = snapshot.DefaultSchedule
	}

	path, err := resolvePath(c.Snapshots.Path, source)
	if err != nil {
		return err
	}
	if path == "" {
		if path, err = snapshot.DefaultSQLitePath(); err != nil {
			return err
		}
	}
	c.Snapshots.Path = path
	return nil
}

// resolvePath expands a leading "~" and anchors relative paths at the
// directory of the config file that named them.
func resolvePath(p, source string) (string, error) {
	clean := strings.TrimSpace(p)
	if clean == "" {
		return "", nil
	}
	if clean == "~" || strings.HasPrefix(clean, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve user home: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(clean, "~")), nil
	}
	if filepath.IsAbs(clean) || source == "" || strings.HasPrefix(clean, "file:") || clean == ":memory:" {
		return clean, nil
	}
	return filepath.Join(filepath.Dir(source), clean), nil
}

// Validate checks values that do not depend on the network.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	if c.Snapshots.Keep < 0 {
		return fmt.Errorf("config: snapshots.keep must not be negative, got %d", c.Snapshots.Keep)
	}
	if _, err := snapshot.ParseSchedule(c.Snapshots.Schedule); err != nil {
		return fmt.Errorf("config: snapshots.schedule: %w", err)
	}
	return nil
}

// ClientConfig converts c into a ppal.Config.
func (c Config) ClientConfig(logger *slog.Logger, observer ppal.Observer) ppal.Config {
	return ppal.Config{
		BaseURL:  c.BaseURL,
		Timeout:  c.Timeout,
		Logger:   logger,
		Observer: observer,
	}
}
