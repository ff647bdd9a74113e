// internal/config/config.go
//
// This package handles configuration and the .cyanfleet directory structure.
// Every directory the dashboard runs from gets a .cyanfleet/ folder holding
// config.yaml, logs and persisted preferences.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// StateDirName is the name of the directory we create in each project
	StateDirName = ".cyanfleet"
	// TokenEnv holds the SpaceTraders bearer token.
	TokenEnv = "SPACETRADERS_TOKEN"

	defaultBaseURL      = "https://api.spacetraders.io/v2"
	defaultTimeout      = 10 * time.Second
	defaultInterval     = 2 * time.Second
	defaultActionBuffer = 16
	minInterval         = 100 * time.Millisecond
)

// ErrMissingToken is returned by NewConfig when no token is available.
var ErrMissingToken = errors.New("config: " + TokenEnv + " environment variable is not set")

const defaultProjectConfigYAML = `# cyanfleet configuration
version: 1

api:
  base_url: https://api.spacetraders.io/v2
  timeout: 10s

# Pause between two background refresh operations. Changes are picked up
# while the dashboard is running.
sync:
  interval: 2s
  action_buffer: 16

# Local status server exposing /health, /snapshot and /metrics.
status:
  enabled: true
  host: 127.0.0.1
  port: 8766
`

// APIConfig configures the remote client.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig configures the background engine.
type SyncConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ActionBuffer int           `yaml:"action_buffer"`
}

// StatusConfig configures the local status server.
type StatusConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .cyanfleet/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	API     APIConfig    `yaml:"api"`
	Sync    SyncConfig   `yaml:"sync"`
	Status  StatusConfig `yaml:"status"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory cyanfleet was started from
	ProjectDir string

	// StateDir is ProjectDir/.cyanfleet
	StateDir string

	// Token authenticates against the API. It is never written to disk.
	Token string

	Project ProjectConfig
}

// InitStateDir creates the .cyanfleet directory structure in the given
// project directory and writes a default config.yaml if none exists.
//
// Structure created:
// .cyanfleet/
// ├── config.yaml
// ├── logs/         <- cyanfleet.log and journey.log
// └── state/        <- preferences.yaml
func InitStateDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, StateDirName)
	dirs := []string{
		filepath.Join(stateDir, "logs"),
		filepath.Join(stateDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(stateDir, "config.yaml"))
}

// NewConfig loads .env, the token and .cyanfleet/config.yaml.
func NewConfig(projectDir string) (*Config, error) {
	if err := loadDotEnv(projectDir); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(os.Getenv(TokenEnv))
	if token == "" {
		return nil, ErrMissingToken
	}

	cfg := &Config{
		ProjectDir: projectDir,
		StateDir:   filepath.Join(projectDir, StateDirName),
		Token:      token,
		Project:    defaultProjectConfig(),
	}
	project, err := LoadProjectConfig(cfg.ProjectConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.Project = project
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// PreferencesDir returns the path to the state directory
func (c *Config) PreferencesDir() string {
	return filepath.Join(c.StateDir, "state")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// SetSyncInterval updates the refresh interval and persists it.
func (c *Config) SetSyncInterval(d time.Duration) error {
	if d < minInterval {
		return fmt.Errorf("config: sync interval must be at least %s", minInterval)
	}
	c.Project.Sync.Interval = d
	return c.saveProjectConfig()
}

// LoadProjectConfig reads a config file on top of the defaults. A missing
// file yields the defaults.
func LoadProjectConfig(path string) (ProjectConfig, error) {
	parsed := defaultProjectConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return parsed, nil
		}
		return parsed, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return parsed, fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return parsed, fmt.Errorf("config: %w", err)
	}
	return parsed, nil
}

// StatusEnabled reports whether the status server should run.
func (pc ProjectConfig) StatusEnabled() bool {
	return pc.Status.Enabled == nil || *pc.Status.Enabled
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Sync: SyncConfig{
			Interval:     defaultInterval,
			ActionBuffer: defaultActionBuffer,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.API.Timeout <= 0 {
		pc.API.Timeout = defaultTimeout
	}
	if pc.Sync.Interval <= 0 {
		pc.Sync.Interval = defaultInterval
	}
	if pc.Sync.ActionBuffer <= 0 {
		pc.Sync.ActionBuffer = defaultActionBuffer
	}
}

func (pc *ProjectConfig) normalize() {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	if pc.API.BaseURL == "" {
		pc.API.BaseURL = defaultBaseURL
	}
	pc.Status.Host = strings.TrimSpace(pc.Status.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	parsed, err := url.Parse(pc.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL")
	}
	if pc.Sync.Interval < minInterval {
		return fmt.Errorf("sync.interval must be at least %s", minInterval)
	}
	if pc.Status.Port < 0 || pc.Status.Port > 65535 {
		return fmt.Errorf("status.port must be between 0 and 65535")
	}
	return nil
}

func loadDotEnv(projectDir string) error {
	path := filepath.Join(projectDir, ".env")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
