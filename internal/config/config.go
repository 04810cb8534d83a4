package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName       = "truthlens"
	envPrefix     = "TRUTHLENS"
	configEnvVar  = "TRUTHLENS_CONFIG"
	defaultAPIURL = "http://localhost:8000"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// StorageConfig selects where the session cache and token live
type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "file", "sqlite" or "memory"
	Path    string `yaml:"path,omitempty" mapstructure:"path"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	File  string `yaml:"file,omitempty" mapstructure:"file"`
	Level string `yaml:"level" mapstructure:"level"`
}

// Config holds application configuration
type Config struct {
	APIURL           string        `yaml:"api_url" mapstructure:"api_url"`
	Language         string        `yaml:"language" mapstructure:"language"`
	TimeoutSeconds   int           `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Theme            string        `yaml:"theme" mapstructure:"theme"`
	StanceVocabulary string        `yaml:"stance_vocabulary" mapstructure:"stance_vocabulary"` // "client" or "backend"
	HistoryLimit     int           `yaml:"history_limit" mapstructure:"history_limit"`
	RateLimit        float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 disables
	Storage          StorageConfig `yaml:"storage" mapstructure:"storage"`
	Log              LogConfig     `yaml:"log" mapstructure:"log"`

	path string
}

// Default returns a config populated with default values
func Default() *Config {
	return &Config{
		APIURL:           defaultAPIURL,
		Language:         "en",
		TimeoutSeconds:   30,
		Theme:            "default",
		StanceVocabulary: "client",
		HistoryLimit:     100,
		Storage:          StorageConfig{Backend: BackendFile},
		Log:              LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("language", d.Language)
	v.SetDefault("timeout_seconds", d.TimeoutSeconds)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("stance_vocabulary", d.StanceVocabulary)
	v.SetDefault("history_limit", d.HistoryLimit)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", d.Log.Level)
}

// Load loads configuration from the default config file and environment variables.
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from path, or from the default location when
// path is empty. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// flagKeys maps command-line flags onto config keys
var flagKeys = map[string]string{
	"api-url":  "api_url",
	"language": "language",
	"timeout":  "timeout_seconds",
}

// LoadWithFlags is LoadFrom with command-line overrides. Flags that were set
// explicitly take precedence over the environment and the file.
func LoadWithFlags(path string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = getConfigPath()
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid storage.backend %q (want file, sqlite or memory)", c.Storage.Backend)
	}
	switch c.StanceVocabulary {
	case "client", "backend":
	default:
		return fmt.Errorf("invalid stance_vocabulary %q (want client or backend)", c.StanceVocabulary)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be at least 1, got %d", c.HistoryLimit)
	}
	return nil
}

// Timeout returns the HTTP timeout
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Path returns the config file this config was loaded from
func (c *Config) Path() string {
	if c.path != "" {
		return c.path
	}
	return getConfigPath()
}

// StoragePath resolves the storage location, defaulting next to the config file
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	dir := filepath.Dir(c.Path())
	if c.Storage.Backend == BackendSQLite {
		return filepath.Join(dir, appName+".db")
	}
	return filepath.Join(dir, "store")
}

// LogPath resolves the log file used by the TUI
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(c.Path()), appName+".log")
}

// getConfigPath returns the path to the config file
// Priority: $TRUTHLENS_CONFIG > ~/.config/truthlens/config.yaml
func getConfigPath() string {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		return configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", appName, "config.yaml")
}

func GetConfigDir() (string, error) {
	configPath := getConfigPath()
	if configPath == "" {
		return "", fmt.Errorf("cannot determine config path")
	}
	return filepath.Dir(configPath), nil
}

// EnsureConfigDir ensures the config directory exists
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return configDir, nil
}

// SaveExampleConfig creates an example config file and returns its path.
// An existing file is left untouched.
func SaveExampleConfig() (string, error) {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	example := `# TruthLens Configuration
# Every key can also be set with a TRUTHLENS_ environment variable,
# e.g. TRUTHLENS_API_URL or TRUTHLENS_STORAGE_BACKEND.

# Base URL of the verification API
api_url: "http://localhost:8000"

# Language sent with analysis requests
language: "en"

# HTTP timeout in seconds
timeout_seconds: 30

# Color theme (default, dracula, nord)
theme: "default"

# Evidence stance labels: "client" (supporting/neutral/contradicting)
# or "backend" (SUPPORTS/REFUTES/DISCUSS/UNRELATED)
stance_vocabulary: "client"

# Maximum number of entries kept in the local history mirror
history_limit: 100

# Client-side request rate limit (requests per second, 0 = unlimited)
rate_limit: 0

# Where the session token, current result and local history are kept
storage:
  backend: "file"      # "file", "sqlite" or "memory"
  # path: ""           # defaults next to this file

log:
  level: "info"
  # file: ""           # defaults to truthlens.log next to this file
`

	return configPath, os.WriteFile(configPath, []byte(example), 0600)
}

// Save writes the fields the UI manages, preserving everything else in the file
func (c *Config) Save() error {
	configPath := c.Path()
	if configPath == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	existing := Default()
	if data, err := os.ReadFile(configPath); err == nil {
		_ = yaml.Unmarshal(data, existing)
	}

	existing.Theme = c.Theme
	existing.APIURL = c.APIURL

	data, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# TruthLens Configuration\n\n")
	return os.WriteFile(configPath, append(header, data...), 0600)
}

// YAML renders the effective configuration
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}
