// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mzansiplatess/plates-cli/internal/hostutil"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	BaseURL        string        `json:"base_url"`
	Timeout        time.Duration `json:"-"`
	ConnectTimeout time.Duration `json:"-"`
	Retries        int           `json:"retries"`
	RateLimit      float64       `json:"rate_limit"`

	// Local state (settings, credentials fallback, shopping list)
	DataDir string `json:"data_dir"`

	// Output settings
	Format string `json:"format"`

	// Behavior preferences (persisted via config set, overridable by flags)
	Stats   *bool `json:"stats,omitempty"`
	Verbose *int  `json:"verbose,omitempty"`

	// Sources tracks where each value came from (for config show).
	Sources map[string]string `json:"-"`

	// Warnings collects problems found while loading, logged once a
	// logger exists.
	Warnings []string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceLocal   Source = "local"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// Defaults.
const (
	DefaultBaseURL        = "http://localhost:3000"
	DefaultTimeout        = 20 * time.Second
	DefaultConnectTimeout = 15 * time.Second
	DefaultRateLimit      = 10
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	BaseURL string
	DataDir string
	Format  string
	Timeout time.Duration
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		RateLimit:      DefaultRateLimit,
		DataDir:        GlobalConfigDir(),
		Format:         "auto",
		Sources:        make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > local > global > system > defaults.
// PLATES_ENV_FILE, when set, names a dotenv file whose variables are added
// to the environment (without replacing ones already set) before the env
// layer is read.
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, systemConfigPath(), SourceSystem)
	loadFromFile(cfg, GlobalConfigPath(), SourceGlobal)
	loadFromFile(cfg, localConfigPath(), SourceLocal)

	if path := os.Getenv("PLATES_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			cfg.warn("could not load env file %s: %v", path, err)
		}
	}
	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no command can work with.
func (cfg *Config) Validate() error {
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https:// (got %q from %s)", cfg.BaseURL, cfg.source("base_url"))
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (from %s)", cfg.source("timeout"))
	}
	if cfg.Retries < 0 || cfg.Retries > 5 {
		return fmt.Errorf("retries must be between 0 and 5 (from %s)", cfg.source("retries"))
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative (from %s)", cfg.source("rate_limit"))
	}
	return nil
}

func (cfg *Config) source(key string) string {
	if s, ok := cfg.Sources[key]; ok {
		return s
	}
	return string(SourceDefault)
}

func (cfg *Config) warn(format string, args ...any) {
	cfg.Warnings = append(cfg.Warnings, fmt.Sprintf(format, args...))
}

func (cfg *Config) set(key string, source Source) {
	cfg.Sources[key] = string(source)
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		cfg.warn("skipping malformed config at %s: %v", path, err)
		return
	}

	// base_url decides where credentials are sent, so a config file dropped
	// into the working directory may not change it.
	if v, ok := fileCfg["base_url"].(string); ok && v != "" {
		if source == SourceLocal {
			cfg.warn("ignoring base_url %q from local config at %s (only global and system config may set it)", v, path)
		} else {
			cfg.BaseURL = v
			cfg.set("base_url", source)
		}
	}
	if v, ok := fileCfg["timeout"].(string); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
			cfg.set("timeout", source)
		} else {
			cfg.warn("ignoring timeout %q in %s: %v", v, path, err)
		}
	}
	if v, ok := fileCfg["connect_timeout"].(string); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ConnectTimeout = d
			cfg.set("connect_timeout", source)
		}
	}
	if v, ok := fileCfg["retries"].(float64); ok && v == float64(int(v)) {
		cfg.Retries = int(v)
		cfg.set("retries", source)
	}
	if v, ok := fileCfg["rate_limit"].(float64); ok {
		cfg.RateLimit = v
		cfg.set("rate_limit", source)
	}
	if v, ok := fileCfg["data_dir"].(string); ok && v != "" {
		cfg.DataDir = expandHome(v)
		cfg.set("data_dir", source)
	}
	if v, ok := fileCfg["format"].(string); ok && v != "" {
		cfg.Format = v
		cfg.set("format", source)
	}
	if v, ok := fileCfg["stats"].(bool); ok {
		cfg.Stats = &v
		cfg.set("stats", source)
	}
	if v, ok := fileCfg["verbose"].(float64); ok {
		iv := int(v)
		if iv >= 0 && iv <= 2 && v == float64(iv) {
			cfg.Verbose = &iv
			cfg.set("verbose", source)
		}
	}
}

// LoadFromEnv loads configuration from PLATES_* environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PLATES_BASE_URL"); v != "" {
		cfg.BaseURL = v
		cfg.set("base_url", SourceEnv)
	}
	if v := os.Getenv("PLATES_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
			cfg.set("timeout", SourceEnv)
		} else {
			cfg.warn("ignoring PLATES_TIMEOUT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("PLATES_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retries = n
			cfg.set("retries", SourceEnv)
		}
	}
	if v := os.Getenv("PLATES_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit = f
			cfg.set("rate_limit", SourceEnv)
		}
	}
	if v := os.Getenv("PLATES_DATA_DIR"); v != "" {
		cfg.DataDir = expandHome(v)
		cfg.set("data_dir", SourceEnv)
	}
	if v := os.Getenv("PLATES_FORMAT"); v != "" {
		cfg.Format = v
		cfg.set("format", SourceEnv)
	}
	if v := os.Getenv("PLATES_STATS"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.Stats = &b
			cfg.set("stats", SourceEnv)
		}
	}
}

// parseEnvBool parses a boolean environment variable strictly.
// Unrecognized values are ignored to preserve three-state pointer semantics.
func parseEnvBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
		cfg.set("base_url", SourceFlag)
	}
	if o.DataDir != "" {
		cfg.DataDir = expandHome(o.DataDir)
		cfg.set("data_dir", SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.set("format", SourceFlag)
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
		cfg.set("timeout", SourceFlag)
	}
}

// Path helpers

func systemConfigPath() string {
	return "/etc/plates/config.json"
}

// GlobalConfigDir returns the per-user directory for config and state.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "plates")
}

// GlobalConfigPath returns the path `config set` writes to.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

func localConfigPath() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".plates", "config.json")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// NormalizeBaseURL ensures consistent URL format: no trailing slash, and a
// scheme on bare hosts such as "localhost:3000".
func NormalizeBaseURL(url string) string {
	return hostutil.BaseURL(url)
}
