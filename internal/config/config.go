package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SessionBackendFile     = "file"
	SessionBackendPostgres = "postgres"
)

type Config struct {
	ResyAPIKey    string `yaml:"resy_api_key"`
	ResyAuthToken string `yaml:"resy_auth_token"`
	APIBaseURL    string `yaml:"api_base_url"`
	SiteURL       string `yaml:"site_url"`

	// venue search defaults
	Location         string `yaml:"location"`
	Lat              string `yaml:"lat"`
	Lng              string `yaml:"lng"`
	Timezone         string `yaml:"timezone"`
	DefaultPartySize int    `yaml:"default_party_size"`

	// session persistence
	SessionBackend  string `yaml:"session_backend"`
	SessionFile     string `yaml:"session_file"`
	DatabaseURL     string `yaml:"database_url"`
	SessionHashKey  []byte `yaml:"-"`
	SessionBlockKey []byte `yaml:"-"`
	// SessionPassphrase derives both keys when they are not given explicitly.
	SessionPassphrase string `yaml:"-"`

	// browser
	Headless   bool   `yaml:"headless"`
	BrowserBin string `yaml:"browser_bin"`

	// bounded waits
	PageLoadTimeout time.Duration `yaml:"page_load_timeout"`
	SlotTimeout     time.Duration `yaml:"slot_timeout"`
	StepTimeout     time.Duration `yaml:"step_timeout"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
	LoginTimeout    time.Duration `yaml:"login_timeout"`

	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		APIBaseURL:       "https://api.resy.com",
		SiteURL:          "https://resy.com",
		Location:         "orlando-fl",
		Lat:              "28.538300",
		Lng:              "-81.379200",
		Timezone:         "America/New_York",
		DefaultPartySize: 2,
		SessionBackend:   SessionBackendFile,
		SessionFile:      "auth.json",
		PageLoadTimeout:  30 * time.Second,
		SlotTimeout:      10 * time.Second,
		StepTimeout:      10 * time.Second,
		SettleDelay:      2 * time.Second,
		LoginTimeout:     5 * time.Minute,
		LogFormat:        "text",
		LogLevel:         "info",
	}
}

// FromEnv builds the config from defaults, then the YAML file named by
// RESY_CONFIG (if any), then environment variables.
func FromEnv() (Config, error) {
	cfg := Defaults()
	if path := getenv("RESY_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	setString(&cfg.ResyAPIKey, "RESY_API_KEY")
	setString(&cfg.ResyAuthToken, "RESY_AUTH_TOKEN")
	setString(&cfg.APIBaseURL, "RESY_API_BASE_URL")
	setString(&cfg.SiteURL, "RESY_SITE_URL")
	setString(&cfg.Location, "RESY_LOCATION")
	setString(&cfg.Lat, "RESY_LAT")
	setString(&cfg.Lng, "RESY_LNG")
	setString(&cfg.Timezone, "RESY_TIMEZONE")
	setString(&cfg.SessionBackend, "SESSION_BACKEND")
	setString(&cfg.SessionFile, "SESSION_FILE")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.BrowserBin, "BROWSER_BIN")
	setString(&cfg.SessionPassphrase, "SESSION_PASSPHRASE")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	var invalid []string
	if v := getenv("DEFAULT_PARTY_SIZE", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			invalid = append(invalid, "DEFAULT_PARTY_SIZE")
		} else {
			cfg.DefaultPartySize = n
		}
	}
	if v := getenv("HEADLESS", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "HEADLESS")
		} else {
			cfg.Headless = b
		}
	}
	for k, dst := range map[string]*time.Duration{
		"PAGE_LOAD_TIMEOUT": &cfg.PageLoadTimeout,
		"SLOT_TIMEOUT":      &cfg.SlotTimeout,
		"STEP_TIMEOUT":      &cfg.StepTimeout,
		"SETTLE_DELAY":      &cfg.SettleDelay,
		"LOGIN_TIMEOUT":     &cfg.LoginTimeout,
	} {
		v := getenv(k, "")
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		// the settle delay may be zero; every wait bound must be positive
		if err != nil || d < 0 || (d == 0 && k != "SETTLE_DELAY") {
			invalid = append(invalid, k)
			continue
		}
		*dst = d
	}

	hashKey := getenv("SESSION_HASH_KEY", "")
	blockKey := getenv("SESSION_BLOCK_KEY", "")
	if hashKey != "" {
		b, err := decodeB64(hashKey)
		if err != nil {
			return Config{}, fmt.Errorf("SESSION_HASH_KEY: %w", err)
		}
		cfg.SessionHashKey = b
	}
	if blockKey != "" {
		b, err := decodeB64(blockKey)
		if err != nil {
			return Config{}, fmt.Errorf("SESSION_BLOCK_KEY: %w", err)
		}
		cfg.SessionBlockKey = b
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid values for: %s", strings.Join(invalid, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field rules.
func (c Config) Validate() error {
	if c.ResyAPIKey == "" || c.ResyAuthToken == "" {
		return fmt.Errorf("RESY_API_KEY and RESY_AUTH_TOKEN are required")
	}
	switch c.SessionBackend {
	case SessionBackendFile:
		if c.SessionFile == "" {
			return fmt.Errorf("SESSION_FILE required for file session backend")
		}
	case SessionBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL required for postgres session backend")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	for name, d := range map[string]time.Duration{
		"PAGE_LOAD_TIMEOUT": c.PageLoadTimeout,
		"SLOT_TIMEOUT":      c.SlotTimeout,
		"STEP_TIMEOUT":      c.StepTimeout,
		"LOGIN_TIMEOUT":     c.LoginTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("SETTLE_DELAY must not be negative")
	}
	if len(c.SessionBlockKey) > 0 && len(c.SessionHashKey) == 0 {
		return fmt.Errorf("SESSION_BLOCK_KEY requires SESSION_HASH_KEY")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid RESY_TIMEZONE: %w", err)
	}
	return nil
}

// TimeLocation returns the venue timezone, falling back to UTC.
func (c Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func decodeB64(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		// allow pointing to file path for secret mounts
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func setString(dst *string, k string) {
	if v := getenv(k, ""); v != "" {
		*dst = v
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
