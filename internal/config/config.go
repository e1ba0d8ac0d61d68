package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Coaching backend settings
	BaseURL        string
	InterviewPath  string
	RequestTimeout time.Duration
	UserAgent      string
	HTTPProxy      string
	NoProxy        string

	// Storage settings
	StorageBackend string
	StoragePath    string
	StorageKey     string
	StorageQuota   int64

	// Typing animation
	Typing         bool
	TypingDelay    time.Duration
	TypingInterval time.Duration

	// Interface settings
	Theme    string // auto, dark or light
	Plain    bool
	LogPath  string
	LogLevel string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:8000",
		InterviewPath:  "/api/interview",
		RequestTimeout: 30 * time.Second,
		UserAgent:      "interview-coach/1.0",

		StorageBackend: BackendFile,
		StoragePath:    "",
		StorageKey:     "interview-messages",
		StorageQuota:   5 * 1024 * 1024, // 5 MB, like browser local storage

		Typing:         true,
		TypingDelay:    500 * time.Millisecond,
		TypingInterval: 30 * time.Millisecond,

		Theme:    "auto",
		LogPath:  expandHome("~/.interview-coach/coach.log"),
		LogLevel: "info",
	}
}

// fileConfig mirrors config.toml. Durations are strings such as "30s".
type fileConfig struct {
	Backend struct {
		BaseURL       string `toml:"base_url"`
		InterviewPath string `toml:"interview_path"`
		Timeout       string `toml:"timeout"`
		UserAgent     string `toml:"user_agent"`
		HTTPProxy     string `toml:"http_proxy"`
		NoProxy       string `toml:"no_proxy"`
	} `toml:"backend"`

	Storage struct {
		Backend string `toml:"backend"`
		Path    string `toml:"path"`
		Key     string `toml:"key"`
		Quota   int64  `toml:"quota"`
	} `toml:"storage"`

	Typing struct {
		Enabled  *bool  `toml:"enabled"`
		Delay    string `toml:"delay"`
		Interval string `toml:"interval"`
	} `toml:"typing"`

	UI struct {
		Theme string `toml:"theme"`
		Plain bool   `toml:"plain"`
	} `toml:"ui"`

	Log struct {
		Path  string `toml:"path"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// DefaultConfigPath returns ~/.interview-coach/config.toml
func DefaultConfigPath() string {
	return expandHome("~/.interview-coach/config.toml")
}

// Load builds the configuration: defaults, then the TOML file at path
// (a missing file is fine), then .env and COACH_* environment variables.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}

	// .env is optional, like the backend's
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.BaseURL, fc.Backend.BaseURL)
	setString(&c.InterviewPath, fc.Backend.InterviewPath)
	setString(&c.UserAgent, fc.Backend.UserAgent)
	setString(&c.HTTPProxy, fc.Backend.HTTPProxy)
	setString(&c.NoProxy, fc.Backend.NoProxy)
	if err := setDuration(&c.RequestTimeout, fc.Backend.Timeout, "backend.timeout"); err != nil {
		return err
	}

	setString(&c.StorageBackend, fc.Storage.Backend)
	setString(&c.StoragePath, expandHome(fc.Storage.Path))
	setString(&c.StorageKey, fc.Storage.Key)
	if fc.Storage.Quota != 0 {
		c.StorageQuota = fc.Storage.Quota
	}

	if fc.Typing.Enabled != nil {
		c.Typing = *fc.Typing.Enabled
	}
	if err := setDuration(&c.TypingDelay, fc.Typing.Delay, "typing.delay"); err != nil {
		return err
	}
	if err := setDuration(&c.TypingInterval, fc.Typing.Interval, "typing.interval"); err != nil {
		return err
	}

	setString(&c.Theme, fc.UI.Theme)
	c.Plain = c.Plain || fc.UI.Plain
	setString(&c.LogPath, expandHome(fc.Log.Path))
	setString(&c.LogLevel, fc.Log.Level)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.BaseURL, GetEnv("COACH_BASE_URL"))
	setString(&c.InterviewPath, GetEnv("COACH_INTERVIEW_PATH"))
	setString(&c.HTTPProxy, GetEnv("COACH_HTTP_PROXY"))
	setString(&c.StorageBackend, GetEnv("COACH_STORAGE_BACKEND"))
	setString(&c.StoragePath, expandHome(GetEnv("COACH_STORAGE_PATH")))
	setString(&c.Theme, GetEnv("COACH_THEME"))
	setString(&c.LogPath, expandHome(GetEnv("COACH_LOG_PATH")))
	setString(&c.LogLevel, GetEnv("COACH_LOG_LEVEL"))

	if err := setDuration(&c.RequestTimeout, GetEnv("COACH_TIMEOUT"), "COACH_TIMEOUT"); err != nil {
		return err
	}
	if v := GetEnv("COACH_TYPING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid COACH_TYPING %q: %w", v, err)
		}
		c.Typing = b
	}
	return nil
}

// ResolvedStoragePath returns StoragePath or the backend's default file
func (c *Config) ResolvedStoragePath() string {
	if c.StoragePath != "" {
		return c.StoragePath
	}
	if c.StorageBackend == BackendSQLite {
		return expandHome("~/.interview-coach/storage.db")
	}
	return expandHome("~/.interview-coach/storage.json")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.InterviewPath == "" {
		return fmt.Errorf("interview path cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.StorageBackend != BackendFile && c.StorageBackend != BackendSQLite {
		return fmt.Errorf("storage backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.StorageBackend)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("storage key cannot be empty")
	}
	if c.StorageQuota < 0 {
		return fmt.Errorf("storage quota cannot be negative")
	}
	if c.TypingDelay < 0 || c.TypingInterval <= 0 {
		return fmt.Errorf("typing delay must be >= 0 and interval > 0")
	}
	switch c.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("theme must be auto, dark or light, got %q", c.Theme)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		return filepath.Join(getHomeDir(), path[1:])
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
