package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type StoreConfig struct {
	Mode string `toml:"mode"` // local or remote
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite or postgres
	DSN    string `toml:"dsn"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

type RulesConfig struct {
	MinSession string `toml:"min_session"`
	MaxSession string `toml:"max_session"`
}

type Config struct {
	EmployeeID string `toml:"employee_id"`
	Timezone   string `toml:"timezone"`
	LogLevel   string `toml:"log_level"`

	Store    StoreConfig    `toml:"store"`
	Database DatabaseConfig `toml:"database"`
	API      APIConfig      `toml:"api"`
	Server   ServerConfig   `toml:"server"`
	Rules    RulesConfig    `toml:"rules"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Timezone: "Local",
		LogLevel: "info",
		Store:    StoreConfig{Mode: ModeLocal},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: filepath.Join("~", ".punch", "punch.db")},
		API:      APIConfig{BaseURL: "http://localhost:8080/api", Timeout: "25s"},
		Server:   ServerConfig{Listen: ":8080"},
		Rules:    RulesConfig{MinSession: "1m", MaxSession: "24h"},
	}
}

// DefaultPath is ~/.punch/config.toml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".punch", "config.toml"), nil
}

// Load reads path (a missing file means defaults), then .env, then PUNCH_* variables
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadBytes decodes TOML over the defaults and applies environment overrides
func LoadBytes(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.SetDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"PUNCH_EMPLOYEE_ID": &c.EmployeeID,
		"PUNCH_TIMEZONE":    &c.Timezone,
		"PUNCH_LOG_LEVEL":   &c.LogLevel,
		"PUNCH_STORE":       &c.Store.Mode,
		"PUNCH_DB_DRIVER":   &c.Database.Driver,
		"PUNCH_DB_DSN":      &c.Database.DSN,
		"PUNCH_API_URL":     &c.API.BaseURL,
		"PUNCH_LISTEN":      &c.Server.Listen,
	}
	for key, field := range overrides {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			*field = val
		}
	}
}

// SetDefault fills fields left empty by the file
func (c *Config) SetDefault() {
	d := Default()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Store.Mode == "" {
		c.Store.Mode = d.Store.Mode
	}
	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = d.Database.DSN
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = d.API.Timeout
	}
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Rules.MinSession == "" {
		c.Rules.MinSession = d.Rules.MinSession
	}
	if c.Rules.MaxSession == "" {
		c.Rules.MaxSession = d.Rules.MaxSession
	}
	c.Store.Mode = strings.ToLower(c.Store.Mode)
	c.Database.Driver = strings.ToLower(c.Database.Driver)
}

func (c *Config) Validate() error {
	switch c.Store.Mode {
	case ModeLocal, ModeRemote:
	default:
		return fmt.Errorf("store.mode must be %q or %q, got %q", ModeLocal, ModeRemote, c.Store.Mode)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	minSession, err := c.MinSession()
	if err != nil {
		return err
	}
	maxSession, err := c.MaxSession()
	if err != nil {
		return err
	}
	if minSession >= maxSession {
		return fmt.Errorf("rules.min_session %s must be shorter than rules.max_session %s", minSession, maxSession)
	}
	if _, err := c.APITimeout(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; "Local" and "" mean the system zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) MinSession() (time.Duration, error) {
	return parseDuration("rules.min_session", c.Rules.MinSession)
}

func (c *Config) MaxSession() (time.Duration, error) {
	return parseDuration("rules.max_session", c.Rules.MaxSession)
}

func (c *Config) APITimeout() (time.Duration, error) {
	return parseDuration("api.timeout", c.API.Timeout)
}

func (c *Config) Remote() bool {
	return c.Store.Mode == ModeRemote
}

// DatabasePath expands a leading ~ in the sqlite DSN
func (c *Config) DatabasePath() (string, error) {
	dsn := c.Database.DSN
	if c.Database.Driver != DriverSQLite || !strings.HasPrefix(dsn, "~") {
		return dsn, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dsn, "~")), nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, s)
	}
	return d, nil
}
