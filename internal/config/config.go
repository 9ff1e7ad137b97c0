// Package config provides Viper-based configuration loading for pokestack.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP/HTTP collector host:port.
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	// Insecure disables TLS to the collector.
	Insecure bool `mapstructure:"insecure"`
}

// GameConfig holds game rule settings.
type GameConfig struct {
	// SpeciesDir is a directory of species YAML files; empty uses the embedded table.
	SpeciesDir string `mapstructure:"species_dir"`
	// Seed fixes the random source; 0 seeds from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// LogDraws logs every random draw at debug level.
	LogDraws           bool    `mapstructure:"log_draws"`
	RosterSize         int     `mapstructure:"roster_size"`
	PadPolicy          string  `mapstructure:"pad_policy"`
	CaptureMode        string  `mapstructure:"capture_mode"`
	PokeballTrials     int     `mapstructure:"pokeball_trials"`
	GreatballTrials    int     `mapstructure:"greatball_trials"`
	MoveLimitMeters    float64 `mapstructure:"move_limit_meters"`
	NearbyRadiusMeters float64 `mapstructure:"nearby_radius_meters"`
	// LureRadiusMeters bounds where lured creatures appear around a pokestop.
	LureRadiusMeters float64 `mapstructure:"lure_radius_meters"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTracing(c.Tracing); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case "postgres":
		return nil
	case "sqlite":
		if s.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path must not be empty for the sqlite driver")
		}
		return nil
	}
	return fmt.Errorf("storage.driver must be one of [postgres, sqlite], got %q", s.Driver)
}

func validateTracing(t TracingConfig) error {
	if !t.Enabled {
		return nil
	}
	var errs []string
	if t.Endpoint == "" {
		errs = append(errs, "tracing.endpoint must not be empty when tracing is enabled")
	}
	if t.ServiceName == "" {
		errs = append(errs, "tracing.service_name must not be empty when tracing is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.RosterSize < 1 || g.RosterSize > 6 {
		errs = append(errs, fmt.Sprintf("game.roster_size must be 1-6, got %d", g.RosterSize))
	}
	validPad := map[string]bool{"none": true, "generate_random": true}
	if !validPad[g.PadPolicy] {
		errs = append(errs, fmt.Sprintf("game.pad_policy must be one of [none, generate_random], got %q", g.PadPolicy))
	}
	validCapture := map[string]bool{"throw_all": true, "stop_on_success": true}
	if !validCapture[g.CaptureMode] {
		errs = append(errs, fmt.Sprintf("game.capture_mode must be one of [throw_all, stop_on_success], got %q", g.CaptureMode))
	}
	if g.PokeballTrials < 0 {
		errs = append(errs, fmt.Sprintf("game.pokeball_trials must be >= 0, got %d", g.PokeballTrials))
	}
	if g.GreatballTrials < 0 {
		errs = append(errs, fmt.Sprintf("game.greatball_trials must be >= 0, got %d", g.GreatballTrials))
	}
	if g.MoveLimitMeters <= 0 {
		errs = append(errs, fmt.Sprintf("game.move_limit_meters must be > 0, got %g", g.MoveLimitMeters))
	}
	if g.NearbyRadiusMeters <= 0 {
		errs = append(errs, fmt.Sprintf("game.nearby_radius_meters must be > 0, got %g", g.NearbyRadiusMeters))
	}
	if g.LureRadiusMeters <= 0 {
		errs = append(errs, fmt.Sprintf("game.lure_radius_meters must be > 0, got %g", g.LureRadiusMeters))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with POKESTACK_ prefix
	v.SetEnvPrefix("POKESTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the configuration produced by Load with no file and an
// empty environment.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "pokestack")
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "pokestack.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pokestack")
	v.SetDefault("database.password", "pokestack")
	v.SetDefault("database.name", "pokestack")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("game.species_dir", "")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.log_draws", false)
	v.SetDefault("game.roster_size", 4)
	v.SetDefault("game.pad_policy", "none")
	v.SetDefault("game.capture_mode", "throw_all")
	v.SetDefault("game.pokeball_trials", 10)
	v.SetDefault("game.greatball_trials", 2)
	v.SetDefault("game.move_limit_meters", 50000.0)
	v.SetDefault("game.nearby_radius_meters", 50000.0)
	v.SetDefault("game.lure_radius_meters", 100000.0)
}
