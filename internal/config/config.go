package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite3 or pgx
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// WorkflowConfig holds procurement engine settings
type WorkflowConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

const envPrefix = "PROCUREMENT"

// Load reads an optional .env file, then the YAML file at configPath, then environment overrides.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "data/procurement.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("workflow.default_page_size", 50)
	v.SetDefault("workflow.max_page_size", 500)
}

// bindEnvVars binds credentials that are usually injected by the deployment
func bindEnvVars(v *viper.Viper) error {
	if err := v.BindEnv("database.dsn", "PROCUREMENT_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return fmt.Errorf("failed to bind database dsn: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case "pgx":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for pgx")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite3 or pgx, got %q", c.Database.Driver)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns must be between 0 and max_open_conns")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if c.Workflow.DefaultPageSize <= 0 || c.Workflow.MaxPageSize <= 0 {
		return fmt.Errorf("workflow page sizes must be positive")
	}
	if c.Workflow.DefaultPageSize > c.Workflow.MaxPageSize {
		return fmt.Errorf("workflow.default_page_size cannot exceed workflow.max_page_size")
	}

	return nil
}
