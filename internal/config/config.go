package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Local storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string    `mapstructure:"env"`        // current application environment (local, dev, production etc)
	LogLevel         string    `mapstructure:"log_level"`  // zap level name, e.g. debug or info
	Timezone         string    `mapstructure:"timezone"`   // default learner calendar (IANA name or UTC offset)
	WebAppURL        string    `mapstructure:"webapp_url"` // Mini App URL offered by /start
	TelegramAPIToken string    `mapstructure:"-"`          // Telegram API token loaded from environment
	Storage          Storage   `mapstructure:"storage"`
	DB               DB        `mapstructure:"database"`
	HTTP             HTTP      `mapstructure:"http"`
	Reminders        Reminders `mapstructure:"reminders"`
}

// Storage configures the progress keys and the local backend.
type Storage struct {
	ProgressKey       string `mapstructure:"progress_key"`
	LegacyProgressKey string `mapstructure:"legacy_progress_key"`
	SettingsKey       string `mapstructure:"settings_key"`
	LocalDriver       string `mapstructure:"local_driver"` // sqlite, file or memory
	SQLitePath        string `mapstructure:"sqlite_path"`
	FileDir           string `mapstructure:"file_dir"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int32         `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// HTTP configures the Mini App API.
type HTTP struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	InitDataMaxAge time.Duration `mapstructure:"init_data_max_age"` // zero disables the age check
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// Reminders configures streak reminders.
type Reminders struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
	Hour    int    `mapstructure:"hour"` // local hour to remind at, -1 for every tick
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := entities.ParseTimezoneLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("parse timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ValidateBot checks what the bot process needs to start.
func (c *Config) ValidateBot() error {
	if c.TelegramAPIToken == "" {
		return fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}
	if c.DB.URL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
	}
	return c.validateCommon()
}

// ValidateCLI checks what ledgerctl needs. Postgres is optional with localOnly.
func (c *Config) ValidateCLI(localOnly bool) error {
	if !localOnly && c.DB.URL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Storage.LocalDriver {
	case DriverSQLite, DriverFile, DriverMemory:
	default:
		return fmt.Errorf("unknown storage.local_driver %q", c.Storage.LocalDriver)
	}

	if c.Reminders.Hour < -1 || c.Reminders.Hour > 23 {
		return fmt.Errorf("reminders.hour must be between -1 and 23, got %d", c.Reminders.Hour)
	}
	return nil
}

// Load reads configuration from .env, config files and environment variables.
// Config files are searched in paths, defaulting to ./config.
func Load(paths ...string) (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Secrets only come from the environment.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("webapp_url", "")

	v.SetDefault("storage.progress_key", "spanish_trainer_progress_v2")
	v.SetDefault("storage.legacy_progress_key", "spanishTrainer.progress.v1")
	v.SetDefault("storage.settings_key", "spanish_trainer_settings_v1")
	v.SetDefault("storage.local_driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "data/trainer.db")
	v.SetDefault("storage.file_dir", "data/progress")

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "5s")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.init_data_max_age", "24h")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.cron", "0 * * * *")
	v.SetDefault("reminders.hour", 19)
}
