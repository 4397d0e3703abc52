package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const PathEnv = "SHIFTCLOCK_CONFIG_PATH"

// Config defines application configuration. Per-user settings (rate,
// currency, idle minutes) live in the profile store, not here.
type Config struct {
	DB   DBConfig   `yaml:"db"`
	Log  LogConfig  `yaml:"log"`
	User UserConfig `yaml:"user"`
	Idle IdleConfig `yaml:"idle"`
}

type DBConfig struct {
	// Path is the SQLite file. Empty means the default under ~/.config.
	Path string `yaml:"path" env:"SHIFTCLOCK_DB_PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"SHIFTCLOCK_LOG_LEVEL"`
	Path  string `yaml:"path" env:"SHIFTCLOCK_LOG_PATH"`
}

type UserConfig struct {
	ID string `yaml:"id" env:"SHIFTCLOCK_USER_ID"`
}

type IdleConfig struct {
	PollSeconds int `yaml:"poll_seconds" env:"SHIFTCLOCK_IDLE_POLL_SECONDS"`
}

func Default() Config {
	return Config{
		Log:  LogConfig{Level: "info"},
		User: UserConfig{ID: "local"},
		Idle: IdleConfig{PollSeconds: 5},
	}
}

// Load reads configuration from defaults, an optional YAML file, an optional
// .env file in the working directory and the environment, in that order.
func Load() (Config, error) {
	path := os.Getenv(PathEnv)
	if path == "" {
		path = DefaultPath()
	}
	return LoadFrom(path, ".env")
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom(path, dotenv string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.User.ID == "" {
		return errors.New("config: user.id must not be empty")
	}
	if c.Idle.PollSeconds < 1 {
		return fmt.Errorf("config: idle.poll_seconds must be at least 1, got %d", c.Idle.PollSeconds)
	}
	return nil
}

// DefaultPath is ~/.config/shiftclock/config.yaml, or empty when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "shiftclock", "config.yaml")
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
