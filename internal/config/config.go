package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	constants "github.com/padhaiwithai/student-logins/internal/constants"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the student-logins tools.
type Config struct {
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
		Path   string `yaml:"path"` // sqlite database file
	} `yaml:"database"`

	Logins struct {
		HashPasswords bool `yaml:"hash_passwords"`
		BcryptCost    int  `yaml:"bcrypt_cost"`
	} `yaml:"logins"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist) and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Database.Driver = constants.DriverPostgres
	cfg.Database.Path = "students.db"
	cfg.Logins.BcryptCost = bcrypt.DefaultCost
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(constants.STORAGE_DRIVER); ok {
		c.Database.Driver = v
	}
	if v, ok := os.LookupEnv(constants.DATABASE_URL); ok {
		c.Database.URL = v
	}
	if v, ok := os.LookupEnv(constants.SQLITE_PATH); ok {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(constants.HASH_PASSWORDS); ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", constants.HASH_PASSWORDS, err)
		}
		c.Logins.HashPasswords = b
	}
	if v, ok := os.LookupEnv(constants.BCRYPT_COST); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", constants.BCRYPT_COST, err)
		}
		c.Logins.BcryptCost = n
	}
	if v, ok := os.LookupEnv(constants.LOG_LEVEL); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(constants.LOG_FORMAT); ok {
		c.Logging.Format = v
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "", "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// Validate reports the first problem that would stop the tools from running.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case constants.DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database url is required for the %s driver (set %s)", constants.DriverPostgres, constants.DATABASE_URL)
		}
	case constants.DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for the %s driver (set %s)", constants.DriverSQLite, constants.SQLITE_PATH)
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Logins.HashPasswords && (c.Logins.BcryptCost < bcrypt.MinCost || c.Logins.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.Logins.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
