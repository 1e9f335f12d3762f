package db

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config describes how to reach the database.
type Config struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// Path is the SQLite file, or a file: URI for an in-memory database.
	Path string `yaml:"path"`
}

// ConfigFromEnv reads DB_* variables, keeping any value already set on base.
func ConfigFromEnv(base Config) Config {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&base.Driver, "DB_DRIVER")
	set(&base.Host, "DB_HOST")
	set(&base.Port, "DB_PORT")
	set(&base.User, "DB_USER")
	set(&base.Password, "DB_PASSWORD")
	set(&base.Name, "DB_NAME")
	set(&base.Path, "DB_PATH")
	if base.Driver == "" {
		base.Driver = DriverPostgres
	}
	return base
}

// Validate checks that the selected driver has what it needs.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" || c.Name == "" {
			return fmt.Errorf("postgres requires DB_HOST and DB_NAME")
		}
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite requires DB_PATH")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	return nil
}

// findProjectRoot looks for go.mod file to determine project root
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// postgresDSN builds the key/value DSN used by the GORM postgres driver.
func (c Config) postgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

// migrateURL creates the database URL used by golang-migrate.
func (c Config) migrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}
