package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/ecopoints/internal/logger"
)

const (
	defaultListenAddr     = "localhost:8000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProd
	defaultDatabaseDSN    = "memory://"
	defaultAccessTokenTTL = 15 * time.Minute
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the ecopoints service will be run
	ListenAddr string

	// Database to connect to: postgres://..., sqlite://<path> or memory://
	DatabaseDSN string

	// Secret key
	// Some internal parts (like signing JWT tokens) uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// YAML file with rewards and devices. Embedded catalog is used if empty
	CatalogPath string

	AccessTokenTTL time.Duration

	// Browser origins allowed to call API
	CORSOrigins []string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		Environment:    defaultEnvironment,
		DatabaseDSN:    defaultDatabaseDSN,
		AccessTokenTTL: defaultAccessTokenTTL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}

	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = strings.Split(value, ",")
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":      setString(&c.ListenAddr),
		"DATABASE_URI":     setString(&c.DatabaseDSN),
		"SECRET_KEY":       setString(&c.SecretKey),
		"LOG_LEVEL":        setString(&c.LogLevel),
		"ENVIRONMENT":      setString(&c.Environment),
		"CATALOG_PATH":     setString(&c.CatalogPath),
		"ACCESS_TOKEN_TTL": setDuration(&c.AccessTokenTTL),
		"CORS_ORIGINS":     setList(&c.CORSOrigins),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("bad %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("ecopoints", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string (postgres://, sqlite://, memory://)")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.CatalogPath, "catalog", "c", c.CatalogPath, "Rewards and devices catalog YAML file")
	fs.DurationVarP(&c.AccessTokenTTL, "access-token-ttl", "t", c.AccessTokenTTL, "Access token lifetime")
	fs.StringSliceVarP(&c.CORSOrigins, "cors-origins", "o", c.CORSOrigins, "Allowed CORS origins")

	return fs.Parse(args)
}

// Validate options that have no sensible default
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return errors.New("secret key is required, generate one with gensecret")
	case c.AccessTokenTTL <= 0:
		return fmt.Errorf("access token ttl must be positive, got %s", c.AccessTokenTTL)
	default:
		return nil
	}
}
