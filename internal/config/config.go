package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application-wide configuration loaded from environment variables.
type Config struct {
	DBHost         string
	DBPort         int
	DBName         string
	DBUser         string
	DBPassword     string
	DBSchema       string
	DBSSLMode      string
	DBQueryTimeout time.Duration

	Host  string
	Port  int
	Debug bool

	AppEnv          string
	SentryDSN       string
	DashboardConfig string
}

var schemaIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateSchema rejects schema names that are not plain identifiers.
func ValidateSchema(schema string) error {
	if !schemaIdentRe.MatchString(schema) {
		return fmt.Errorf("schema %q is not a plain identifier (allowed: [A-Za-z0-9_])", schema)
	}
	return nil
}

// LoadConfig reads configuration from environment variables or a .env file.
// Every setting has a default; only malformed values are rejected.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists. In production these are set directly in the environment.
	_ = godotenv.Load()

	dbPort, err := envInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	port, err := envInt("DASH_PORT", 8050)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("FATAL: DASH_PORT %d out of range", port)
	}

	debug, err := envBool("DASH_DEBUG", false)
	if err != nil {
		return nil, err
	}

	queryTimeout := 15 * time.Second
	if v := strings.TrimSpace(os.Getenv("DB_QUERY_TIMEOUT")); v != "" {
		queryTimeout, err = time.ParseDuration(v)
		if err != nil || queryTimeout <= 0 {
			return nil, fmt.Errorf("FATAL: DB_QUERY_TIMEOUT %q is not a positive duration", v)
		}
	}

	schema := envString("DB_SCHEMA", "agilite")
	if err := ValidateSchema(schema); err != nil {
		return nil, fmt.Errorf("FATAL: DB_SCHEMA: %w", err)
	}

	return &Config{
		DBHost:          envString("DB_HOST", "localhost"),
		DBPort:          dbPort,
		DBName:          envString("DB_NAME", "gis"),
		DBUser:          envString("DB_USER", "postgres"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBSchema:        schema,
		DBSSLMode:       envString("DB_SSLMODE", "disable"),
		DBQueryTimeout:  queryTimeout,
		Host:            envString("DASH_HOST", "0.0.0.0"),
		Port:            port,
		Debug:           debug,
		AppEnv:          envString("APP_ENV", "production"),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		DashboardConfig: envString("DASHBOARD_CONFIG", "configs/dashboard.yaml"),
	}, nil
}

// DatabaseURL builds a URL-encoded postgres connection string.
func (c *Config) DatabaseURL() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", c.DBSSLMode)
	q.Set("application_name", "stockdash")
	u.RawQuery = q.Encode()
	return u.String()
}

// Address is the listen address of the HTTP server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("FATAL: %s must be an integer, got %q", key, v)
	}
	return i, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("FATAL: %s must be a boolean, got %q", key, v)
	}
	return b, nil
}
