// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development fallback for JWT_SECRET. Tokens signed
// with it are forgeable by anyone who has read this source file.
const DefaultJWTSecret = "default-secret-key-change-in-production"

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDBConnectTimeout() time.Duration
}

// MigrationConfig controls startup schema migrations.
type MigrationConfig interface {
	DatabaseConfig
	GetMigrationsEnabled() bool
}

// JWTConfig provides token signing settings.
type JWTConfig interface {
	GetJWTSecret() string
	GetJWTIssuer() string
	GetJWTTTL() time.Duration
}

// PasswordConfig provides password hashing settings.
type PasswordConfig interface {
	GetBcryptCost() int
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSOrigins() []string
	GetCORSAllowAll() bool
	GetCORSAllowCreds() bool
	GetRoutePrefixes() []string
}

// AuthConfig provides account policy settings.
type AuthConfig interface {
	GetAllowAdminRegistration() bool
}

// RateLimitConfig provides request budgets for sensitive endpoints.
type RateLimitConfig interface {
	GetAuthRateLimitPerMinute() int
}

// Config holds all application settings.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	DBConnectTimeout       time.Duration
	MigrationsEnabled      bool
	JWTSecret              string
	JWTIssuer              string
	JWTTTL                 time.Duration
	BcryptCost             int
	CORSOrigins            []string
	CORSAllowAll           bool
	CORSAllowCreds         bool
	RoutePrefixes          []string
	AuthRateLimitPerMinute int
	AllowAdminRegistration bool
}

func (c *Config) GetDatabaseURL() string             { return c.DatabaseURL }
func (c *Config) GetDBConnectTimeout() time.Duration { return c.DBConnectTimeout }
func (c *Config) GetMigrationsEnabled() bool         { return c.MigrationsEnabled }
func (c *Config) GetJWTSecret() string               { return c.JWTSecret }
func (c *Config) GetJWTIssuer() string               { return c.JWTIssuer }
func (c *Config) GetJWTTTL() time.Duration           { return c.JWTTTL }
func (c *Config) GetBcryptCost() int                 { return c.BcryptCost }
func (c *Config) GetHTTPAddr() string                { return c.HTTPAddr }
func (c *Config) GetCORSOrigins() []string           { return c.CORSOrigins }
func (c *Config) GetCORSAllowAll() bool              { return c.CORSAllowAll }
func (c *Config) GetCORSAllowCreds() bool            { return c.CORSAllowCreds }
func (c *Config) GetRoutePrefixes() []string         { return c.RoutePrefixes }
func (c *Config) GetAuthRateLimitPerMinute() int     { return c.AuthRateLimitPerMinute }
func (c *Config) GetAllowAdminRegistration() bool    { return c.AllowAdminRegistration }

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsesDefaultJWTSecret reports whether JWT_SECRET was left at its insecure default.
func (c *Config) UsesDefaultJWTSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS",
		"http://localhost:3000,http://127.0.0.1:3000,http://localhost:8000,http://127.0.0.1:8000"))
	corsAllowAll := containsWildcard(corsOrigins)

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DBConnectTimeout:       mustDuration(getEnv("DB_CONNECT_TIMEOUT", "5s")),
		MigrationsEnabled:      strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		JWTSecret:              getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTIssuer:              getEnv("JWT_ISSUER", "staybook"),
		JWTTTL:                 mustDuration(getEnv("JWT_TTL", "3600")),
		BcryptCost:             mustInt(getEnv("BCRYPT_COST", "12")),
		CORSOrigins:            corsOrigins,
		CORSAllowAll:           corsAllowAll,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RoutePrefixes:          splitCSV(getEnv("ROUTE_PREFIXES", "/backend/index.php,/backend")),
		AuthRateLimitPerMinute: mustInt(getEnv("AUTH_RATE_LIMIT_PER_MINUTE", "20")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildDatabaseURL()
	}

	// Self-service admin registration stays open in development only, unless
	// ALLOW_ADMIN_REGISTRATION says otherwise.
	cfg.AllowAdminRegistration = !cfg.IsProduction()
	if raw := getEnv("ALLOW_ADMIN_REGISTRATION", ""); raw != "" {
		cfg.AllowAdminRegistration = strings.EqualFold(raw, "true")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST/DB_NAME/DB_USER are required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.UsesDefaultJWTSecret() {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be a positive duration")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ORIGINS contains *")
	}
	if c.AuthRateLimitPerMinute < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// buildDatabaseURL assembles a postgres URL from discrete DB_* variables.
func buildDatabaseURL() string {
	host := getEnv("DB_HOST", "")
	name := getEnv("DB_NAME", "")
	user := getEnv("DB_USER", "")
	if host == "" || name == "" || user == "" {
		return ""
	}

	query := url.Values{}
	query.Set("sslmode", getEnv("DB_SSLMODE", "disable"))
	if charset := getEnv("DB_CHARSET", "UTF8"); charset != "" {
		query.Set("client_encoding", normalizeCharset(charset))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, getEnv("DB_PASSWORD", "")),
		Host:     host + ":" + getEnv("DB_PORT", "5432"),
		Path:     "/" + name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// normalizeCharset maps MySQL-style charset names onto postgres encodings.
func normalizeCharset(charset string) string {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "utf8", "utf8mb4", "utf-8":
		return "UTF8"
	default:
		return charset
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// mustDuration accepts Go durations ("90m") and bare seconds ("3600").
func mustDuration(value string) time.Duration {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
