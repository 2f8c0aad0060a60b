package internal

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Mail          MailConfig          `mapstructure:"mail"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    OriginsConfig `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// OriginsConfig holds the comma separated CORS origins for each deployment.
type OriginsConfig struct {
	Development string `mapstructure:"development"`
	Production  string `mapstructure:"production"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	BCryptCost     int           `mapstructure:"bcrypt_cost"`
	EmailDomain    string        `mapstructure:"email_domain"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieSameSite string        `mapstructure:"cookie_same_site"`
	AuthRateLimit  string        `mapstructure:"auth_rate_limit"`
	AllocAttempts  int           `mapstructure:"alloc_attempts"`
	// TrustForwardHeader takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets those headers itself.
	TrustForwardHeader bool `mapstructure:"trust_forward_header"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	// Timeout bounds one delivery, connection included.
	Timeout time.Duration `mapstructure:"timeout"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- DEFAULTS -----------------

// Defaults returns the configuration used when a key is not provided.
func Defaults() Config {
	return Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			AllowedOrigins: OriginsConfig{
				Development: "http://localhost:5173",
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			QueryTimeout:    5 * time.Second,
		},
		Security: SecurityConfig{
			TokenTTL:       8 * time.Hour,
			BCryptCost:     12,
			EmailDomain:    "snwareresearch.com",
			CookieName:     "token",
			CookieSameSite: "lax",
			AuthRateLimit:  "20-M",
			AllocAttempts:  2,
		},
		Mail: MailConfig{
			Port:    587,
			Timeout: 15 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// LoadConfigFromEnv builds the configuration from plain environment variables,
// the way containers are deployed.
func LoadConfigFromEnv() *Config {
	cfg := Defaults()
	cfg.Observability.Logging.Format = "json"
	cfg.ApplyEnv()
	return &cfg
}

// ApplyEnv overrides cfg with any of the recognised environment variables that are set.
func (cfg *Config) ApplyEnv() {
	cfg.Env = getEnv("APP_ENV", cfg.Env)

	cfg.Server.Port = getEnvAsInt("PORT", cfg.Server.Port)
	cfg.Server.BaseURL = getEnv("BASE_URL", cfg.Server.BaseURL)
	cfg.Server.AllowedOrigins.Development = getEnv("ALLOWED_ORIGINS_DEVELOPMENT", cfg.Server.AllowedOrigins.Development)
	cfg.Server.AllowedOrigins.Production = getEnv("ALLOWED_ORIGINS_PRODUCTION", cfg.Server.AllowedOrigins.Production)
	cfg.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvAsDuration("HTTP_IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Database.Source = getEnv("DATABASE_URL", cfg.Database.Source)
	cfg.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.QueryTimeout = getEnvAsDuration("DB_QUERY_TIMEOUT", cfg.Database.QueryTimeout)

	cfg.Security.JWTSecret = getEnv("JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Security.TokenTTL = getEnvAsDuration("TOKEN_TTL", cfg.Security.TokenTTL)
	cfg.Security.BCryptCost = getEnvAsInt("BCRYPT_COST", cfg.Security.BCryptCost)
	cfg.Security.EmailDomain = getEnv("EMAIL_DOMAIN", cfg.Security.EmailDomain)
	cfg.Security.CookieSecure = getEnvAsBool("COOKIE_SECURE", cfg.Security.CookieSecure || cfg.Env == EnvProduction)
	cfg.Security.CookieSameSite = getEnv("COOKIE_SAME_SITE", cfg.Security.CookieSameSite)
	cfg.Security.AuthRateLimit = getEnv("AUTH_RATE_LIMIT", cfg.Security.AuthRateLimit)
	cfg.Security.TrustForwardHeader = getEnvAsBool("TRUST_FORWARD_HEADER", cfg.Security.TrustForwardHeader)

	cfg.Mail.Host = getEnv("SMTP_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnvAsInt("SMTP_PORT", cfg.Mail.Port)
	cfg.Mail.Username = getEnv("SMTP_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = getEnv("SMTP_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = getEnv("SMTP_FROM", cfg.Mail.From)
	cfg.Mail.Timeout = getEnvAsDuration("SMTP_TIMEOUT", cfg.Mail.Timeout)
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}

	cfg.Observability.Metrics.Enabled = getEnvAsBool("METRICS_ENABLED", cfg.Observability.Metrics.Enabled)
	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Sprintf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Mail.Validate(c.Env); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	for _, raw := range []string{c.AllowedOrigins.Development, c.AllowedOrigins.Production} {
		for _, origin := range splitOrigins(raw) {
			if origin == "*" {
				return errors.New("wildcard origin cannot be combined with credentialed cookies")
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// OriginsFor returns the allowed CORS origins of the given deployment.
func (c *ServerConfig) OriginsFor(env string) []string {
	if env == EnvProduction {
		return splitOrigins(c.AllowedOrigins.Production)
	}
	return splitOrigins(c.AllowedOrigins.Development)
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.EmailDomain == "" {
		return errors.New("email_domain is required")
	}
	if c.CookieName == "" {
		return errors.New("cookie_name is required")
	}
	if _, err := c.SameSite(); err != nil {
		return err
	}
	if c.SameSiteMode() == http.SameSiteNoneMode && !c.CookieSecure {
		return errors.New("cookie_same_site none requires cookie_secure")
	}
	if c.AllocAttempts < 1 {
		return errors.New("alloc_attempts must be at least 1")
	}
	return nil
}

// SameSite parses the configured cookie SameSite policy.
func (c *SecurityConfig) SameSite() (http.SameSite, error) {
	switch strings.ToLower(c.CookieSameSite) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("invalid cookie_same_site %q", c.CookieSameSite)
	}
}

// SameSiteMode is SameSite with invalid values folded to lax.
func (c *SecurityConfig) SameSiteMode() http.SameSite {
	mode, err := c.SameSite()
	if err != nil {
		return http.SameSiteLaxMode
	}
	return mode
}

func (c *MailConfig) Validate(env string) error {
	if c.Host == "" {
		if env == EnvProduction {
			return errors.New("host is required in production")
		}
		return nil
	}
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	if c.From == "" {
		return errors.New("from is required when host is set")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}
