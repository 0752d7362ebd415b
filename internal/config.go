package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAccessTokenDuration  = 15 * time.Minute
	DefaultRefreshTokenDuration = 30 * 24 * time.Hour
	DefaultBCryptCost           = 12
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	TrustProxyHeaders bool          `mapstructure:"trust_proxy_headers"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	Source          string        `mapstructure:"source"`
}

// SecurityConfig holds the token and password settings. Access and refresh
// tokens are signed with separate secrets.
type SecurityConfig struct {
	JWTSecret            string          `mapstructure:"jwt_secret" validate:"required"`
	JWTRefreshSecret     string          `mapstructure:"jwt_refresh_secret" validate:"required"`
	AccessTokenDuration  time.Duration   `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration   `mapstructure:"refresh_token_duration"`
	BCryptCost           int             `mapstructure:"bcrypt_cost" validate:"min=10,max=15"`
	LoginRateLimit       RateLimitConfig `mapstructure:"login_rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds the config from environment variables, for
// container deployments. A set but malformed value is an error rather than a
// silent fallback to the default.
func LoadConfigFromEnv() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		Env: env.String("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              env.Int("PORT", 8080),
			BaseURL:           env.String("BASE_URL", ""),
			AllowedOrigins:    env.String("ALLOWED_ORIGINS", ""),
			ReadHeaderTimeout: env.Duration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       env.Duration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      env.Duration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			OpenAPIPath:       env.String("OPENAPI_PATH", "./api/openapi.yml"),
			TrustProxyHeaders: env.Bool("TRUST_PROXY_HEADERS", false),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: env.Duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			QueryTimeout:    env.Duration("DB_QUERY_TIMEOUT", 5*time.Second),
			Source:          env.String("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			JWTSecret:            env.String("JWT_SECRET", ""),
			JWTRefreshSecret:     env.String("JWT_REFRESH_SECRET", ""),
			AccessTokenDuration:  env.Duration("JWT_EXPIRES_IN", DefaultAccessTokenDuration),
			RefreshTokenDuration: env.Duration("JWT_REFRESH_EXPIRES_IN", DefaultRefreshTokenDuration),
			BCryptCost:           env.Int("BCRYPT_ROUNDS", DefaultBCryptCost),
			LoginRateLimit: RateLimitConfig{
				Enabled: env.Bool("LOGIN_RATE_LIMIT_ENABLED", true),
				RPS:     env.Float("LOGIN_RATE_LIMIT_RPS", 1),
				Burst:   env.Int("LOGIN_RATE_LIMIT_BURST", 5),
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: env.Bool("METRICS_ENABLED", true),
				Path:    env.String("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  env.String("LOG_LEVEL", "info"),
				Format: env.String("LOG_FORMAT", "json"),
			},
		},
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills optional settings left empty by a config file.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}
	if c.Security.AccessTokenDuration == 0 {
		c.Security.AccessTokenDuration = DefaultAccessTokenDuration
	}
	if c.Security.RefreshTokenDuration == 0 {
		c.Security.RefreshTokenDuration = DefaultRefreshTokenDuration
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = DefaultBCryptCost
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

// ----------------- HELPERS -----------------

// envReader reads typed variables and collects parse failures.
type envReader struct {
	errs []error
}

func (e *envReader) String(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func (e *envReader) Int(key string, defaultVal int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return defaultVal
	}
	return n
}

func (e *envReader) Float(key string, defaultVal float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, value))
		return defaultVal
	}
	return f
}

func (e *envReader) Bool(key string, defaultVal bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, value))
		return defaultVal
	}
	return b
}

// Duration accepts Go durations ("15m") and the "<n>d" day form.
func (e *envReader) Duration(key string, defaultVal time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	d, err := ParseDuration(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return d
}

// ParseDuration extends time.ParseDuration with a day suffix, e.g. "30d".
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
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

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.JWTRefreshSecret == "" {
		return errors.New("jwt_refresh_secret is required")
	}
	if c.JWTSecret == c.JWTRefreshSecret {
		return errors.New("jwt_secret and jwt_refresh_secret must differ")
	}
	if c.AccessTokenDuration <= 0 {
		return errors.New("access_token_duration must be positive")
	}
	if c.RefreshTokenDuration < c.AccessTokenDuration {
		return errors.New("refresh_token_duration must be >= access_token_duration")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return fmt.Errorf("bcrypt_cost must be between 10 and 15, got %d", c.BCryptCost)
	}
	if c.LoginRateLimit.Enabled && (c.LoginRateLimit.RPS <= 0 || c.LoginRateLimit.Burst <= 0) {
		return errors.New("login_rate_limit rps and burst must be positive when enabled")
	}
	return nil
}
