package jobscope

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// SiteConfig holds all configuration for the site. Fields map to environment
// variables (or keys of an optional config.yml) through their mapstructure tags.
type SiteConfig struct {
	Name        string `mapstructure:"SITE_NAME"`        // default "Job Scope India"
	URL         string `mapstructure:"SITE_URL"`         // canonical base URL
	Description string `mapstructure:"SITE_DESCRIPTION"` // default meta description
	Keywords    string `mapstructure:"SITE_KEYWORDS"`    // default meta keywords

	Addr         string `mapstructure:"ADDR"`          // listen address (default ":3000")
	DatabasePath string `mapstructure:"DATABASE_PATH"` // SQLite path (default "data/blog.db")
	RedisURL     string `mapstructure:"REDIS_URL"`     // optional shared post cache

	AdminPIN      string `mapstructure:"ADMIN_PIN"`      // required
	SessionSecret string `mapstructure:"SESSION_SECRET"` // required
	CookieSecure  bool   `mapstructure:"COOKIE_SECURE"`  // set true behind HTTPS

	PostCacheTTL time.Duration `mapstructure:"POST_CACHE_TTL"` // default 5m

	LogLevel      string `mapstructure:"LOG_LEVEL"`      // debug, info, warn, error
	LogFormat     string `mapstructure:"LOG_FORMAT"`     // json or text
	TraceExporter string `mapstructure:"TRACE_EXPORTER"` // "", "stdout" or "otlp"
	OTLPEndpoint  string `mapstructure:"OTLP_ENDPOINT"`
	Env           string `mapstructure:"APP_ENV"` // development or production
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Job Scope India"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Description == "" {
		c.Description = "Career guidance, job market insights and hiring trends for job seekers across India."
	}
	if c.Keywords == "" {
		c.Keywords = "jobs in India, career advice, job search, hiring trends"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "development"
	}
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c SiteConfig) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate checks that required values are present and safe for the environment.
func (c SiteConfig) Validate() error {
	if c.AdminPIN == "" {
		return errors.New("ADMIN_PIN is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if !c.CookieSecure {
			return errors.New("COOKIE_SECURE must be enabled in production")
		}
	}
	switch c.TraceExporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("TRACE_EXPORTER %q is not one of stdout, otlp", c.TraceExporter)
	}
	return nil
}

var configKeys = []string{
	"SITE_NAME", "SITE_URL", "SITE_DESCRIPTION", "SITE_KEYWORDS",
	"ADDR", "DATABASE_PATH", "REDIS_URL",
	"ADMIN_PIN", "SESSION_SECRET", "COOKIE_SECURE",
	"POST_CACHE_TTL", "LOG_LEVEL", "LOG_FORMAT",
	"TRACE_EXPORTER", "OTLP_ENDPOINT", "APP_ENV",
}

// LoadConfig reads config.yml from the given directories (the working
// directory when none are given), overlays environment variables, applies
// defaults and validates the result. A missing config file is not an error.
func LoadConfig(dirs ...string) (SiteConfig, error) {
	v := viper.New()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for _, k := range configKeys {
		if err := v.BindEnv(k); err != nil {
			return SiteConfig{}, fmt.Errorf("bind %s: %w", k, err)
		}
	}
	v.SetDefault("POST_CACHE_TTL", "5m")
	v.SetDefault("COOKIE_SECURE", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and uploads (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the logger built from LOG_LEVEL and LOG_FORMAT.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithContentStore uses s instead of opening the SQLite database.
func WithContentStore(s ContentStore) Option {
	return func(a *App) {
		a.content = s
	}
}

// WithRedisClient uses client for the post cache instead of dialing REDIS_URL.
func WithRedisClient(client *redis.Client) Option {
	return func(a *App) {
		a.redis = client
	}
}
