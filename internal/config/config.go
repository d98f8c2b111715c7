package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bazarr-bulk/bb/internal/apperrors"
)

// AppName is used for per-user directories and the User-Agent.
const AppName = "bazarr-bulk"

// Version is overridden at build time with -ldflags.
var Version = "dev"

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
var DefaultUserAgent = AppName + "/" + Version

type Config struct {
	Protocol              string `mapstructure:"protocol"`
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	BaseURL               string `mapstructure:"base_url"` // URL base path when served behind a prefix, e.g. "/bazarr"
	APIKey                string `mapstructure:"api_key"`
	ClientTimeout         string `mapstructure:"client_timeout"` // Go duration string like "30s"
	UserAgent             string `mapstructure:"user_agent"`
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	LogLevel              string `mapstructure:"log_level"`
	Log                   struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"log"`
	Retry struct {
		MaxRetries  int    `mapstructure:"max_retries"`
		Interval    string `mapstructure:"interval"`     // duration or plain seconds
		MaxInterval string `mapstructure:"max_interval"` // defaults to interval + 1s
	} `mapstructure:"retry"`
	Store struct {
		Provider string `mapstructure:"provider"`
		Path     string `mapstructure:"path"`
	} `mapstructure:"store"`
	Cache struct {
		Provider string `mapstructure:"provider"` // "none", "disk" or "redis"
		Dir      string `mapstructure:"dir"`      // disk cache location, next to the ledger when empty
		TTL      string `mapstructure:"ttl"`
		Redis    struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Metrics struct {
		PushgatewayURL string `mapstructure:"pushgateway_url"`
	} `mapstructure:"metrics"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

// flagBindings maps viper keys to the CLI flags that override them.
var flagBindings = map[string]string{
	"retry.max_retries": "max-retries",
	"retry.interval":    "retry-interval",
	"store.path":        "db",
	"store.provider":    "store",
	"log_level":         "log-level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("protocol", "http")
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 6767)
	v.SetDefault("base_url", "")
	v.SetDefault("client_timeout", "30s")
	v.SetDefault("user_agent", "")
	v.SetDefault("proxy_connection_string", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.interval", "10s")
	v.SetDefault("retry.max_interval", "")
	v.SetDefault("store.provider", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("cache.provider", "none")
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("sentry.dsn", "")
}

// Load reads the configuration. path may be empty, in which case config.{json,yaml,toml}
// is searched in the working directory, ./config and the per-user config directory.
// Flags from the given set override file and environment values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppName))
		}
	}

	// Environment variable support
	v.SetEnvPrefix("BB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("log_level", "BB_LOG_LEVEL", "LOG_LEVEL")

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("%w: read config: %v", apperrors.ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", apperrors.ErrInvalidConfig, err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	var problems []string
	proto := strings.ToLower(c.Protocol)
	if proto != "http" && proto != "https" {
		problems = append(problems, fmt.Sprintf("protocol must be http or https, got %q", c.Protocol))
	}
	if strings.TrimSpace(c.Host) == "" {
		problems = append(problems, "host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		problems = append(problems, "api_key is required")
	}
	if c.ProxyConnectionString != "" {
		if err := validateProxy(c.ProxyConnectionString); err != nil {
			problems = append(problems, fmt.Sprintf("proxy_connection_string: %v", err))
		}
	}
	if c.Retry.MaxRetries < 0 {
		problems = append(problems, "retry.max_retries must not be negative")
	}
	switch c.Cache.Provider {
	case "", "none", "disk", "redis":
	default:
		problems = append(problems, fmt.Sprintf("cache.provider must be none, disk or redis, got %q", c.Cache.Provider))
	}
	for name, value := range map[string]string{
		"client_timeout":     c.ClientTimeout,
		"retry.interval":     c.Retry.Interval,
		"retry.max_interval": c.Retry.MaxInterval,
		"cache.ttl":          c.Cache.TTL,
	} {
		if value == "" {
			continue
		}
		if _, err := ParseDuration(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// validateProxy accepts http, https, socks5 and socks5h proxy URLs with a host.
func validateProxy(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// APIURL returns the API root, e.g. http://localhost:6767/bazarr/api.
func (c *Config) APIURL() (*url.URL, error) {
	base := strings.Trim(c.BaseURL, "/")
	path := "/api"
	if base != "" {
		path = "/" + base + "/api"
	}
	u := &url.URL{
		Scheme: strings.ToLower(c.Protocol),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   path,
	}
	if _, err := url.Parse(u.String()); err != nil {
		return nil, fmt.Errorf("%w: base url: %v", apperrors.ErrInvalidConfig, err)
	}
	return u, nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	if d, err := ParseDuration(c.ClientTimeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// RetryBounds returns the minimum and maximum backoff intervals.
func (c *Config) RetryBounds() (time.Duration, time.Duration) {
	minDelay, err := ParseDuration(c.Retry.Interval)
	if err != nil || minDelay <= 0 {
		minDelay = 10 * time.Second
	}
	maxDelay, err := ParseDuration(c.Retry.MaxInterval)
	if err != nil || maxDelay < minDelay {
		maxDelay = minDelay + time.Second
	}
	return minDelay, maxDelay
}

// CacheTTL returns the inventory cache TTL.
func (c *Config) CacheTTL() time.Duration {
	if d, err := ParseDuration(c.Cache.TTL); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

// ParseDuration accepts Go duration strings and bare integers meaning seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
