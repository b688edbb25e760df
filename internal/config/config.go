// Package config loads and validates configuration at startup.
//
// Sources, lowest to highest precedence: built-in defaults, an optional YAML
// file (offer-service.yaml), environment variables. Fail-fast: if a required
// value is missing, Load returns an error and the process exits.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/prep"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all runtime configuration for the offer service.
type Config struct {
	Port        string `mapstructure:"port"`
	GRPCPort    string `mapstructure:"grpcPort"`
	Store       string `mapstructure:"store"`
	DatabaseURL string `mapstructure:"databaseURL"`
	RedisURL    string `mapstructure:"redisURL"`
	LogLevel    string `mapstructure:"logLevel"`

	Adzuna    market.AdzunaConfig `mapstructure:"adzuna"`
	Market    MarketConfig        `mapstructure:"market"`
	Gemini    prep.GeminiConfig   `mapstructure:"gemini"`
	RateLimit RateLimitConfig     `mapstructure:"rateLimit"`
	Rescore   RescoreConfig       `mapstructure:"rescore"`
	Tracing   TracingConfig       `mapstructure:"tracing"`
	Vault     VaultConfig         `mapstructure:"vault"`

	// Locations replaces the built-in cost-of-living table when non-empty.
	Locations []compensation.LocationProfile `mapstructure:"locations"`
}

type MarketConfig struct {
	CacheTTL time.Duration          `mapstructure:"cacheTTL"`
	Breaker  market.BreakerSettings `mapstructure:"breaker"`
}

// RateLimitConfig is a per-caller token bucket.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
}

// RescoreConfig schedules the re-evaluation of open offers. Schedule is a
// standard five-field cron spec.
type RescoreConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"serviceName"`
}

// LocationProfiles returns the configured table or the built-in one.
func (c *Config) LocationProfiles() []compensation.LocationProfile {
	if len(c.Locations) > 0 {
		return c.Locations
	}
	return compensation.DefaultLocations()
}

// envBindings maps config keys onto the environment variable names the other
// jobmate services already use.
var envBindings = map[string][]string{
	"port":                        {"OFFER_PORT"},
	"grpcPort":                    {"OFFER_GRPC_PORT"},
	"store":                       {"OFFER_STORE"},
	"databaseURL":                 {"DATABASE_URL"},
	"redisURL":                    {"REDIS_URL"},
	"logLevel":                    {"LOG_LEVEL"},
	"adzuna.appID":                {"ADZUNA_APP_ID"},
	"adzuna.appKey":               {"ADZUNA_APP_KEY"},
	"adzuna.country":              {"ADZUNA_COUNTRY"},
	"gemini.apiKey":               {"GEMINI_API_KEY"},
	"gemini.model":                {"GEMINI_MODEL"},
	"rateLimit.enabled":           {"OFFER_RATE_LIMIT_ENABLED"},
	"rateLimit.requestsPerSecond": {"OFFER_RATE_LIMIT_RPS"},
	"rescore.enabled":             {"OFFER_RESCORE_ENABLED"},
	"rescore.schedule":            {"OFFER_RESCORE_SCHEDULE"},
	"tracing.enabled":             {"OFFER_TRACING_ENABLED"},
	"vault.enabled":               {"VAULT_ENABLED"},
	"vault.address":               {"VAULT_ADDR"},
	"vault.token":                 {"VAULT_TOKEN"},
	"vault.secretPath":            {"OFFER_VAULT_SECRET_PATH"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8085")
	v.SetDefault("grpcPort", "9085")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("logLevel", "info")

	v.SetDefault("adzuna.country", "us")
	v.SetDefault("adzuna.timeout", 15*time.Second)

	v.SetDefault("market.cacheTTL", market.DefaultCacheTTL)
	b := market.DefaultBreakerSettings()
	v.SetDefault("market.breaker.enabled", b.Enabled)
	v.SetDefault("market.breaker.maxRequests", b.MaxRequests)
	v.SetDefault("market.breaker.interval", b.Interval)
	v.SetDefault("market.breaker.timeout", b.Timeout)
	v.SetDefault("market.breaker.minRequests", b.MinRequests)
	v.SetDefault("market.breaker.failureThreshold", b.FailureThreshold)

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.4)
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("gemini.maxRetries", 2)
	v.SetDefault("gemini.retryDelay", time.Second)
	v.SetDefault("gemini.breaker.enabled", true)
	v.SetDefault("gemini.breaker.minRequests", 3)
	v.SetDefault("gemini.breaker.failureThreshold", 0.6)
	v.SetDefault("gemini.breaker.timeout", time.Minute)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerSecond", 5.0)
	v.SetDefault("rateLimit.burst", 20)

	v.SetDefault("rescore.enabled", true)
	v.SetDefault("rescore.schedule", "0 3 * * *")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "offer-service")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mount", "secret")
	v.SetDefault("vault.secretPath", "offer-service")
}

// ─── Loader ──────────────────────────────────────────────────────────────────

// Loader owns the viper instance so the config file can be watched after the
// first Load.
type Loader struct {
	v    *viper.Viper
	mu   sync.Mutex
	file string
}

// NewLoader prepares a loader. file may name an explicit config file; when
// empty, offer-service.yaml is searched for in /etc/jobmate, $HOME/.jobmate
// and the working directory.
func NewLoader(file string) *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OFFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("offer-service")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/jobmate/")
		v.AddConfigPath("$HOME/.jobmate")
		v.AddConfigPath(".")
	}
	return &Loader{v: v}
}

// Viper exposes the underlying instance, e.g. for binding CLI flags.
func (l *Loader) Viper() *viper.Viper { return l.v }

// ConfigFile is the file the last Load read, empty when none was found.
func (l *Loader) ConfigFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file
}

// Load reads the sources and returns a validated Config.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		l.file = l.v.ConfigFileUsed()
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Watch reloads the config file on change and hands every valid result to
// onChange. Invalid edits are logged and ignored. Watch is a no-op when no
// config file was loaded.
func (l *Loader) Watch(log *logging.Logger, onChange func(*Config)) {
	if l.ConfigFile() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		l.mu.Lock()
		cfg, err := l.decode()
		l.mu.Unlock()
		if err != nil {
			log.Warn("config reload rejected", "file", e.Name, "err", err)
			return
		}
		log.Info("config reloaded", "file", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Load is a convenience for a one-shot load without watching.
func Load(file string) (*Config, error) {
	return NewLoader(file).Load()
}

// ─── Validation ──────────────────────────────────────────────────────────────

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required"))
		}
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}

	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rateLimit.requestsPerSecond and rateLimit.burst must be positive"))
	}
	if c.Rescore.Enabled {
		if _, err := cron.ParseStandard(c.Rescore.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("rescore.schedule: %w", err))
		}
	}
	if c.Vault.Enabled && c.Vault.Address == "" {
		errs = append(errs, errors.New("VAULT_ADDR is required when vault is enabled"))
	}

	seen := make(map[string]bool, len(c.Locations))
	for i, p := range c.Locations {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("locations[%d]: name is required", i))
		case seen[name]:
			errs = append(errs, fmt.Errorf("locations[%d]: duplicate name %q", i, p.Name))
		case p.COLIndex <= 0:
			errs = append(errs, fmt.Errorf("locations[%d] %q: colIndex must be positive", i, p.Name))
		case p.TaxRate < 0 || p.TaxRate >= 1:
			errs = append(errs, fmt.Errorf("locations[%d] %q: taxRate must be in [0,1)", i, p.Name))
		}
		seen[name] = true
	}
	return errors.Join(errs...)
}
