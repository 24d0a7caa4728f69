package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	NATS     NATSConfig     `mapstructure:"nats"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CacheConfig struct {
	// Path is the badger directory. Empty means in-memory.
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

type NATSConfig struct {
	// URL is optional; empty disables event publishing.
	URL string `mapstructure:"url"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type SourcesConfig struct {
	Profile string `mapstructure:"profile"`
}

type PricingConfig struct {
	FreshnessHours int `mapstructure:"freshness_hours"`
}

// Freshness returns the default aggregation window.
func (p PricingConfig) Freshness() time.Duration {
	return time.Duration(p.FreshnessHours) * time.Hour
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PARTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Pricing.FreshnessHours <= 0 {
		return Config{}, errors.New("pricing.freshness_hours must be positive")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("cache_disabled", cfg.Cache.Disabled),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "partspricing")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/parts.sqlite")
	v.SetDefault("cache.path", "data/cache")
	v.SetDefault("cache.disabled", false)
	v.SetDefault("nats.url", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("sources.profile", "configs/sources.toml")
	v.SetDefault("pricing.freshness_hours", 24)
}
