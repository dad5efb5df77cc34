package config

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Curated CuratedConfig `yaml:"curated" mapstructure:"curated"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the two published workbooks. Any http(s), ftp, or
// file URL, or a bare local path, is accepted.
type SourcesConfig struct {
	VerifiedURL     string `yaml:"verified_url" mapstructure:"verified_url" validate:"required"`
	SelfReportedURL string `yaml:"self_reported_url" mapstructure:"self_reported_url" validate:"required"`
}

// CuratedConfig controls the manually maintained verified entries.
type CuratedConfig struct {
	Builtin bool   `yaml:"builtin" mapstructure:"builtin"`
	File    string `yaml:"file" mapstructure:"file"`
}

// FetchConfig configures workbook downloads.
type FetchConfig struct {
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"min=1,max=600"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries" validate:"min=1,max=10"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second" validate:"gt=0"`
	FTPUser       string  `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword   string  `yaml:"ftp_password" mapstructure:"ftp_password"`
}

// StoreConfig configures the workbook cache backend. Driver "none"
// disables caching.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=none sqlite postgres"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	CacheTTLMin int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes" validate:"min=0"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns" validate:"min=0"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns" validate:"min=0"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RefreshSecs    int      `yaml:"refresh_secs" mapstructure:"refresh_secs"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADERBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.verified_url", "https://os-world.github.io/static/data/osworld_verified_results.xlsx")
	v.SetDefault("sources.self_reported_url", "https://os-world.github.io/static/data/self_reported_results.xlsx")
	v.SetDefault("curated.builtin", true)
	v.SetDefault("curated.file", "")
	v.SetDefault("fetch.user_agent", "leaderboard-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_second", 5.0)
	v.SetDefault("fetch.ftp_user", "")
	v.SetDefault("fetch.ftp_password", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leaderboard-cache.db")
	v.SetDefault("store.cache_ttl_minutes", 60)
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.refresh_secs", 300)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks the configuration for the given mode: "cli" for one-shot
// commands, "serve" for the API server, or "cache" for cache maintenance.
func (c *Config) Validate(mode string) error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return eris.Wrap(err, "config: validate")
		}
		for _, fe := range verrs {
			errs = append(errs, fieldMessage(fe))
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); c.Log.Level != "" && err != nil {
		errs = append(errs, "log.level "+c.Log.Level+" is invalid")
	}
	if c.Store.Driver != "none" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.MaxConns > 0 && c.Store.MinConns > c.Store.MaxConns {
		errs = append(errs, "store.min_conns must not exceed store.max_conns")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RefreshSecs <= 0 {
			errs = append(errs, "server.refresh_secs must be > 0")
		}
	case "cache":
		if c.Store.Driver == "none" {
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// fieldMessage renders a validation failure with the config key path.
func fieldMessage(fe validator.FieldError) string {
	key := configKey(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return key + " must be one of " + fe.Param()
	case "min":
		return key + " must be >= " + fe.Param()
	case "max":
		return key + " must be <= " + fe.Param()
	case "gt":
		return key + " must be > " + fe.Param()
	}
	return key + " failed " + fe.Tag()
}

// configKey turns "Config.Fetch.TimeoutSecs" into "fetch.timeout_secs" using
// the mapstructure names.
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, p := range parts {
		if k, ok := keyNames[p]; ok {
			parts[i] = k
		} else {
			parts[i] = strings.ToLower(p)
		}
	}
	return strings.Join(parts, ".")
}

var keyNames = map[string]string{
	"VerifiedURL":     "verified_url",
	"SelfReportedURL": "self_reported_url",
	"TimeoutSecs":     "timeout_secs",
	"MaxRetries":      "max_retries",
	"RatePerSecond":   "rate_per_second",
	"CacheTTLMin":     "cache_ttl_minutes",
	"MaxConns":        "max_conns",
	"MinConns":        "min_conns",
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
