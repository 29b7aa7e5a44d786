package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Archive    ArchiveConfig    `yaml:"archive" mapstructure:"archive"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Boundaries BoundariesConfig `yaml:"boundaries" mapstructure:"boundaries"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ArchiveConfig describes the CONTENTdm collection to ingest and how to
// reach it.
type ArchiveConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	APIPath      string `yaml:"api_path" mapstructure:"api_path"`
	Collection   string `yaml:"collection" mapstructure:"collection"`
	IndexPointer string `yaml:"index_pointer" mapstructure:"index_pointer"`

	SourceID    string  `yaml:"source_id" mapstructure:"source_id"`
	SourceName  string  `yaml:"source_name" mapstructure:"source_name"`
	SourceType  string  `yaml:"source_type" mapstructure:"source_type"`
	Reliability float64 `yaml:"reliability" mapstructure:"reliability"`
	Volume      int     `yaml:"volume" mapstructure:"volume"`

	UserAgent          string `yaml:"user_agent" mapstructure:"user_agent"`
	MinDelayMs         int    `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	TimeoutSecs        int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	FetchItemInfo      bool   `yaml:"fetch_item_info" mapstructure:"fetch_item_info"`
}

// MinDelay returns the pause before each archive request.
func (a ArchiveConfig) MinDelay() time.Duration {
	return time.Duration(a.MinDelayMs) * time.Millisecond
}

// Timeout returns the per-request archive timeout.
func (a ArchiveConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BoundariesConfig configures the cached boundaries GeoJSON upstream.
type BoundariesConfig struct {
	URL              string `yaml:"url" mapstructure:"url"`
	TTLHours         int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	RefreshPerMinute int    `yaml:"refresh_per_minute" mapstructure:"refresh_per_minute"`
}

// TTL returns how long a fetched boundaries document stays fresh.
func (b BoundariesConfig) TTL() time.Duration {
	return time.Duration(b.TTLHours) * time.Hour
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WINDWALKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("store.database_url", "WINDWALKER_STORE_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, eris.Wrap(err, "config: bind DATABASE_URL")
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("archive.base_url", "https://dc.library.okstate.edu")
	v.SetDefault("archive.api_path", "/digital/bl/dmwebservices/index.php")
	v.SetDefault("archive.collection", "kapplers")
	v.SetDefault("archive.index_pointer", "29743")
	v.SetDefault("archive.source_id", "kappler")
	v.SetDefault("archive.source_name", "Kappler's Indian Affairs: Laws and Treaties")
	v.SetDefault("archive.source_type", "kappler")
	v.SetDefault("archive.reliability", 0.98)
	v.SetDefault("archive.volume", 2)
	v.SetDefault("archive.user_agent", "Windwalker/0.1.0 (Native Treaty Mapping Initiative)")
	v.SetDefault("archive.min_delay_ms", 500)
	v.SetDefault("archive.timeout_secs", 30)
	v.SetDefault("archive.insecure_skip_verify", true)
	v.SetDefault("archive.fetch_item_info", false)
	v.SetDefault("boundaries.url", "https://d2u5ssx9zi93qh.cloudfront.net/treaties.geojson")
	v.SetDefault("boundaries.ttl_hours", 24)
	v.SetDefault("boundaries.refresh_per_minute", 6)

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

// Validate checks the settings a command mode depends on. Every problem is
// reported, not just the first.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required (set DATABASE_URL)")
		}
	case "sqlite":
		// An empty path falls back to windwalker.db.
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of postgres, sqlite", c.Store.Driver))
	}

	switch mode {
	case "ingest":
		a := c.Archive
		if a.BaseURL == "" || a.Collection == "" || a.IndexPointer == "" {
			errs = append(errs, "archive.base_url, archive.collection and archive.index_pointer are required")
		}
		if a.SourceID == "" {
			errs = append(errs, "archive.source_id is required")
		}
		if a.Reliability < 0 || a.Reliability > 1 {
			errs = append(errs, "archive.reliability must be between 0 and 1")
		}
		if a.MinDelayMs < 0 {
			errs = append(errs, "archive.min_delay_ms must be >= 0")
		}
		if a.TimeoutSecs <= 0 {
			errs = append(errs, "archive.timeout_secs must be > 0")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Boundaries.TTLHours <= 0 {
			errs = append(errs, "boundaries.ttl_hours must be > 0")
		}
		if c.Boundaries.RefreshPerMinute < 0 {
			errs = append(errs, "boundaries.refresh_per_minute must be >= 0")
		}
	case "read":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
