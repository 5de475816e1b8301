// Package config loads and validates rank tracker configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	SERP    SERPConfig    `mapstructure:"serp"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SERPConfig governs how result pages are requested.
type SERPConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	UserAgent         string  `mapstructure:"user_agent"`
	AcceptLanguage    string  `mapstructure:"accept_language"`
	DefaultScope      string  `mapstructure:"default_scope"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// StorageConfig selects where raw result pages are archived. The default
// backend "none" disables archiving.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
	// KeyLength truncates archive object names to this many hex digits.
	// Zero keeps the full SHA-256 digest.
	KeyLength int `mapstructure:"key_length"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory store, optionally seeded from a JSON file.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
	SeedFile string `mapstructure:"seed_file"`
}

// PubSubConfig holds metadata for ranking event notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RANKTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 300)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("serp.base_url", "https://search.naver.com/search.naver")
	v.SetDefault("serp.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("serp.accept_language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("serp.default_scope", string(rank.ScopeIntegrated))
	v.SetDefault("serp.timeout_seconds", 15)
	v.SetDefault("serp.requests_per_second", 0.5)
	v.SetDefault("serp.burst", 1)
	v.SetDefault("storage.backend", "none")
	v.SetDefault("storage.local_dir", "data/serp")
	v.SetDefault("storage.prefix", "serp")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.key_length", 0)
	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.seed_file", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "ranking-checked")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.SERP.TimeoutSeconds <= 0 {
		return fmt.Errorf("serp.timeout_seconds must be > 0")
	}
	if c.SERP.RequestsPerSecond < 0 {
		return fmt.Errorf("serp.requests_per_second must be >= 0")
	}
	if !rank.SearchScope(c.SERP.DefaultScope).Valid() {
		return fmt.Errorf("serp.default_scope %q is not a known search scope", c.SERP.DefaultScope)
	}
	switch c.Storage.Backend {
	case "none", "memory":
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set for the local backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q must be one of none, memory, local, gcs", c.Storage.Backend)
	}
	if c.Storage.KeyLength != 0 && (c.Storage.KeyLength < 8 || c.Storage.KeyLength > 64) {
		return fmt.Errorf("storage.key_length must be 0 or between 8 and 64")
	}
	if c.DB.MinConns < 0 || (c.DB.MaxConns > 0 && c.DB.MinConns > c.DB.MaxConns) {
		return fmt.Errorf("db.min_conns must be between 0 and db.max_conns")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// FetchTimeout converts serp.timeout_seconds into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.SERP.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds a single API request, including whole batches.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
