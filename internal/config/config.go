// Package config loads and validates miner configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Crawler    CrawlerConfig    `mapstructure:"crawler"`
	Sites      SitesConfig      `mapstructure:"sites"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Progress   ProgressConfig   `mapstructure:"progress"`
	Server     ServerConfig     `mapstructure:"server"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlerConfig governs the fetch pipeline and the run loop.
type CrawlerConfig struct {
	UserAgent         string   `mapstructure:"user_agent"`
	AcceptLanguage    string   `mapstructure:"accept_language"`
	RequestsPerSecond int      `mapstructure:"requests_per_second"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds"`
	MaxRetries        int      `mapstructure:"max_retries"`
	BackoffInitialMs  int      `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs      int      `mapstructure:"backoff_max_ms"`
	JitterMinMs       int      `mapstructure:"jitter_min_ms"`
	JitterMaxMs       int      `mapstructure:"jitter_max_ms"`
	MinBodyBytes      int      `mapstructure:"min_body_bytes"`
	StubMarkers       []string `mapstructure:"stub_markers"`
	ChunkSize         int      `mapstructure:"chunk_size"`
	CooldownSeconds   int      `mapstructure:"cooldown_seconds"`
	MaxPages          int      `mapstructure:"max_pages"`
	PreseedHours      int      `mapstructure:"preseed_hours"`
	RespectRobots     bool     `mapstructure:"respect_robots"`
}

// SitesConfig selects and tunes the boards to crawl.
type SitesConfig struct {
	Pracuj   PracujSiteConfig   `mapstructure:"pracuj"`
	Justjoin JustjoinSiteConfig `mapstructure:"justjoin"`
	// TaxonomyFile points at a JSON skill vocabulary that replaces the
	// built-in one for every adapter.
	TaxonomyFile string `mapstructure:"taxonomy_file"`
}

// PracujSiteConfig tunes the pracuj.pl adapter.
type PracujSiteConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SearchURL string `mapstructure:"search_url"`
}

// JustjoinSiteConfig tunes the justjoin.it adapter.
type JustjoinSiteConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SearchURL string `mapstructure:"search_url"`
	PageSize  int    `mapstructure:"page_size"`
}

// DatabaseConfig controls access to Postgres. An empty DSN runs the miner on
// the in-memory stores.
type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int    `mapstructure:"max_conns"`
	MinConns           int    `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
	Migrate            bool   `mapstructure:"migrate"`
}

// CheckpointConfig selects where resume pages are kept.
type CheckpointConfig struct {
	// Backend is memory, file, or redis.
	Backend  string `mapstructure:"backend"`
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis_url"`
}

// ArchiveConfig controls the raw HTML snapshot sink.
type ArchiveConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// ProgressConfig tunes the event hub and its sinks.
type ProgressConfig struct {
	Enabled       bool        `mapstructure:"enabled"`
	LogEnabled    bool        `mapstructure:"log_enabled"`
	BufferSize    int         `mapstructure:"buffer_size"`
	SinkTimeoutMs int         `mapstructure:"sink_timeout_ms"`
	Batch         BatchConfig `mapstructure:"batch"`
}

// BatchConfig bounds how progress events are grouped before flushing.
type BatchConfig struct {
	MaxEvents int `mapstructure:"max_events"`
	MaxWaitMs int `mapstructure:"max_wait_ms"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// APIKey guards /api routes when set; probes and metrics stay open.
	APIKey                string `mapstructure:"api_key"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// ScheduleConfig drives the cron runner in serve mode.
type ScheduleConfig struct {
	Spec       string `mapstructure:"spec"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBMINER")
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
	v.SetDefault("logging.development", true)
	v.SetDefault("crawler.accept_language", "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("crawler.requests_per_second", 2)
	v.SetDefault("crawler.timeout_seconds", 20)
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.backoff_initial_ms", 500)
	v.SetDefault("crawler.backoff_max_ms", 8000)
	v.SetDefault("crawler.jitter_min_ms", 300)
	v.SetDefault("crawler.jitter_max_ms", 1200)
	v.SetDefault("crawler.chunk_size", 8)
	v.SetDefault("crawler.cooldown_seconds", 3)
	v.SetDefault("crawler.max_pages", 0)
	v.SetDefault("crawler.preseed_hours", 0)
	v.SetDefault("sites.pracuj.enabled", true)
	v.SetDefault("sites.justjoin.enabled", true)
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime_minutes", 30)
	v.SetDefault("database.migrate", true)
	v.SetDefault("checkpoint.backend", "file")
	v.SetDefault("checkpoint.dir", "data/checkpoints")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "data/archive")
	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.log_enabled", true)
	v.SetDefault("progress.buffer_size", 256)
	v.SetDefault("progress.sink_timeout_ms", 2000)
	v.SetDefault("progress.batch.max_events", 32)
	v.SetDefault("progress.batch.max_wait_ms", 500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("schedule.spec", "@every 6h")
	v.SetDefault("schedule.run_on_start", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.RequestsPerSecond <= 0 {
		return fmt.Errorf("crawler.requests_per_second must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.ChunkSize <= 0 {
		return fmt.Errorf("crawler.chunk_size must be > 0")
	}
	switch c.Checkpoint.Backend {
	case "memory":
	case "file":
		if c.Checkpoint.Dir == "" {
			return fmt.Errorf("checkpoint.dir must be set for the file backend")
		}
	case "redis":
		if c.Checkpoint.RedisURL == "" {
			return fmt.Errorf("checkpoint.redis_url must be set for the redis backend")
		}
	default:
		return fmt.Errorf("checkpoint.backend must be memory, file, or redis")
	}
	if c.Archive.Enabled && c.Archive.Dir == "" {
		return fmt.Errorf("archive.dir must be set when the archive is enabled")
	}
	if c.Schedule.Spec == "" {
		return fmt.Errorf("schedule.spec must be set")
	}
	if len(c.EnabledSources()) == 0 {
		return fmt.Errorf("at least one site must be enabled")
	}
	return nil
}

// EnabledSources returns the names of the boards switched on in Sites.
func (c Config) EnabledSources() []string {
	var sources []string
	if c.Sites.Pracuj.Enabled {
		sources = append(sources, "pracuj")
	}
	if c.Sites.Justjoin.Enabled {
		sources = append(sources, "justjoin")
	}
	return sources
}

// Timeout converts the fetch timeout into a duration.
func (c CrawlerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Cooldown converts the between-chunk pause into a duration.
func (c CrawlerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// BackoffInitial converts the first retry delay into a duration.
func (c CrawlerConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the retry delay ceiling into a duration.
func (c CrawlerConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// JitterMin converts the pre-request jitter floor into a duration.
func (c CrawlerConfig) JitterMin() time.Duration {
	return time.Duration(c.JitterMinMs) * time.Millisecond
}

// JitterMax converts the pre-request jitter ceiling into a duration.
func (c CrawlerConfig) JitterMax() time.Duration {
	return time.Duration(c.JitterMaxMs) * time.Millisecond
}

// PreseedWindow converts the dedup preseed horizon into a duration.
func (c CrawlerConfig) PreseedWindow() time.Duration {
	return time.Duration(c.PreseedHours) * time.Hour
}

// MaxConnLifetime converts the pool lifetime into a duration.
func (c DatabaseConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMin) * time.Minute
}

// SinkTimeout converts the per-flush sink budget into a duration.
func (c ProgressConfig) SinkTimeout() time.Duration {
	return time.Duration(c.SinkTimeoutMs) * time.Millisecond
}

// MaxBatchWait converts the flush interval into a duration.
func (c BatchConfig) MaxBatchWait() time.Duration {
	return time.Duration(c.MaxWaitMs) * time.Millisecond
}

// RequestTimeout converts the ops request budget into a duration.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
