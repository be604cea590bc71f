package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Filter    FilterConfig    `yaml:"filter" mapstructure:"filter"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Industry  IndustryConfig  `yaml:"industry" mapstructure:"industry"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the durable keyed store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, redis
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr   string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB     int    `yaml:"redis_db" mapstructure:"redis_db"`
}

// SearchConfig holds the web search provider settings.
type SearchConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	EngineID     string `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHrs  int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	ResultCount  int    `yaml:"result_count" mapstructure:"result_count"`
	ProbeTimeout int    `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for the relevance classifier.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FirecrawlConfig holds the managed extraction service settings.
type FirecrawlConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	PollIntervalSecs int    `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollTimeoutSecs  int    `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
}

// ResearchConfig holds the speaker-enrichment research API settings.
type ResearchConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxSpeakers int    `yaml:"max_speakers" mapstructure:"max_speakers"`
}

// NotionConfig holds the optional Notion export sink settings.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	EventDB string `yaml:"event_db" mapstructure:"event_db"`
}

// CacheConfig configures the two-tier cache layer.
type CacheConfig struct {
	MemoryCapacity int `yaml:"memory_capacity" mapstructure:"memory_capacity"`
}

// FilterConfig configures the relevance filter.
type FilterConfig struct {
	BannedHosts []string `yaml:"banned_hosts" mapstructure:"banned_hosts"`
	DropPattern string   `yaml:"drop_pattern" mapstructure:"drop_pattern"`
}

// ExtractConfig configures the extraction pipeline.
type ExtractConfig struct {
	MaxURLs       int `yaml:"max_urls" mapstructure:"max_urls"`
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	HostGapMS     int `yaml:"host_gap_ms" mapstructure:"host_gap_ms"`
	FetchTimeoutS int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	BreakerTrips  int `yaml:"breaker_trips" mapstructure:"breaker_trips"`
	BreakerResetS int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// PipelineConfig configures scoring thresholds.
type PipelineConfig struct {
	ConfidenceFloor float64 `yaml:"confidence_floor" mapstructure:"confidence_floor"`
}

// IndustryConfig seeds query building and heuristic classification.
type IndustryConfig struct {
	BaseQuery     string   `yaml:"base_query" mapstructure:"base_query"`
	IndustryTerms []string `yaml:"industry_terms" mapstructure:"industry_terms"`
	ExcludeTerms  []string `yaml:"exclude_terms" mapstructure:"exclude_terms"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("EVENTCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "event-cli.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.probe_timeout_secs", 5)
	v.SetDefault("search.cache_ttl_hours", 6)
	v.SetDefault("search.result_count", 10)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.batch_size", 5)
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.poll_interval_secs", 2)
	v.SetDefault("firecrawl.poll_timeout_secs", 20)
	v.SetDefault("research.base_url", "https://api.perplexity.ai")
	v.SetDefault("research.model", "sonar")
	v.SetDefault("research.max_speakers", 5)
	v.SetDefault("cache.memory_capacity", 500)
	v.SetDefault("filter.drop_pattern", `(?i)(404|not found|page not found|error|access denied|forbidden|login|sign in)`)
	v.SetDefault("extract.max_urls", 15)
	v.SetDefault("extract.max_concurrent", 4)
	v.SetDefault("extract.host_gap_ms", 250)
	v.SetDefault("extract.fetch_timeout_secs", 15)
	v.SetDefault("extract.breaker_trips", 3)
	v.SetDefault("extract.breaker_reset_secs", 60)
	v.SetDefault("pipeline.confidence_floor", 0.35)
	v.SetDefault("industry.base_query", "industry conference")

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
