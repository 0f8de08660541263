package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/flipscan/appraise/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Anthropic     AnthropicConfig     `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI        OpenAIConfig        `yaml:"openai" mapstructure:"openai"`
	Gemini        GeminiConfig        `yaml:"gemini" mapstructure:"gemini"`
	Perplexity    PerplexityConfig    `yaml:"perplexity" mapstructure:"perplexity"`
	Ebay          EbayConfig          `yaml:"ebay" mapstructure:"ebay"`
	Keepa         KeepaConfig         `yaml:"keepa" mapstructure:"keepa"`
	PriceCharting PriceChartingConfig `yaml:"pricecharting" mapstructure:"pricecharting"`
	UPCItemDB     UPCItemDBConfig     `yaml:"upcitemdb" mapstructure:"upcitemdb"`
	PSACard       PSACardConfig       `yaml:"psacard" mapstructure:"psacard"`
	Sources       SourcesConfig       `yaml:"sources" mapstructure:"sources"`
	Pipeline      PipelineConfig      `yaml:"pipeline" mapstructure:"pipeline"`
	Pricing       cost.Rates          `yaml:"pricing" mapstructure:"pricing"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the appraisal history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// EbayConfig holds eBay Browse API settings.
type EbayConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// KeepaConfig holds Keepa API settings.
type KeepaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PriceChartingConfig holds PriceCharting API settings.
type PriceChartingConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// UPCItemDBConfig holds UPCItemDB API settings.
type UPCItemDBConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PSACardConfig holds PSA cert verification API settings.
type PSACardConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SourcesConfig configures market-data source selection and limits.
// TimeoutOverrideSecs keys are source ids; slow sources such as keepa
// can be given a longer box than the default without widening it for
// everyone.
type SourcesConfig struct {
	CatalogPath         string         `yaml:"catalog_path" mapstructure:"catalog_path"`
	TimeoutSecs         int            `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	TimeoutOverrideSecs map[string]int `yaml:"timeout_override_secs" mapstructure:"timeout_override_secs"`
	RateLimitPerSec     float64        `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	RateBurst           int            `yaml:"rate_burst" mapstructure:"rate_burst"`
	RetryMaxAttempts    int            `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	BreakerFailures     int            `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs    int            `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// PipelineConfig configures stage timeouts and the fallback decision split.
type PipelineConfig struct {
	IdentifyTimeoutSecs int     `yaml:"identify_timeout_secs" mapstructure:"identify_timeout_secs"`
	ReasonTimeoutSecs   int     `yaml:"reason_timeout_secs" mapstructure:"reason_timeout_secs"`
	FallbackBuyFloor    float64 `yaml:"fallback_buy_floor" mapstructure:"fallback_buy_floor"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("APPRAISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so viper binds their
	// environment variables during Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "appraise.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("perplexity.key", "")
	v.SetDefault("ebay.key", "")
	v.SetDefault("keepa.key", "")
	v.SetDefault("pricecharting.key", "")
	v.SetDefault("upcitemdb.key", "")
	v.SetDefault("psacard.token", "")
	v.SetDefault("sources.catalog_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("ebay.base_url", "https://api.ebay.com/buy/browse/v1")
	v.SetDefault("keepa.base_url", "https://api.keepa.com")
	v.SetDefault("pricecharting.base_url", "https://www.pricecharting.com/api")
	v.SetDefault("upcitemdb.base_url", "https://api.upcitemdb.com/prod/trial")
	v.SetDefault("psacard.base_url", "https://api.psacard.com/publicapi")
	v.SetDefault("sources.timeout_secs", 5)
	v.SetDefault("sources.rate_limit_per_sec", 5)
	v.SetDefault("sources.rate_burst", 5)
	v.SetDefault("sources.retry_max_attempts", 2)
	v.SetDefault("sources.breaker_failures", 5)
	v.SetDefault("sources.breaker_reset_secs", 30)
	v.SetDefault("pipeline.identify_timeout_secs", 8)
	v.SetDefault("pipeline.reason_timeout_secs", 20)
	v.SetDefault("pipeline.fallback_buy_floor", 25.0)
	v.SetDefault("pricing.perplexity.per_query", 0.005)

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
