package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/relief-match/internal/cost"
	"github.com/sells-group/relief-match/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Signals   SignalsConfig   `yaml:"signals" mapstructure:"signals"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DirectoryConfig holds the nonprofit directory API settings.
type DirectoryConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SearchTake    int     `yaml:"search_take" mapstructure:"search_take"`
	BrowseTake    int     `yaml:"browse_take" mapstructure:"browse_take"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
}

// RetryConfig is the retry block for directory calls.
type RetryConfig = resilience.RetrySettings

// CircuitConfig is the circuit breaker block for directory calls.
type CircuitConfig = resilience.CircuitSettings

// CacheConfig configures the in-process caches.
type CacheConfig struct {
	ResultTTLMins  int `yaml:"result_ttl_mins" mapstructure:"result_ttl_mins"`
	ListTTLHours   int `yaml:"list_ttl_hours" mapstructure:"list_ttl_hours"`
	DetailTTLHours int `yaml:"detail_ttl_hours" mapstructure:"detail_ttl_hours"`
	ResultSize     int `yaml:"result_size" mapstructure:"result_size"`
	DirectorySize  int `yaml:"directory_size" mapstructure:"directory_size"`
	SignalsSize    int `yaml:"signals_size" mapstructure:"signals_size"`
}

// PipelineConfig configures generation, ranking and enrichment.
type PipelineConfig struct {
	TopN                int `yaml:"top_n" mapstructure:"top_n"`
	PoolCap             int `yaml:"pool_cap" mapstructure:"pool_cap"`
	GenerateConcurrency int `yaml:"generate_concurrency" mapstructure:"generate_concurrency"`
	EnrichConcurrency   int `yaml:"enrich_concurrency" mapstructure:"enrich_concurrency"`
	LookupConcurrency   int `yaml:"lookup_concurrency" mapstructure:"lookup_concurrency"`
	LookupTimeoutSecs   int `yaml:"lookup_timeout_secs" mapstructure:"lookup_timeout_secs"`
	DiversityCap        int `yaml:"diversity_cap" mapstructure:"diversity_cap"`
}

// SignalsConfig points at the static trust and vetting file.
type SignalsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// PricingConfig holds per-call directory pricing.
type PricingConfig = cost.Rates

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
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
	v.SetEnvPrefix("RELIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("directory.key", "")
	v.SetDefault("directory.base_url", "https://partners.every.org")
	v.SetDefault("directory.timeout_secs", 10)
	v.SetDefault("directory.search_take", 50)
	v.SetDefault("directory.browse_take", 50)
	v.SetDefault("directory.rate_per_second", 10)
	v.SetDefault("directory.burst", 10)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 250)
	v.SetDefault("retry.max_backoff_ms", 4000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("cache.result_ttl_mins", 60)
	v.SetDefault("cache.list_ttl_hours", 6)
	v.SetDefault("cache.detail_ttl_hours", 24)
	v.SetDefault("cache.result_size", 500)
	v.SetDefault("cache.directory_size", 2000)
	v.SetDefault("cache.signals_size", 5000)
	v.SetDefault("pipeline.top_n", 10)
	v.SetDefault("pipeline.pool_cap", 200)
	v.SetDefault("pipeline.generate_concurrency", 8)
	v.SetDefault("pipeline.enrich_concurrency", 5)
	v.SetDefault("pipeline.lookup_concurrency", 8)
	v.SetDefault("pipeline.lookup_timeout_secs", 10)
	v.SetDefault("pipeline.diversity_cap", 2)
	v.SetDefault("signals.file", "")
	v.SetDefault("pricing.directory.per_search", 0.0005)
	v.SetDefault("pricing.directory.per_browse", 0.0005)
	v.SetDefault("pricing.directory.per_detail", 0.0002)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 15)
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

// Validate checks the settings a command mode depends on. mode is
// "recommend" or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string
	switch mode {
	case "recommend":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if strings.TrimSpace(c.Directory.Key) == "" {
		problems = append(problems, "directory.key is required")
	}
	if c.Directory.RatePerSecond <= 0 {
		problems = append(problems, "directory.rate_per_second must be > 0")
	}
	if c.Pipeline.TopN < 1 || c.Pipeline.TopN > 100 {
		problems = append(problems, "pipeline.top_n must be between 1 and 100")
	}
	if c.Pipeline.EnrichConcurrency < 1 || c.Pipeline.EnrichConcurrency > 20 {
		problems = append(problems, "pipeline.enrich_concurrency must be between 1 and 20")
	}
	if c.Pipeline.GenerateConcurrency < 1 || c.Pipeline.GenerateConcurrency > 32 {
		problems = append(problems, "pipeline.generate_concurrency must be between 1 and 32")
	}
	p := c.Pricing.Directory
	if p.PerSearch < 0 || p.PerBrowse < 0 || p.PerDetail < 0 {
		problems = append(problems, "pricing.directory values must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
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
