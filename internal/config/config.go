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
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Images    ImageConfig     `yaml:"images" mapstructure:"images"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Schema    SchemaConfig    `yaml:"schema" mapstructure:"schema"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the validation store backend.
type StoreConfig struct {
	// Driver is jsonl (default), sqlite or postgres.
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Dir is the JSONL store root.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// DatabaseURL is the sqlite path or postgres connection string.
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for the transcription
// step.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	Model        string `yaml:"model" mapstructure:"model"`
	MaxTokens    int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxBatchSize int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`
	UploadLimit  int    `yaml:"upload_limit" mapstructure:"upload_limit"`
}

// ImageConfig configures page image preprocessing before LLM calls.
type ImageConfig struct {
	MaxDim         int     `yaml:"max_dim" mapstructure:"max_dim"`
	ContrastFactor float64 `yaml:"contrast_factor" mapstructure:"contrast_factor"`
	OutputFormat   string  `yaml:"output_format" mapstructure:"output_format"`
}

// FetchConfig configures scan archive downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ReportConfig holds aggregation report defaults.
type ReportConfig struct {
	MinN int `yaml:"min_n" mapstructure:"min_n"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// SchemaConfig points at an optional page schema override.
type SchemaConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("JOURNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "jsonl")
	v.SetDefault("store.dir", "validations")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.max_batch_size", 100)
	v.SetDefault("anthropic.upload_limit", 8)
	v.SetDefault("images.max_dim", 3000)
	v.SetDefault("images.contrast_factor", 1.1)
	v.SetDefault("images.output_format", "png")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.user_agent", "journal-cli/1.0")
	v.SetDefault("report.min_n", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
