package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Config holds the full application configuration. One value is loaded per
// invocation and threaded explicitly into every client and the pipeline;
// nothing reads keys from process-wide state.
type Config struct {
	Apollo     ApolloConfig     `yaml:"apollo" mapstructure:"apollo"`
	Hunter     HunterConfig     `yaml:"hunter" mapstructure:"hunter"`
	HubSpot    HubSpotConfig    `yaml:"hubspot" mapstructure:"hubspot"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	CRM        CRMConfig        `yaml:"crm" mapstructure:"crm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ApolloConfig holds contact search provider settings.
type ApolloConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// HunterConfig holds email verification provider settings.
type HunterConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// HubSpotConfig holds HubSpot CRM settings.
type HubSpotConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// SalesforceConfig holds Salesforce JWT auth settings for the alternate
// CRM sink.
type SalesforceConfig struct {
	ClientID   string  `yaml:"client_id" mapstructure:"client_id"`
	Username   string  `yaml:"username" mapstructure:"username"`
	KeyPath    string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL   string  `yaml:"login_url" mapstructure:"login_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// CRMConfig selects which CRM sink push targets.
type CRMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// AnthropicConfig holds settings for the query translation call.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RetryConfig tunes the retry policy shared by all provider calls.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
}

// PipelineConfig tunes the acquisition run.
type PipelineConfig struct {
	Concurrency        int         `yaml:"concurrency" mapstructure:"concurrency"`
	PushRequiresVerify bool        `yaml:"push_requires_verify" mapstructure:"push_requires_verify"`
	Retry              RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryPolicy builds the resilience policy from the configured knobs.
func (p PipelineConfig) RetryPolicy() resilience.Policy {
	pol := resilience.DefaultPolicy()
	if p.Retry.MaxAttempts > 0 {
		pol.MaxAttempts = p.Retry.MaxAttempts
	}
	if p.Retry.BaseDelayMS > 0 {
		pol.BaseDelay = time.Duration(p.Retry.BaseDelayMS) * time.Millisecond
	}
	if p.Retry.MaxDelayMS > 0 {
		pol.MaxDelay = time.Duration(p.Retry.MaxDelayMS) * time.Millisecond
	}
	return pol
}

// ServerConfig configures the HTTP facade.
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
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so viper knows the keys and picks
	// them up from the environment.
	v.SetDefault("apollo.key", "")
	v.SetDefault("hunter.key", "")
	v.SetDefault("hubspot.key", "")
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api")
	v.SetDefault("apollo.rate_per_sec", 2)
	v.SetDefault("hunter.base_url", "https://api.hunter.io")
	v.SetDefault("hunter.rate_per_sec", 5)
	v.SetDefault("hubspot.base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.rate_per_sec", 5)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_per_sec", 5)
	v.SetDefault("crm.provider", "hubspot")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("pipeline.concurrency", pipeline.DefaultConcurrency)
	v.SetDefault("pipeline.push_requires_verify", false)
	v.SetDefault("pipeline.retry.max_attempts", 3)
	v.SetDefault("pipeline.retry.base_delay_ms", 500)
	v.SetDefault("pipeline.retry.max_delay_ms", 30000)

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
