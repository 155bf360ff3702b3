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
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Payers PayerConfig  `yaml:"payers" mapstructure:"payers"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// EngineConfig configures one analysis run: dimensions to aggregate over,
// ranking knobs, and the rule set to apply.
type EngineConfig struct {
	Dimensions       []string `yaml:"dimensions" mapstructure:"dimensions"`
	TopK             int      `yaml:"top_k" mapstructure:"top_k"`
	MinVolume        int      `yaml:"min_volume" mapstructure:"min_volume"`
	WeightDenialRate float64  `yaml:"weight_denial_rate" mapstructure:"weight_denial_rate"`
	WeightCount      float64  `yaml:"weight_count" mapstructure:"weight_count"`
	WeightAmount     float64  `yaml:"weight_amount" mapstructure:"weight_amount"`
	RuleSetVersion   string   `yaml:"rule_set_version" mapstructure:"rule_set_version"`
	RulesPath        string   `yaml:"rules_path" mapstructure:"rules_path"`
}

// PayerConfig holds timely-filing windows per payer. Payer ids are matched
// case-insensitively against the normalized records.
type PayerConfig struct {
	DefaultFilingWindowDays int            `yaml:"default_filing_window_days" mapstructure:"default_filing_window_days"`
	FilingWindowDays        map[string]int `yaml:"filing_window_days" mapstructure:"filing_window_days"`
}

// StoreConfig configures the run audit store. Driver "none" disables
// persistence entirely.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the analyze-over-HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("DENIALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("engine.dimensions", []string{"cpt", "payer", "provider"})
	v.SetDefault("engine.top_k", 10)
	v.SetDefault("engine.min_volume", 5)
	v.SetDefault("engine.weight_denial_rate", 1.0/3)
	v.SetDefault("engine.weight_count", 1.0/3)
	v.SetDefault("engine.weight_amount", 1.0/3)
	v.SetDefault("engine.rule_set_version", "rules-v1")
	v.SetDefault("payers.default_filing_window_days", 90)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "denials.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 5.0)
	v.SetDefault("server.rate_burst", 10)
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
