package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Mirror   MirrorConfig   `yaml:"mirror" mapstructure:"mirror"`
	Steam    SteamConfig    `yaml:"steam" mapstructure:"steam"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Backoff  BackoffConfig  `yaml:"backoff" mapstructure:"backoff"`
	Publish  PublishConfig  `yaml:"publish" mapstructure:"publish"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// MirrorConfig configures the identifier mirror.
type MirrorConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// SteamConfig configures the storefront endpoints and locale.
type SteamConfig struct {
	DetailURL string `yaml:"detail_url" mapstructure:"detail_url"`
	PageURL   string `yaml:"page_url" mapstructure:"page_url"`
	Country   string `yaml:"country" mapstructure:"country"`
	Language  string `yaml:"language" mapstructure:"language"`
}

// FetchConfig configures outbound HTTP behavior. Delay spaces item
// requests; AttemptDelay spaces retries within one request.
type FetchConfig struct {
	Delay        time.Duration `yaml:"delay" mapstructure:"delay"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	AttemptDelay time.Duration `yaml:"attempt_delay" mapstructure:"attempt_delay"`
	UserAgents   []string      `yaml:"user_agents" mapstructure:"user_agents"`
}

// BackoffConfig holds the ascending rate-limit wait ladder.
type BackoffConfig struct {
	Stages []time.Duration `yaml:"stages" mapstructure:"stages"`
}

// PublishConfig configures the git auto-publish hook.
type PublishConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Every   int           `yaml:"every" mapstructure:"every"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// BatchConfig configures concurrent one-shot fetches.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig names the on-disk stores.
type StoreConfig struct {
	Catalog  string `yaml:"catalog" mapstructure:"catalog"`
	Progress string `yaml:"progress" mapstructure:"progress"`
	Runlog   string `yaml:"runlog" mapstructure:"runlog"`
}

// ClassifyConfig points at an optional ruleset override file. Empty
// means the compiled-in ruleset.
type ClassifyConfig struct {
	Rules string `yaml:"rules" mapstructure:"rules"`
}

// ServerConfig configures the status API server.
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
	v.SetEnvPrefix("STEAMARCHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("mirror.url", "https://raw.githubusercontent.com/jsnli/steamappidlist/refs/heads/master/data/games_appid.json")
	v.SetDefault("steam.detail_url", "https://store.steampowered.com/api/appdetails")
	v.SetDefault("steam.page_url", "https://store.steampowered.com/app/%d/")
	v.SetDefault("steam.country", "id")
	v.SetDefault("steam.language", "en")
	v.SetDefault("fetch.delay", time.Second)
	v.SetDefault("fetch.timeout", 20*time.Second)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.attempt_delay", time.Second)
	v.SetDefault("fetch.user_agents", []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		"Mozilla/5.0 (X11; Linux x86_64)",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5)",
		"Mozilla/5.0 (iPad; CPU OS 16_2 like Mac OS X)",
	})
	v.SetDefault("backoff.stages", []time.Duration{10 * time.Minute, 30 * time.Minute, time.Hour})
	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.every", 1000)
	v.SetDefault("publish.timeout", 2*time.Minute)
	v.SetDefault("batch.concurrency", 6)
	v.SetDefault("store.catalog", "steam_data.json")
	v.SetDefault("store.progress", "progress.json")
	v.SetDefault("store.runlog", "runs.db")
	v.SetDefault("classify.rules", "")
	v.SetDefault("server.port", 8750)

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

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "sync":
		check(c.Mirror.URL != "", "mirror.url is required")
		check(c.Store.Catalog != "", "store.catalog is required")
		check(c.Store.Progress != "", "store.progress is required")
		check(c.Fetch.MaxAttempts >= 1, "fetch.max_attempts must be >= 1")
		check(len(c.Backoff.Stages) > 0, "backoff.stages must not be empty")
		if c.Publish.Enabled {
			check(c.Publish.Every >= 1, "publish.every must be >= 1")
		}
	case "batch":
		check(c.Store.Catalog != "", "store.catalog is required")
		check(c.Fetch.MaxAttempts >= 1, "fetch.max_attempts must be >= 1")
		check(c.Batch.Concurrency >= 1 && c.Batch.Concurrency <= 32,
			"batch.concurrency must be between 1 and 32")
	case "prune":
		check(c.Mirror.URL != "", "mirror.url is required")
		check(c.Store.Catalog != "", "store.catalog is required")
	case "serve":
		check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port must be > 0")
		check(c.Store.Catalog != "", "store.catalog is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
