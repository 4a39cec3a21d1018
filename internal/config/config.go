package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ArticleHunter/internal/connector"
	"ArticleHunter/internal/domain"
)

const (
	ConfigPathEnv     = "ARTICLE_HUNTER_CONFIG"
	addrEnv           = "ARTICLE_HUNTER_ADDR"
	intervalEnv       = "ARTICLE_HUNTER_INTERVAL_MINUTES"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig             `yaml:"logging"`
	Server        ServerConfig              `yaml:"server"`
	Scheduler     SchedulerConfig           `yaml:"scheduler"`
	Keywords      []string                  `yaml:"keywords"`
	Feeds         []domain.SourceDefinition `yaml:"feeds" validate:"dive"`
	Connectors    []ConnectorConfig         `yaml:"connectors" validate:"required,min=1,unique=Name,dive"`
	Breaker       BreakerConfig             `yaml:"breaker"`
	Database      DatabaseConfig            `yaml:"database"`
	Notifications NotificationConfig        `yaml:"notifications"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// SchedulerConfig defines how often sources are polled.
type SchedulerConfig struct {
	IntervalMinutes int           `yaml:"intervalMinutes" validate:"min=1"`
	PollTimeout     time.Duration `yaml:"pollTimeout" validate:"gt=0"`
}

// ConnectorConfig describes a single source with its connector kind. Name doubles as the store
// name in the articles payload.
type ConnectorConfig struct {
	Name    string            `yaml:"name" validate:"required"`
	Kind    string            `yaml:"kind" validate:"required,oneof=stackexchange rss"`
	Options map[string]string `yaml:"options"`
}

// BreakerConfig sets the per-connector circuit breaker. Failures of zero disables it.
type BreakerConfig struct {
	Failures uint32        `yaml:"failures"`
	OpenFor  time.Duration `yaml:"openFor"`
}

// DatabaseConfig describes the optional Postgres archive. An empty DSN disables it.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads YAML configuration (if present) and applies environment overrides. An empty path
// falls back to ARTICLE_HUNTER_CONFIG. File problems are logged and the defaults are kept.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			slog.Warn("config: cannot read file, falling back to defaults", "path", path, "error", err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				slog.Warn("config: cannot parse file, falling back to defaults", "path", path, "error", err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Interval is the time between cycle starts.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
}

// ConnectorSpecs converts the connector list for the registry.
func (c Config) ConnectorSpecs() []connector.Spec {
	specs := make([]connector.Spec, 0, len(c.Connectors))
	for _, cc := range c.Connectors {
		specs = append(specs, connector.Spec{Name: cc.Name, Kind: cc.Kind, Options: cc.Options})
	}
	return specs
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(addrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(intervalEnv); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("config: ignoring non-numeric interval", "env", intervalEnv, "value", v)
		} else {
			c.Scheduler.IntervalMinutes = minutes
		}
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if len(override.Server.AllowedOrigins) > 0 {
		base.Server.AllowedOrigins = override.Server.AllowedOrigins
	}

	if override.Scheduler.IntervalMinutes != 0 {
		base.Scheduler.IntervalMinutes = override.Scheduler.IntervalMinutes
	}
	if override.Scheduler.PollTimeout != 0 {
		base.Scheduler.PollTimeout = override.Scheduler.PollTimeout
	}

	if override.Keywords != nil {
		base.Keywords = override.Keywords
	}
	if override.Feeds != nil {
		base.Feeds = override.Feeds
	}
	if len(override.Connectors) > 0 {
		base.Connectors = override.Connectors
	}

	if override.Breaker.Failures != 0 {
		base.Breaker.Failures = override.Breaker.Failures
	}
	if override.Breaker.OpenFor != 0 {
		base.Breaker.OpenFor = override.Breaker.OpenFor
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

// Default is the configuration used when no file is given.
func Default() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Server:    ServerConfig{Addr: ":8070"},
		Scheduler: SchedulerConfig{IntervalMinutes: 8, PollTimeout: time.Minute},
		Keywords:  []string{"java", "swift", "javascript", "ibm", "node"},
		Feeds: []domain.SourceDefinition{
			{Title: "nodejs", Source: "https://groups.google.com/forum/feed/nodejs/topics/rss.xml"},
			{Title: "Swift Language", Source: "https://groups.google.com/forum/feed/swift-language/topics/rss.xml"},
		},
		Connectors: []ConnectorConfig{
			{Name: "stackoverflow", Kind: "stackexchange", Options: map[string]string{"site": "stackoverflow"}},
			{Name: "googleforums", Kind: "rss"},
		},
		Breaker: BreakerConfig{Failures: 5, OpenFor: 5 * time.Minute},
	}
}
