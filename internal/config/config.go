package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "REVIEW_SCANNER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	archiveURLEnv     = "ARCHIVE_URL"
	telegraphTokenEnv = "TELEGRAPH_ACCESS_TOKEN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Supported catalog drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Review        ReviewConfig       `yaml:"review"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Publishing    PublishingConfig   `yaml:"publishing"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig sets the slog level (error, warn, info, debug).
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the catalog backend. For sqlite the DSN is a file path.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ArchiveConfig points at the page listing every issue.
type ArchiveConfig struct {
	URL       string   `yaml:"url"`
	Selectors []string `yaml:"selectors"`
}

// ReviewConfig drives issue and article parsing plus validation thresholds.
type ReviewConfig struct {
	Selectors        SelectorConfig `yaml:"selectors"`
	MinTitleLength   int            `yaml:"minTitleLength"`
	MinContentLength int            `yaml:"minContentLength"`
}

// SelectorConfig lists CSS selectors; empty values fall back to parser defaults.
type SelectorConfig struct {
	Listing    []string `yaml:"listing"`
	Title      string   `yaml:"title"`
	Content    string   `yaml:"content"`
	Byline     string   `yaml:"byline"`
	Meta       string   `yaml:"meta"`
	Irrelevant []string `yaml:"irrelevant"`
}

// FetcherConfig tunes the HTTP client.
type FetcherConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// ScraperConfig bounds concurrent article downloads.
type ScraperConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// PublishingConfig controls chunking and the Telegraph account.
type PublishingConfig struct {
	MaxChunkChars int             `yaml:"maxChunkChars"`
	Telegraph     TelegraphConfig `yaml:"telegraph"`
}

// TelegraphConfig wires the createPage API.
type TelegraphConfig struct {
	Endpoint    string `yaml:"endpoint"`
	AccessToken string `yaml:"accessToken"`
	AuthorName  string `yaml:"authorName"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines how often the archive is checked. A zero interval
// means a single pass.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if cfg.Database.Driver != DriverPostgres && cfg.Database.Driver != DriverSQLite {
		log.Printf("config: unknown database driver %q, reverting to %s", cfg.Database.Driver, DriverSQLite)
		cfg.Database = defaultConfig().Database
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(archiveURLEnv); v != "" {
		c.Archive.URL = v
	}

	if v := os.Getenv(telegraphTokenEnv); v != "" {
		c.Publishing.Telegraph.AccessToken = v
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

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Archive.URL != "" {
		base.Archive.URL = override.Archive.URL
	}
	if len(override.Archive.Selectors) > 0 {
		base.Archive.Selectors = override.Archive.Selectors
	}

	base.Review.Selectors = mergeSelectors(base.Review.Selectors, override.Review.Selectors)
	if override.Review.MinTitleLength > 0 {
		base.Review.MinTitleLength = override.Review.MinTitleLength
	}
	if override.Review.MinContentLength > 0 {
		base.Review.MinContentLength = override.Review.MinContentLength
	}

	if override.Fetcher.Timeout > 0 {
		base.Fetcher.Timeout = override.Fetcher.Timeout
	}
	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}

	if override.Scraper.Concurrency > 0 {
		base.Scraper.Concurrency = override.Scraper.Concurrency
	}

	if override.Publishing.MaxChunkChars > 0 {
		base.Publishing.MaxChunkChars = override.Publishing.MaxChunkChars
	}
	if override.Publishing.Telegraph.Endpoint != "" {
		base.Publishing.Telegraph.Endpoint = override.Publishing.Telegraph.Endpoint
	}
	if override.Publishing.Telegraph.AccessToken != "" {
		base.Publishing.Telegraph.AccessToken = override.Publishing.Telegraph.AccessToken
	}
	if override.Publishing.Telegraph.AuthorName != "" {
		base.Publishing.Telegraph.AuthorName = override.Publishing.Telegraph.AuthorName
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	return base
}

func mergeSelectors(base, override SelectorConfig) SelectorConfig {
	if len(override.Listing) > 0 {
		base.Listing = override.Listing
	}
	if override.Title != "" {
		base.Title = override.Title
	}
	if override.Content != "" {
		base.Content = override.Content
	}
	if override.Byline != "" {
		base.Byline = override.Byline
	}
	if override.Meta != "" {
		base.Meta = override.Meta
	}
	if len(override.Irrelevant) > 0 {
		base.Irrelevant = override.Irrelevant
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "reviews.db"},
		Archive:  ArchiveConfig{URL: "https://review.example.org/archive/"},
		Review: ReviewConfig{
			MinTitleLength:   5,
			MinContentLength: 100,
		},
		Fetcher:    FetcherConfig{Timeout: 10 * time.Second, UserAgent: "ReviewScanner/1.0"},
		Scraper:    ScraperConfig{Concurrency: 4},
		Publishing: PublishingConfig{
			MaxChunkChars: 30000,
			Telegraph: TelegraphConfig{
				Endpoint:   "https://api.telegra.ph",
				AuthorName: "ReviewScanner",
			},
		},
		Scheduler: SchedulerConfig{Interval: 0, Timezone: defaultTimezone, location: tz},
	}
}
