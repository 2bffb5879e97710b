package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, databaseDSNEnv, databaseDriverEnv, archiveURLEnv,
		telegraphTokenEnv, telegramTokenEnv, telegramChatIDEnv, logLevelEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 4, cfg.Scraper.Concurrency)
	assert.Equal(t, 30000, cfg.Publishing.MaxChunkChars)
	assert.Equal(t, 5, cfg.Review.MinTitleLength)
	assert.Equal(t, 100, cfg.Review.MinContentLength)
	assert.Zero(t, cfg.Scheduler.Interval)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
database:
  driver: postgres
  dsn: postgres://file@localhost/reviews
archive:
  url: https://magazine.example.org/issues/
review:
  selectors:
    title: h1.headline
    listing: ["article h2 a"]
  minContentLength: 250
fetcher:
  timeout: 3s
scraper:
  concurrency: 8
publishing:
  maxChunkChars: 12000
scheduler:
  interval: 6h
  timezone: Europe/Berlin
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env@localhost/reviews")
	t.Setenv(telegraphTokenEnv, "tg-token")

	cfg := Load()
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env@localhost/reviews", cfg.Database.DSN)
	assert.Equal(t, "https://magazine.example.org/issues/", cfg.Archive.URL)
	assert.Equal(t, "h1.headline", cfg.Review.Selectors.Title)
	assert.Equal(t, []string{"article h2 a"}, cfg.Review.Selectors.Listing)
	assert.Equal(t, 5, cfg.Review.MinTitleLength)
	assert.Equal(t, 250, cfg.Review.MinContentLength)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, "ReviewScanner/1.0", cfg.Fetcher.UserAgent)
	assert.Equal(t, 8, cfg.Scraper.Concurrency)
	assert.Equal(t, 12000, cfg.Publishing.MaxChunkChars)
	assert.Equal(t, "tg-token", cfg.Publishing.Telegraph.AccessToken)
	assert.Equal(t, 6*time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
}

func TestLoadFallsBackOnBadInput(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unterminated"), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDriverEnv, "mongo")

	cfg := Load()
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "reviews.db", cfg.Database.DSN)
}
