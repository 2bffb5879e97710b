package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ReviewScanner/internal/config"
	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/infrastructure/fetcher"
	"ReviewScanner/internal/infrastructure/parser"
	"ReviewScanner/internal/infrastructure/scheduler"
	"ReviewScanner/internal/infrastructure/storage"
	"ReviewScanner/internal/infrastructure/telegram"
	"ReviewScanner/internal/infrastructure/telegraph"
	"ReviewScanner/internal/logging"
	"ReviewScanner/internal/ports"
	"ReviewScanner/internal/publishing"
	"ReviewScanner/internal/scanner"
	"ReviewScanner/internal/scraper"
	"ReviewScanner/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// catalog is a repository that can bootstrap its own schema.
type catalog interface {
	ports.ReviewRepository
	Migrate(ctx context.Context) error
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	scanner  *scanner.ArchiveScanner
	pipeline *usecase.Pipeline
	close    func()
}

// New opens the catalog and builds every component from cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, closeRepo, err := openCatalog(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		closeRepo()
		return nil, err
	}

	pages := fetcher.New(fetcher.Options{
		BaseURL:   cfg.Archive.URL,
		Timeout:   cfg.Fetcher.Timeout,
		UserAgent: cfg.Fetcher.UserAgent,
		Logger:    logging.Component(baseLogger, "fetcher"),
	})

	archive := scraper.NewArchiveScraper(
		cfg.Archive.URL,
		pages,
		parser.NewArchiveParser(cfg.Archive.URL, cfg.Archive.Selectors),
		logging.Component(baseLogger, "scraper.archive"),
	)
	archiveScanner := scanner.NewArchiveScanner(archive, repo, logging.Component(baseLogger, "scanner"))

	reviewParser := parser.NewReviewParser(cfg.Archive.URL, reviewSelectors(cfg.Review.Selectors))
	scrapeOpts := scraper.Options{
		MinTitleLength:   cfg.Review.MinTitleLength,
		MinContentLength: cfg.Review.MinContentLength,
		Concurrency:      cfg.Scraper.Concurrency,
		Logger:           logging.Component(baseLogger, "scraper.review"),
	}

	deps := usecase.PipelineDeps{
		Scanner: archiveScanner,
		Scrapers: func(issueURL string) usecase.IssueScraper {
			return scraper.NewReviewScraper(issueURL, pages, reviewParser, scrapeOpts)
		},
		Repository: repo,
		Logger:     logging.Component(baseLogger, "pipeline"),
	}

	tg := cfg.Publishing.Telegraph
	if tg.AccessToken != "" {
		client := telegraph.NewClient(tg.Endpoint, tg.AccessToken, tg.AuthorName, logging.Component(baseLogger, "telegraph"))
		deps.Publisher = publishing.NewPublisher(client, repo, cfg.Publishing.MaxChunkChars, logging.Component(baseLogger, "publisher"))
	} else {
		baseLogger.Warn("telegraph access token is not set, articles will not be published")
	}

	notifier := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	if notifier.Configured() {
		deps.Notifier = notifier
	}

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		scanner:  archiveScanner,
		pipeline: usecase.NewPipeline(deps),
		close:    closeRepo,
	}, nil
}

// Run performs a single pass, or keeps running on the configured interval
// until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Scheduler.Interval <= 0 {
		_, err := a.pipeline.Run(ctx, time.Now().In(a.cfg.Scheduler.Location()))
		return err
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.pipeline, a.cfg.Scheduler.Location(), a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", driver.Interval())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Review looks up a stored issue by its identifier.
func (a *Application) Review(ctx context.Context, id int64) (*domain.Review, error) {
	return a.scanner.ReviewByCriteria(ctx, scanner.Criteria{ID: &id})
}

// Close releases the catalog connection.
func (a *Application) Close() {
	if a.close != nil {
		a.close()
	}
}

func openCatalog(ctx context.Context, cfg config.DatabaseConfig) (catalog, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := storage.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgresRepository(pool), pool.Close, nil
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLiteRepository(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func reviewSelectors(cfg config.SelectorConfig) parser.ReviewSelectors {
	return parser.ReviewSelectors{
		Listing:    cfg.Listing,
		Title:      cfg.Title,
		Content:    cfg.Content,
		Byline:     cfg.Byline,
		Meta:       cfg.Meta,
		Irrelevant: cfg.Irrelevant,
	}
}
