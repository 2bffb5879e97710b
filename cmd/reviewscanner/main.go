package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ReviewScanner/internal/app"
	"ReviewScanner/internal/config"
	"ReviewScanner/internal/logging"
)

func main() {
	reviewID := flag.Int64("review", 0, "print a stored issue and its articles, then exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *reviewID != 0 {
		review, err := application.Review(ctx, *reviewID)
		if err != nil {
			logger.Error("review lookup failed", "id", *reviewID, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%d %s\n", review.ID, review.SourceURL)
		for _, article := range review.Articles {
			fmt.Printf("  %s  %s  %v\n", article.PublicationDate.Format("2006-01-02"), article.Title, article.TelegraphURLs)
		}
		return
	}

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
