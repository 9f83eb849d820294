package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/kader/internal/cache"
	"github.com/fortuna/kader/internal/config"
	"github.com/fortuna/kader/internal/ingest/transfermarkt"
	"github.com/fortuna/kader/internal/metrics"
	"github.com/fortuna/kader/internal/publisher"
	"github.com/fortuna/kader/internal/report"
	"github.com/fortuna/kader/internal/store"
	"github.com/fortuna/kader/internal/store/repository"
)

const (
	appName    = "kader-scraper"
	appVersion = "1.0.0"
)

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)

	cfg := config.LoadScraper()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg)
	stop()
	os.Exit(code)
}

// persistence holds the optional Postgres and Redis sinks
type persistence struct {
	runs      *repository.RunRepository
	roster    *repository.RosterRepository
	publisher *publisher.RedisPublisher
	pageCache *cache.PageCache
}

func run(ctx context.Context, cfg config.Scraper) int {
	m := metrics.NewScrape()
	if cfg.MetricsFile != "" {
		defer func() {
			if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Printf("⚠️  Failed to write metrics to %s: %v", cfg.MetricsFile, err)
			}
		}()
	}

	pages, closePages, err := newFetcher(cfg)
	if err != nil {
		log.Printf("✗ %v", err)
		return 2
	}
	defer closePages()

	var sinks persistence
	var profiles transfermarkt.Fetcher = transfermarkt.NewPoliteFetcher(pages, cfg.DelayMin, cfg.DelayMax)

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, continuing without page cache: %v", err)
		} else {
			defer redisCache.Close()
			log.Println("✓ Connected to Redis")
			sinks.pageCache = cache.NewPageCache(redisCache, profiles, cfg.CacheTTL)
			sinks.publisher = publisher.NewRedisStreamPublisher(redisCache.Client())
			profiles = sinks.pageCache
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := store.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Printf("⚠️  Postgres unavailable, writing CSV only: %v", err)
		} else {
			defer db.Close()
			if err := db.RunMigrations(ctx); err != nil {
				log.Printf("⚠️  Migrations failed, writing CSV only: %v", err)
			} else {
				log.Println("✓ Database migrations applied")
				sinks.runs = repository.NewRunRepository(db)
				sinks.roster = repository.NewRosterRepository(db)
			}
		}
	}

	ingester := transfermarkt.NewIngester(transfermarkt.Config{
		RosterURL:      cfg.RosterURL,
		BaseURL:        cfg.BaseURL,
		TeamNames:      cfg.TeamNames,
		Enrich:         cfg.Enrich,
		PerformanceURL: cfg.PerformanceURL,
	}, pages, profiles, log.Default())

	scrapeRun := &store.ScrapeRun{
		ID:        uuid.New().String(),
		RosterURL: cfg.RosterURL,
		Layout:    ingester.Layout(),
		StartedAt: time.Now().UTC(),
	}
	if sinks.runs != nil {
		if err := sinks.runs.Create(ctx, scrapeRun); err != nil {
			log.Printf("⚠️  Failed to record scrape run: %v", err)
			sinks.runs, sinks.roster = nil, nil
		}
	}

	table, result, runErr := ingester.Run(ctx)
	m.Observe(result, runErr)
	if sinks.pageCache != nil {
		m.ObserveCache(sinks.pageCache.Stats())
	}

	if table == nil {
		log.Printf("✗ Scrape failed: %v", runErr)
		sinks.markFailed(scrapeRun.ID, runErr)
		return 1
	}

	if err := store.WriteCSV(cfg.Output, table); err != nil {
		log.Printf("✗ Failed to write %s: %v", cfg.Output, err)
		sinks.markFailed(scrapeRun.ID, err)
		return 1
	}

	if runErr != nil {
		log.Printf("⚠️  %v", runErr)
		log.Printf("⚠️  Partial roster of %d players saved to %s", table.Len(), cfg.Output)
		sinks.markFailed(scrapeRun.ID, runErr)
		return 1
	}

	report.Roster(os.Stdout, table)
	if result != nil {
		report.Coverage(os.Stdout, result)
		scrapeRun.RowsFound = result.Rows
		scrapeRun.RowsSkipped = result.Skipped
	}
	log.Printf("✓ Saved %d players to %s", table.Len(), cfg.Output)

	sinks.save(ctx, scrapeRun, table, cfg.Output)
	return 0
}

// newFetcher builds the page fetcher for the configured mode
func newFetcher(cfg config.Scraper) (transfermarkt.Fetcher, func(), error) {
	switch cfg.FetchMode {
	case "", "http":
		return transfermarkt.NewHTTPClient(cfg.UserAgent), func() {}, nil
	case "browser":
		client := transfermarkt.NewBrowserClient(cfg.UserAgent)
		log.Println("✓ Headless browser ready")
		return client, client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown fetch mode %q (want http or browser)", cfg.FetchMode)
}

func (p persistence) save(ctx context.Context, run *store.ScrapeRun, table *store.Table, output string) {
	if p.roster != nil {
		if err := p.roster.Replace(ctx, run, table); err != nil {
			log.Printf("⚠️  Failed to store roster in Postgres: %v", err)
			p.markFailed(run.ID, err)
		} else {
			log.Printf("✓ Stored run %s in Postgres", run.ID)
		}
	}

	if p.publisher != nil {
		event := publisher.RosterScraped{
			RunID:       run.ID,
			RosterURL:   run.RosterURL,
			Layout:      string(table.Layout),
			Players:     table.Len(),
			Skipped:     run.RowsSkipped,
			Output:      output,
			CompletedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := p.publisher.PublishRosterScraped(ctx, event); err != nil {
			log.Printf("⚠️  Failed to publish %s: %v", publisher.RosterScrapedStream, err)
		} else {
			log.Printf("✓ Published %s", publisher.RosterScrapedStream)
		}
	}
}

// markFailed runs on its own context so an interrupted scrape is still recorded
func (p persistence) markFailed(runID string, runErr error) {
	if p.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.runs.MarkFailed(ctx, runID, runErr); err != nil {
		log.Printf("⚠️  %v", err)
	}
}
