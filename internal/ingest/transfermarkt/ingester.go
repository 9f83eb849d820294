package transfermarkt

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/kader/internal/normalize"
	"github.com/fortuna/kader/internal/store"
)

// Config controls a scrape run
type Config struct {
	RosterURL      string
	BaseURL        string
	TeamNames      []string
	Enrich         bool   // fetch each player's profile page
	PerformanceURL string // optional squad performance page for goals/assists/minutes
}

// DefaultConfig returns the Morocco squad scrape with profile enrichment
func DefaultConfig() Config {
	return Config{
		RosterURL: RosterURL,
		BaseURL:   BaseURL,
		TeamNames: DefaultTeamNames,
		Enrich:    true,
	}
}

// Result summarizes a scrape run
type Result struct {
	Rows    int // player rows in the roster table
	Emitted int
	Skipped int

	ProfilesFetched int
	ProfileFailures int
	ProfilesMissing int // rows without a profile link

	HeightFound int
	FootFound   int
	DebutFound  int

	PerformanceMatched int

	Duration time.Duration
}

// Ingester scrapes a roster page into a normalized table
type Ingester struct {
	config     Config
	pages      Fetcher // roster and performance pages
	profiles   Fetcher // profile pages, usually a PoliteFetcher
	parser     *ProfileParser
	normalizer *normalize.Normalizer
	logger     *log.Logger
}

// NewIngester creates an ingester. profiles may be nil when enrichment is off.
func NewIngester(config Config, pages, profiles Fetcher, logger *log.Logger) *Ingester {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if profiles == nil {
		profiles = pages
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Ingester{
		config:     config,
		pages:      pages,
		profiles:   profiles,
		parser:     NewProfileParser(config.TeamNames),
		normalizer: normalize.New(normalize.VariantProfile),
		logger:     logger,
	}
}

// Layout returns the table layout this ingester produces
func (i *Ingester) Layout() store.Layout {
	if i.config.Enrich || i.config.PerformanceURL != "" {
		return store.LayoutEnriched
	}
	return store.LayoutBasic
}

// Run fetches the roster page and extracts it. A roster page that cannot be fetched or
// has no player table is fatal. When extraction is interrupted the partial table is
// returned together with the error.
func (i *Ingester) Run(ctx context.Context) (*store.Table, *Result, error) {
	i.logger.Printf("Fetching roster from %s...", i.config.RosterURL)

	htmlContent, err := i.pages.Fetch(ctx, i.config.RosterURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRosterUnreachable, err)
	}

	doc, err := ParseHTML(htmlContent)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRosterUnreachable, err)
	}

	return i.ExtractRoster(ctx, doc)
}

// ExtractRoster extracts every player row from an already fetched roster document
func (i *Ingester) ExtractRoster(ctx context.Context, doc *goquery.Document) (*store.Table, *Result, error) {
	start := time.Now()

	cursor, err := NewRosterCursor(doc, i.config.BaseURL, i.logger)
	if err != nil {
		return nil, nil, err
	}

	result := &Result{Rows: cursor.Total()}
	i.logger.Printf("Found %d players", result.Rows)
	if i.config.Enrich {
		i.logger.Println("Scraping profile details, this may take 1-2 minutes...")
	}

	var rows []store.RawPlayer
	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("scrape interrupted: %w", err)
			break
		}

		row, ok := cursor.Next()
		if !ok {
			break
		}

		raw := row.Raw
		if i.config.Enrich {
			i.enrich(ctx, row.Index, result, &raw)
		}
		rows = append(rows, raw)
	}
	result.Skipped = cursor.Skipped()

	if i.config.PerformanceURL != "" && runErr == nil {
		i.mergePerformance(ctx, rows, result)
	}

	table := i.normalizer.Table(i.Layout(), rows)
	result.Emitted = table.Len()
	result.Duration = time.Since(start)

	i.logger.Printf("✓ Scraped %d/%d players (%d skipped) in %v", result.Emitted, result.Rows, result.Skipped, result.Duration.Round(time.Millisecond))
	return table, result, runErr
}

// enrich fills height, foot and debut from the profile page. Failures leave "N/A".
func (i *Ingester) enrich(ctx context.Context, index int, result *Result, raw *store.RawPlayer) {
	profile := EmptyProfile()
	defer func() {
		raw.Height, raw.Foot, raw.Debut = profile.Height, profile.Foot, profile.Debut
	}()

	if raw.ProfileURL == "" {
		result.ProfilesMissing++
		i.logger.Printf("[%d/%d] %s - No profile URL", index, result.Rows, raw.Name)
		return
	}

	fetched, err := i.fetchProfile(ctx, raw.ProfileURL)
	if err != nil {
		result.ProfileFailures++
		i.logger.Printf("[%d/%d] Scraping %s... ⚠️  Error scraping details: %v", index, result.Rows, raw.Name, err)
		return
	}
	profile = fetched
	result.ProfilesFetched++

	var status []string
	if profile.Height != store.NotAvailable {
		result.HeightFound++
		status = append(status, "H:"+profile.Height)
	}
	if profile.Foot != store.NotAvailable {
		result.FootFound++
		status = append(status, "F:"+profile.Foot)
	}
	if profile.Debut != store.NotAvailable {
		result.DebutFound++
		status = append(status, "D:✓")
	}

	if len(status) == 0 {
		i.logger.Printf("[%d/%d] Scraping %s... [No extra data found]", index, result.Rows, raw.Name)
		return
	}
	i.logger.Printf("[%d/%d] Scraping %s... [%s]", index, result.Rows, raw.Name, strings.Join(status, ", "))
}

func (i *Ingester) fetchProfile(ctx context.Context, url string) (profile Profile, err error) {
	defer func() {
		if r := recover(); r != nil {
			profile, err = EmptyProfile(), fmt.Errorf("panic: %v", r)
		}
	}()

	htmlContent, err := i.profiles.Fetch(ctx, url)
	if err != nil {
		return EmptyProfile(), err
	}

	doc, err := ParseHTML(htmlContent)
	if err != nil {
		return EmptyProfile(), err
	}

	return i.parser.Parse(doc), nil
}

func (i *Ingester) mergePerformance(ctx context.Context, rows []store.RawPlayer, result *Result) {
	i.logger.Printf("Fetching performance data from %s...", i.config.PerformanceURL)

	lines, err := i.fetchPerformance(ctx)
	if err != nil {
		i.logger.Printf("⚠️  Performance data unavailable: %v", err)
		MergePerformance(rows, nil)
		return
	}

	result.PerformanceMatched = MergePerformance(rows, lines)
	i.logger.Printf("✓ Matched performance data for %d/%d players", result.PerformanceMatched, len(rows))
}

func (i *Ingester) fetchPerformance(ctx context.Context) (map[string]Performance, error) {
	htmlContent, err := i.pages.Fetch(ctx, i.config.PerformanceURL)
	if err != nil {
		return nil, err
	}

	doc, err := ParseHTML(htmlContent)
	if err != nil {
		return nil, err
	}

	return ParsePerformance(doc)
}
