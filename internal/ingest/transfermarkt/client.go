package transfermarkt

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
)

const (
	// BaseURL prefixes relative profile links found in roster rows
	BaseURL = "https://www.transfermarkt.com"

	// RosterURL is the Morocco national team squad page
	RosterURL = "https://www.transfermarkt.com/morocco/kader/verein/3575/saison_id/2024/plus/1"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// RequestTimeout bounds a single page fetch
	RequestTimeout = 30 * time.Second
)

// Fetcher retrieves the HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPClient fetches pages with plain HTTP requests
type HTTPClient struct {
	client *resty.Client
}

// NewHTTPClient creates a resty-backed fetcher sending a browser user agent
func NewHTTPClient(userAgent string) *HTTPClient {
	if userAgent == "" {
		userAgent = UserAgent
	}

	client := resty.New()
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetTimeout(RequestTimeout)

	return &HTTPClient{client: client}
}

// Fetch performs a GET and returns the body, failing on any non-200 status
func (c *HTTPClient) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode(), url)
	}

	return resp.String(), nil
}

// BrowserClient fetches pages through headless Chrome, for when plain requests are blocked
type BrowserClient struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowserClient starts a headless Chrome allocator
func NewBrowserClient(userAgent string) *BrowserClient {
	if userAgent == "" {
		userAgent = UserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserClient{
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases resources
func (c *BrowserClient) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Fetch renders the page and returns the outer HTML of the document
func (c *BrowserClient) Fetch(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()

	// chromedp contexts do not inherit the caller's deadline
	browserCtx, cancel = context.WithTimeout(browserCtx, RequestTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}

	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}

	return htmlContent, nil
}

// PoliteFetcher waits a randomized delay before each request it forwards
type PoliteFetcher struct {
	next     Fetcher
	minDelay time.Duration
	maxDelay time.Duration

	// swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoliteFetcher wraps next with a delay drawn uniformly from [minDelay, maxDelay]
func NewPoliteFetcher(next Fetcher, minDelay, maxDelay time.Duration) *PoliteFetcher {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &PoliteFetcher{
		next:     next,
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    sleepContext,
	}
}

// Fetch sleeps, then forwards the request
func (p *PoliteFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := p.sleep(ctx, p.delay()); err != nil {
		return "", err
	}
	return p.next.Fetch(ctx, url)
}

func (p *PoliteFetcher) delay() time.Duration {
	spread := p.maxDelay - p.minDelay
	if spread <= 0 {
		return p.minDelay
	}
	return p.minDelay + rand.N(spread+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseHTML converts raw HTML to a goquery Document for parsing
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// absoluteURL resolves a profile href against base
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(base, "/") + href
}
