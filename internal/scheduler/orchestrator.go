package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fortuna/kader/internal/service"
)

// Dataset is the memoized roster the watcher keeps fresh
type Dataset interface {
	Refresh(ctx context.Context) (bool, error)
}

// Watcher polls the persisted roster and reloads it when the scraper writes a new one
type Watcher struct {
	dataset  Dataset
	config   *Config
	failures func()
}

// Config holds watcher configuration
type Config struct {
	PollInterval         time.Duration // Default: 5s
	MaxConsecutiveErrors int           // Default: 5, longer error streaks stop logging
}

// DefaultConfig returns default watcher configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:         5 * time.Second,
		MaxConsecutiveErrors: 5,
	}
}

// NewWatcher creates a watcher over dataset
func NewWatcher(dataset Dataset, config *Config) *Watcher {
	if config == nil {
		config = DefaultConfig()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	return &Watcher{dataset: dataset, config: config}
}

// OnError sets a hook run for every failed load other than a missing table
func (w *Watcher) OnError(fn func()) {
	w.failures = fn
}

// Start polls until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) {
	log.Printf("→ Roster watcher started (interval: %v)", w.config.PollInterval)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	w.Poll(ctx, &consecutiveErrors)

	for {
		select {
		case <-ctx.Done():
			log.Println("→ Roster watcher stopped")
			return
		case <-ticker.C:
			w.Poll(ctx, &consecutiveErrors)
		}
	}
}

// Poll checks the source once and reports whether the roster was reloaded
func (w *Watcher) Poll(ctx context.Context, consecutiveErrors *int) bool {
	changed, err := w.dataset.Refresh(ctx)
	if err != nil {
		// waiting for the first scrape is the normal state of a fresh install
		if errors.Is(err, service.ErrNoTable) {
			return false
		}
		*consecutiveErrors++
		if w.failures != nil {
			w.failures()
		}
		if *consecutiveErrors <= w.config.MaxConsecutiveErrors {
			log.Printf("  ⚠️  Roster reload failed (%d/%d): %v", *consecutiveErrors, w.config.MaxConsecutiveErrors, err)
		}
		return false
	}
	if *consecutiveErrors > 0 {
		log.Printf("  ✓ Roster reload recovered after %d errors", *consecutiveErrors)
		*consecutiveErrors = 0
	}
	return changed
}
