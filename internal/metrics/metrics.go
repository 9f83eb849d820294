// Package metrics holds the Prometheus collectors for the scraper and the dashboard.
// Each side owns its registry: the scraper is a one-shot job and writes a textfile
// for node_exporter, the dashboard serves /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fortuna/kader/internal/ingest/transfermarkt"
)

// Scrape describes the last scraper run
type Scrape struct {
	registry *prometheus.Registry

	success         prometheus.Gauge
	duration        prometheus.Gauge
	rows            *prometheus.GaugeVec
	profiles        *prometheus.GaugeVec
	coverage        *prometheus.GaugeVec
	performance     prometheus.Gauge
	pageCache       *prometheus.GaugeVec
	lastSuccessUnix prometheus.Gauge
}

// NewScrape registers the scraper collectors on a fresh registry
func NewScrape() *Scrape {
	m := &Scrape{
		registry: prometheus.NewRegistry(),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kader_scrape_success",
			Help: "Whether the last scrape succeeded (1=success, 0=failure)",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kader_scrape_duration_seconds",
			Help: "Time taken by the last scrape in seconds",
		}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kader_scrape_rows",
			Help: "Roster rows seen by the last scrape, by outcome",
		}, []string{"outcome"}),
		profiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kader_profile_fetches",
			Help: "Profile pages requested by the last scrape, by outcome",
		}, []string{"outcome"}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kader_field_coverage",
			Help: "Players with a value found for each enrichment field",
		}, []string{"field"}),
		performance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kader_performance_matched",
			Help: "Players matched to a performance table line",
		}),
		pageCache: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kader_page_cache",
			Help: "Page cache lookups during the last scrape, by result",
		}, []string{"result"}),
		lastSuccessUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kader_scrape_last_success_timestamp_seconds",
			Help: "Unix time of the last successful scrape",
		}),
	}
	m.registry.MustRegister(m.success, m.duration, m.rows, m.profiles, m.coverage,
		m.performance, m.pageCache, m.lastSuccessUnix)
	return m
}

// Registry exposes the underlying registry
func (m *Scrape) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records an ingester result. A nil result only marks the run as failed.
func (m *Scrape) Observe(result *transfermarkt.Result, err error) {
	if err != nil {
		m.success.Set(0)
	} else {
		m.success.Set(1)
		m.lastSuccessUnix.SetToCurrentTime()
	}
	if result == nil {
		return
	}

	m.duration.Set(result.Duration.Seconds())
	m.rows.WithLabelValues("emitted").Set(float64(result.Emitted))
	m.rows.WithLabelValues("skipped").Set(float64(result.Skipped))

	m.profiles.WithLabelValues("ok").Set(float64(result.ProfilesFetched))
	m.profiles.WithLabelValues("failed").Set(float64(result.ProfileFailures))
	m.profiles.WithLabelValues("missing").Set(float64(result.ProfilesMissing))

	m.coverage.WithLabelValues("height").Set(float64(result.HeightFound))
	m.coverage.WithLabelValues("foot").Set(float64(result.FootFound))
	m.coverage.WithLabelValues("debut").Set(float64(result.DebutFound))

	m.performance.Set(float64(result.PerformanceMatched))
}

// ObserveCache records page cache hits and misses
func (m *Scrape) ObserveCache(hits, misses int) {
	m.pageCache.WithLabelValues("hit").Set(float64(hits))
	m.pageCache.WithLabelValues("miss").Set(float64(misses))
}

// WriteTextfile writes the registry in the text exposition format
func (m *Scrape) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Dashboard tracks the API server
type Dashboard struct {
	registry *prometheus.Registry

	reloads      prometheus.Counter
	reloadErrors prometheus.Counter
	players      prometheus.Gauge
	requests     *prometheus.CounterVec
	wsClients    prometheus.Gauge
}

// NewDashboard registers the dashboard collectors on a fresh registry
func NewDashboard() *Dashboard {
	m := &Dashboard{
		registry: prometheus.NewRegistry(),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kader_dataset_reloads_total",
			Help: "Roster reloads after the persisted table changed",
		}),
		reloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kader_dataset_reload_errors_total",
			Help: "Failed attempts to load the persisted roster",
		}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kader_dataset_players",
			Help: "Players in the currently loaded roster",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kader_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		}, []string{"route", "code"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kader_ws_clients",
			Help: "Connected websocket clients",
		}),
	}
	m.registry.MustRegister(m.reloads, m.reloadErrors, m.players, m.requests, m.wsClients)
	return m
}

// Registry exposes the underlying registry
func (m *Dashboard) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry
func (m *Dashboard) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Reloaded records a successful reload of players rows
func (m *Dashboard) Reloaded(players int) {
	m.reloads.Inc()
	m.players.Set(float64(players))
}

// ReloadFailed records a failed load
func (m *Dashboard) ReloadFailed() {
	m.reloadErrors.Inc()
}

// Request counts one served request
func (m *Dashboard) Request(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SetClients records the websocket client count
func (m *Dashboard) SetClients(n int) {
	m.wsClients.Set(float64(n))
}
