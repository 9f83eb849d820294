// Package config loads scraper and dashboard settings from the environment.
// Every variable is optional.
package config

import (
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/kader/internal/ingest/transfermarkt"
)

// Scraper settings
type Scraper struct {
	RosterURL      string
	BaseURL        string
	TeamNames      []string
	Output         string
	Enrich         bool
	FetchMode      string // "http" or "browser"
	UserAgent      string
	DelayMin       time.Duration
	DelayMax       time.Duration
	PerformanceURL string
	DatabaseURL    string
	RedisURL       string
	CacheTTL       time.Duration
	MetricsFile    string
}

// Dashboard settings
type Dashboard struct {
	DataPath       string
	Source         string // "csv" or "postgres"
	Schema         string // "profile" or "stats"
	RESTPort       string
	ReloadInterval time.Duration
	CORSOrigins    []string
	DatabaseURL    string
}

const defaultOutput = "equipe_maroc.csv"

// LoadScraper reads scraper settings
func LoadScraper() Scraper {
	return Scraper{
		RosterURL:      getEnv("KADER_ROSTER_URL", transfermarkt.RosterURL),
		BaseURL:        getEnv("KADER_BASE_URL", transfermarkt.BaseURL),
		TeamNames:      getList("KADER_TEAM_NAMES", slices.Clone(transfermarkt.DefaultTeamNames)),
		Output:         getEnv("KADER_OUTPUT", defaultOutput),
		Enrich:         getBool("KADER_ENRICH", true),
		FetchMode:      strings.ToLower(getEnv("KADER_FETCH_MODE", "http")),
		UserAgent:      getEnv("KADER_USER_AGENT", ""),
		DelayMin:       getDuration("KADER_DELAY_MIN", time.Second),
		DelayMax:       getDuration("KADER_DELAY_MAX", 2*time.Second),
		PerformanceURL: getEnv("KADER_PERFORMANCE_URL", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		CacheTTL:       getDuration("KADER_CACHE_TTL", 24*time.Hour),
		MetricsFile:    getEnv("KADER_METRICS_FILE", ""),
	}
}

// LoadDashboard reads dashboard settings
func LoadDashboard() Dashboard {
	return Dashboard{
		DataPath:       getEnv("KADER_DATA", defaultOutput),
		Source:         strings.ToLower(getEnv("KADER_SOURCE", "csv")),
		Schema:         getEnv("KADER_SCHEMA", "profile"),
		RESTPort:       getEnv("REST_PORT", "8501"),
		ReloadInterval: getDuration("KADER_RELOAD_INTERVAL", 5*time.Second),
		CORSOrigins:    getList("CORS_ORIGINS", []string{"*"}),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

// getDuration accepts Go durations ("1500ms") or plain seconds ("2", "0.5")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	log.Printf("⚠️  Invalid %s=%q, using %v", key, value, defaultValue)
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
