package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/kader/internal/ingest/transfermarkt"
)

func TestScrapeObserve(t *testing.T) {
	m := NewScrape()
	m.Observe(&transfermarkt.Result{
		Rows: 4, Emitted: 3, Skipped: 1,
		ProfilesFetched: 2, ProfileFailures: 1,
		HeightFound: 2, FootFound: 1, DebutFound: 1,
		Duration: 1500 * time.Millisecond,
	}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.success))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.duration))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rows.WithLabelValues("emitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rows.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.profiles.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.coverage.WithLabelValues("height")))
}

func TestScrapeObserveFailure(t *testing.T) {
	m := NewScrape()
	m.Observe(nil, errors.New("roster unreachable"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.success))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastSuccessUnix))
}

func TestScrapeWriteTextfile(t *testing.T) {
	m := NewScrape()
	m.Observe(&transfermarkt.Result{Emitted: 26}, nil)
	m.ObserveCache(20, 6)

	path := filepath.Join(t.TempDir(), "kader.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `kader_scrape_rows{outcome="emitted"} 26`)
	assert.Contains(t, string(content), `kader_page_cache{result="hit"} 20`)
}

func TestDashboardHandler(t *testing.T) {
	m := NewDashboard()
	m.Reloaded(26)
	m.Request("/api/v1/players", http.StatusOK)
	m.Request("/api/v1/players", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kader_dataset_players 26")
	assert.Contains(t, rec.Body.String(), `kader_http_requests_total{code="200",route="/api/v1/players"} 2`)
}
