package transfermarkt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/kader":
			w.Write([]byte(rosterPage))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient("")

	body, err := client.Fetch(context.Background(), srv.URL+"/kader")
	require.NoError(t, err)
	assert.Equal(t, rosterPage, body)
	assert.Equal(t, UserAgent, gotUA)

	_, err = client.Fetch(context.Background(), srv.URL+"/blocked")
	assert.ErrorContains(t, err, "403")
}

func TestRunOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rosterPage))
	}))
	defer srv.Close()

	config := DefaultConfig()
	config.RosterURL = srv.URL
	config.Enrich = false

	table, _, err := NewIngester(config, NewHTTPClient("kader-test"), nil, quietLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}
