package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/kader/internal/service"
	"github.com/fortuna/kader/internal/store"
)

const (
	defaultTopN = 10
	maxTopN     = 100
)

// Handler serves the dashboard API over the current roster
type Handler struct {
	dataset Dataset
}

// NewHandler creates a new handler
func NewHandler(dataset Dataset) *Handler {
	return &Handler{dataset: dataset}
}

// PlayersResponse is a filtered table with the selected columns
type PlayersResponse struct {
	Count   int                 `json:"count"`
	Columns []string            `json:"columns"`
	Players []map[string]string `json:"players"`
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "healthy",
		"service": "kader-dashboard",
	}

	table, err := h.dataset.Table(r.Context())
	switch {
	case err != nil:
		status["status"] = "waiting"
		status["details"] = err.Error()
	default:
		status["players"] = table.Len()
		status["layout"] = table.Layout
		status["loaded_at"] = h.dataset.LoadedAt().Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, status)
}

// GetOptions returns the values the filter widgets can offer
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, service.FilterOptions(table.Players))
}

// GetPlayers returns the filtered table.
// Query: position, foot, age_min, age_max, q, sort=name, columns=a,b
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	table, players, ok := h.filtered(w, r)
	if !ok {
		return
	}

	columns, err := parseColumns(r.URL.Query(), table.Layout)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid columns", err)
		return
	}
	if r.URL.Query().Get("sort") == "name" {
		players = service.SortByName(players)
	}

	rows := make([]map[string]string, 0, len(players))
	for _, p := range players {
		raw := p.Raw()
		row := make(map[string]string, len(columns))
		for _, c := range columns {
			row[c] = raw.Field(c)
		}
		rows = append(rows, row)
	}

	respondJSON(w, http.StatusOK, PlayersResponse{Count: len(rows), Columns: columns, Players: rows})
}

// GetTopPlayers ranks the filtered view by a numeric column.
// Query: column (default market_value), n (default 10)
func (h *Handler) GetTopPlayers(w http.ResponseWriter, r *http.Request) {
	_, players, ok := h.filtered(w, r)
	if !ok {
		return
	}

	column, err := parseColumn(r.URL.Query(), service.ColumnMarketValue)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid column", err)
		return
	}
	n := defaultTopN
	if s := r.URL.Query().Get("n"); s != "" {
		n, err = strconv.Atoi(s)
		if err != nil || n < 0 || n > maxTopN {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("n must be between 0 and %d", maxTopN), err)
			return
		}
	}

	top := service.TopN(players, column, n)
	entries := make([]service.TopEntry, 0, len(top))
	for _, p := range top {
		value, _ := column.Value(p)
		entries = append(entries, service.TopEntry{Name: p.Name, Position: p.Position, Value: value, Display: p.Raw().Field(string(column))})
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetPositions aggregates a numeric column per position.
// Query: column (default market_value), order=sum|mean
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	_, players, ok := h.filtered(w, r)
	if !ok {
		return
	}

	column, err := parseColumn(r.URL.Query(), service.ColumnMarketValue)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid column", err)
		return
	}

	groups := service.GroupByPosition(players, column)
	switch r.URL.Query().Get("order") {
	case "", "sum":
	case "mean":
		groups = service.SortByMean(groups)
	default:
		respondError(w, http.StatusBadRequest, "order must be sum or mean", nil)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

// GetSummary returns the scalar metrics of the filtered view
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	_, players, ok := h.filtered(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, service.Summarize(players))
}

// GetCharts returns every chart series of the filtered view
func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	_, players, ok := h.filtered(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, service.BuildCharts(players))
}

// ExportCSV downloads the filtered view with the selected columns
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	table, players, ok := h.filtered(w, r)
	if !ok {
		return
	}
	columns, err := parseColumns(r.URL.Query(), table.Layout)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid columns", err)
		return
	}
	if r.URL.Query().Get("sort") == "name" {
		players = service.SortByName(players)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="players_filtered.csv"`)
	if err := service.ExportCSV(w, players, columns); err != nil {
		log.Printf("⚠️  CSV export interrupted: %v", err)
	}
}

func (h *Handler) table(w http.ResponseWriter, r *http.Request) (*store.Table, bool) {
	table, err := h.dataset.Table(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoTable) || errors.Is(err, service.ErrMissingColumn) {
			respondError(w, http.StatusServiceUnavailable, "Roster data unavailable", err)
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "Failed to load roster", err)
		return nil, false
	}
	return table, true
}

func (h *Handler) filtered(w http.ResponseWriter, r *http.Request) (*store.Table, []store.Player, bool) {
	spec, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid filter", err)
		return nil, nil, false
	}
	table, ok := h.table(w, r)
	if !ok {
		return nil, nil, false
	}
	return table, service.Filter(table.Players, spec), true
}

func parseFilter(q url.Values) (service.FilterSpec, error) {
	spec := service.FilterSpec{
		Position:  q.Get("position"),
		Foot:      q.Get("foot"),
		NameQuery: q.Get("q"),
	}
	var err error
	if spec.AgeMin, err = optionalInt(q, "age_min"); err != nil {
		return spec, err
	}
	if spec.AgeMax, err = optionalInt(q, "age_max"); err != nil {
		return spec, err
	}
	if spec.AgeMin != nil && spec.AgeMax != nil && *spec.AgeMin > *spec.AgeMax {
		return spec, fmt.Errorf("age_min %d is greater than age_max %d", *spec.AgeMin, *spec.AgeMax)
	}
	return spec, nil
}

func optionalInt(q url.Values, key string) (*int, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not an integer", key, s)
	}
	return &v, nil
}

// parseColumns defaults to every column of the loaded layout
func parseColumns(q url.Values, layout store.Layout) ([]string, error) {
	s := q.Get("columns")
	if s == "" {
		return layout.Columns(), nil
	}
	var columns []string
	for _, c := range strings.Split(s, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !store.IsColumn(c) {
			return nil, fmt.Errorf("unknown column %q", c)
		}
		columns = append(columns, c)
	}
	if len(columns) == 0 {
		return layout.Columns(), nil
	}
	return columns, nil
}

func parseColumn(q url.Values, fallback service.Column) (service.Column, error) {
	s := q.Get("column")
	if s == "" {
		return fallback, nil
	}
	return service.ParseColumn(s)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
