package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/fortuna/kader/internal/metrics"
	"github.com/fortuna/kader/internal/store"
)

// Dataset is the roster the handlers read from
type Dataset interface {
	Table(ctx context.Context) (*store.Table, error)
	LoadedAt() time.Time
}

// Options wires the server's collaborators. Metrics and Realtime are optional.
type Options struct {
	Dataset     Dataset
	Metrics     *metrics.Dashboard
	Realtime    http.Handler
	CORSOrigins []string
}

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, opts Options) *Server {
	handler := NewHandler(opts.Dataset)

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(handler, opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the routes and middleware chain
func NewRouter(handler *Handler, opts Options) http.Handler {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
	}

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}
	if opts.Realtime != nil {
		router.Handle("/ws", opts.Realtime)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/options", handler.GetOptions).Methods("GET")
	api.HandleFunc("/players", handler.GetPlayers).Methods("GET")
	api.HandleFunc("/players/top", handler.GetTopPlayers).Methods("GET")
	api.HandleFunc("/positions", handler.GetPositions).Methods("GET")
	api.HandleFunc("/summary", handler.GetSummary).Methods("GET")
	api.HandleFunc("/charts", handler.GetCharts).Methods("GET")
	api.HandleFunc("/export.csv", handler.ExportCSV).Methods("GET")

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// wraps the whole router so preflight requests reach it before method matching
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(router)
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
