package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/kader/internal/api/rest"
	"github.com/fortuna/kader/internal/api/websocket"
	"github.com/fortuna/kader/internal/config"
	"github.com/fortuna/kader/internal/metrics"
	"github.com/fortuna/kader/internal/normalize"
	"github.com/fortuna/kader/internal/scheduler"
	"github.com/fortuna/kader/internal/service"
	"github.com/fortuna/kader/internal/store"
	"github.com/fortuna/kader/internal/store/repository"
)

const (
	serviceName    = "kader-dashboard"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - national team roster dashboard", serviceName, serviceVersion)

	cfg := config.LoadDashboard()

	variant, err := normalize.ParseVariant(cfg.Schema)
	if err != nil {
		log.Fatalf("Invalid KADER_SCHEMA: %v", err)
	}

	var source service.Source
	switch cfg.Source {
	case "", "csv":
		source = service.CSVSource{Path: cfg.DataPath}
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Fatalf("KADER_SOURCE=postgres needs DATABASE_URL")
		}
		db, err := store.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("✓ Connected to database")

		if err := db.RunMigrations(context.Background()); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		log.Println("✓ Database migrations applied")
		source = service.PostgresSource{Roster: repository.NewRosterRepository(db)}
	default:
		log.Fatalf("Unknown KADER_SOURCE %q (want csv or postgres)", cfg.Source)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewDashboard()
	dataset := service.NewDataset(source, variant)
	wsServer := websocket.NewServer(ctx)
	wsServer.Hub().OnClientCount(m.SetClients)

	dataset.OnReload(func(t *store.Table) {
		m.Reloaded(t.Len())
		wsServer.BroadcastReload(t)
	})

	watcher := scheduler.NewWatcher(dataset, &scheduler.Config{
		PollInterval:         cfg.ReloadInterval,
		MaxConsecutiveErrors: 5,
	})
	watcher.OnError(m.ReloadFailed)
	go watcher.Start(ctx)

	log.Printf("✓ Watching %s (schema: %s)", source.Describe(), variant)

	restServer := rest.NewServer(cfg.RESTPort, rest.Options{
		Dataset:     dataset,
		Metrics:     m,
		Realtime:    wsServer,
		CORSOrigins: cfg.CORSOrigins,
	})
	go func() {
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s/api/v1", cfg.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws", cfg.RESTPort)
	log.Printf("  Metrics: http://0.0.0.0:%s/metrics", cfg.RESTPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("Shutting down %s gracefully...", serviceName)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}
