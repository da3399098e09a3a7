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

	"github.com/joho/godotenv"

	"github.com/zhouzirui/persons-api/internal/config"
	"github.com/zhouzirui/persons-api/internal/handler"
	"github.com/zhouzirui/persons-api/internal/middleware"
	"github.com/zhouzirui/persons-api/internal/model/person"
	"github.com/zhouzirui/persons-api/internal/service/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	seed := person.Seed()
	if cfg.Persons.SeedFile != "" {
		seed, err = person.LoadSeedFile(cfg.Persons.SeedFile)
		if err != nil {
			log.Fatalf("failed to load persons seed: %v", err)
		}
		log.Printf("loaded %d persons from %s", len(seed), cfg.Persons.SeedFile)
	}

	var (
		hub  *watch.Hub
		opts []person.Option
	)
	if cfg.Watch.Enabled {
		hub = watch.NewHub(cfg.Watch.Buffer)
		defer hub.Close()
		opts = append(opts, person.WithNotifier(hub))
		log.Println("person change feed enabled")
	} else {
		log.Println("person change feed disabled by configuration")
	}

	personStore, err := person.NewMemoryStore(seed, opts...)
	if err != nil {
		log.Fatalf("failed to initialize person store: %v", err)
	}

	metrics, err := newMetrics(personStore, hub)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}

	router := handler.NewRouter(personStore, hub, metrics, handler.Options{
		Greeting:      cfg.Server.Greeting,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	})

	startServer(ctx, cfg.Server, router, hub)
}

func newMetrics(store person.Store, hub *watch.Hub) (*middleware.Metrics, error) {
	metrics, err := middleware.NewMetrics()
	if err != nil {
		return nil, err
	}

	err = metrics.RegisterGauge("persons_stored", "Persons currently held in memory.", func() float64 {
		n, err := store.Len(context.Background())
		if err != nil {
			return -1
		}
		return float64(n)
	})
	if err != nil {
		return nil, err
	}

	if hub != nil {
		err = metrics.RegisterGauge("persons_watch_subscribers", "Live change feed subscribers.", func() float64 {
			return float64(hub.Len())
		})
		if err != nil {
			return nil, err
		}
	}
	return metrics, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, hub *watch.Hub) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if hub != nil {
		// Feed handlers return once the hub closes, so Shutdown can drain them.
		srv.RegisterOnShutdown(hub.Close)
	}

	log.Printf("persons API listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
