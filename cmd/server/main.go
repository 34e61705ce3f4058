package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"truthchain/internal/audit"
	"truthchain/internal/document/cache"
	"truthchain/internal/document/handler"
	docmetrics "truthchain/internal/document/metrics"
	"truthchain/internal/document/service"
	"truthchain/internal/ingest"
	jwttoken "truthchain/internal/jwt_token"
	"truthchain/internal/ledger"
	"truthchain/internal/platform/config"
	"truthchain/internal/platform/httpserver"
	"truthchain/internal/platform/logger"
	platformmetrics "truthchain/internal/platform/metrics"
	"truthchain/internal/platform/redis"
)

// main wires the ledger backend, caches, services, and HTTP surface, and owns
// the server lifecycle. Registry semantics live in internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "truthchain: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ledger backend.
	var store ledger.Store
	switch cfg.Ledger.Backend {
	case "postgres":
		pg, err := ledger.NewPostgres(ledger.PostgresConfig{
			Host:     cfg.Ledger.Host,
			Port:     cfg.Ledger.Port,
			User:     cfg.Ledger.User,
			Password: cfg.Ledger.Password,
			Database: cfg.Ledger.Database,
			SSLMode:  cfg.Ledger.SSLMode,
		})
		if err != nil {
			return fmt.Errorf("ledger postgres: %w", err)
		}
		defer pg.Close()
		store = pg
		log.Info("ledger backend ready", "backend", "postgres", "host", cfg.Ledger.Host)
	case "memory", "":
		store = ledger.NewInMemory()
		log.Warn("using in-memory ledger; records do not survive restarts")
	default:
		return fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	// Optional snapshot cache.
	var opts []service.Option
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithSnapshotCache(cache.NewRedis(redisClient.Client, cfg.Redis.SnapshotTTL)))
		log.Info("snapshot cache enabled", "ttl", cfg.Redis.SnapshotTTL)
	}
	if cfg.Explorer.BaseURL != "" {
		opts = append(opts, service.WithExplorerBaseURL(cfg.Explorer.BaseURL))
	}

	// Audit trail, drained by a background worker.
	auditStore := audit.NewInMemoryStore()
	publisher, auditWorker := audit.NewAsyncPublisher(auditStore, 256)
	workerDone := make(chan error, 1)
	go func() { workerDone <- auditWorker.Run(ctx) }()

	documents, err := service.New(ctx, store, publisher, docmetrics.New(), log, cfg.Auth.Authority, opts...)
	if err != nil {
		return fmt.Errorf("document service: %w", err)
	}

	// Content archive for ingestion; no-op unless an object store is configured.
	var contentStore ingest.ContentStore
	if cfg.ContentStore.Endpoint != "" {
		contentStore, err = ingest.NewMinIOStore(ingest.MinIOConfig{
			Endpoint:  cfg.ContentStore.Endpoint,
			AccessKey: cfg.ContentStore.AccessKey,
			SecretKey: cfg.ContentStore.SecretKey,
			UseSSL:    cfg.ContentStore.UseSSL,
			Bucket:    cfg.ContentStore.Bucket,
		})
		if err != nil {
			return fmt.Errorf("content store: %w", err)
		}
		log.Info("content archive enabled", "endpoint", cfg.ContentStore.Endpoint, "bucket", cfg.ContentStore.Bucket)
	}
	ingestor := ingest.New(nil, nil, contentStore, log)

	if cfg.Auth.JWTSigningKey == "" {
		return errors.New("AUTH_JWT_SIGNING_KEY is required")
	}
	tokens := jwttoken.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)

	router := chi.NewRouter()
	h := handler.New(documents, ingestor, publisher, log, platformmetrics.New(), tokens)
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case err := <-workerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit worker: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
