package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/fintrack/internal/allocation"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/config"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/scheduler"
	"github.com/mmynk/fintrack/internal/service"
	"github.com/mmynk/fintrack/internal/snapshot"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/internal/storage/memory"
	"github.com/mmynk/fintrack/internal/storage/sqlstore"
	"github.com/mmynk/fintrack/pkg/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	eventQueueSize  = 1024
	eventTimeout    = 5 * time.Second
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)))

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "backend", cfg.DataBackend)

	publisher, closePublisher, err := openPublisher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize events: %w", err)
	}
	defer closePublisher()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cache := snapshot.New(store, cfg.SnapshotSize, cfg.SnapshotTTL, m.SnapshotLookup)
	engine := allocation.NewEngine(store,
		allocation.WithPublisher(publisher),
		allocation.WithInvalidator(cache),
		allocation.WithOutcomeCounter(m.Allocations),
	)

	sched := scheduler.New()
	if err := sched.AddCacheSweep(cfg.CacheSweepSpec, cache); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	svcs := service.Services{
		Auth:      service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default()),
		Income:    service.NewIncomeService(engine, store, cache),
		Expense:   service.NewExpenseService(store, cache, publisher),
		Goal:      service.NewGoalService(store, cache, publisher),
		Dashboard: service.NewDashboardService(cache, cfg.BudgetTarget),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthz(store)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	svcs.Register(router, service.HandlerOptions(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager, service.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)...)

	// h2c serves HTTP/2 without TLS, which Connect's gRPC protocol needs.
	handler := h2c.NewHandler(middleware.Logging(middleware.CORS(router)), &http2.Server{})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		return sqlstore.Open(ctx, sqlstore.Postgres, cfg.DatabaseURL)
	case config.BackendMemory:
		slog.Warn("Using in-memory storage; data is lost on restart")
		return memory.New(), nil
	default:
		return sqlstore.Open(ctx, sqlstore.SQLite, cfg.DBPath)
	}
}

// openPublisher connects to AMQP when configured and falls back to discarding events.
// Events are published off the request path.
func openPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		slog.Info("AMQP_URL not set; ledger events are discarded")
		return events.Nop{}, func() {}, nil
	}
	client, err := events.DialAMQP(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, err
	}
	async := events.NewAsync(client, eventQueueSize, eventTimeout)
	return async, func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := async.Close(drainCtx); err != nil {
			slog.Warn("Dropped queued events on shutdown", "error", err)
		}
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close AMQP connection", "error", err)
		}
	}, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthz(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}
}
