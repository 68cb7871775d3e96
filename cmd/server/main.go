// Command server runs the legichat conversation service.
//
// Configuration is layered: built-in defaults, a YAML config file
// (-config flag, LEGICHAT_CONFIG env, ./config.yaml, or
// /etc/legichat/config.yaml), then LEGICHAT_* environment overrides.
//
//	LEGICHAT_BACKEND_URL  - Chat Completions backend URL (required)
//	LEGICHAT_MODEL        - Model name (required)
//	LEGICHAT_API_KEY      - Backend API key (optional)
//	LEGICHAT_PORT         - Listen port (default: 8080)
//	LEGICHAT_STORAGE      - Thread store: "memory" or "postgres"
//	LEGICHAT_CATALOG      - Legislator catalog: "memory" or "postgres"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/legichat/legichat/pkg/catalog"
	catalogmemory "github.com/legichat/legichat/pkg/catalog/memory"
	catalogpostgres "github.com/legichat/legichat/pkg/catalog/postgres"
	"github.com/legichat/legichat/pkg/chat"
	"github.com/legichat/legichat/pkg/config"
	"github.com/legichat/legichat/pkg/debug"
	"github.com/legichat/legichat/pkg/observability"
	"github.com/legichat/legichat/pkg/reasoner/openaichat"
	"github.com/legichat/legichat/pkg/store"
	storememory "github.com/legichat/legichat/pkg/store/memory"
	storepostgres "github.com/legichat/legichat/pkg/store/postgres"
	"github.com/legichat/legichat/pkg/tools"
	transporthttp "github.com/legichat/legichat/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	debug.Init("", "")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Thread store.
	threads, err := buildThreadStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating thread store: %w", err)
	}
	defer threads.Close()

	// Legislator catalog.
	cat, err := buildCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating catalog: %w", err)
	}
	defer cat.Close()

	// Reasoning backend.
	r := openaichat.New(cfg.Reasoner.BackendURL, cfg.Reasoner.APIKey, cfg.Reasoner.GenerationTimeout)
	defer r.Close()

	resolver := tools.NewLegislatorResolver(cat, slog.Default())

	engine, err := chat.New(r, threads, []tools.Executor{resolver}, chat.Config{
		Model:             cfg.Reasoner.Model,
		SystemPrompt:      cfg.Reasoner.SystemPrompt,
		MaxToolRounds:     cfg.Reasoner.MaxToolRounds,
		GenerationTimeout: cfg.Reasoner.GenerationTimeout,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	srv := transporthttp.NewServer(engine, engine, engine,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	// Mount the conversation API alongside health and metrics.
	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := engine.HealthCheck(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}
	srv.SetHandler(observability.MetricsMiddleware(mux))

	slog.Info("server configured",
		"port", cfg.Server.Port,
		"backend", cfg.Reasoner.BackendURL,
		"model", cfg.Reasoner.Model,
		"storage", cfg.Storage.Type,
		"catalog", cfg.Catalog.Type)

	return srv.ListenAndServe()
}

func buildThreadStore(ctx context.Context, cfg *config.Config) (store.ThreadStore, error) {
	switch cfg.Storage.Type {
	case "postgres":
		return storepostgres.New(ctx, storepostgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
	default:
		slog.Info("using in-memory thread store, conversations are lost on restart")
		return storememory.New(), nil
	}
}

func buildCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, error) {
	switch cfg.Catalog.Type {
	case "postgres":
		return catalogpostgres.New(ctx, catalogpostgres.Config{
			DSN:            cfg.Catalog.Postgres.DSN,
			MaxConns:       cfg.Catalog.Postgres.MaxConns,
			MigrateOnStart: cfg.Catalog.Postgres.MigrateOnStart,
		})
	default:
		slog.Info("using in-memory legislator catalog with sample data")
		return catalogmemory.New(sampleLegislators()), nil
	}
}

// sampleLegislators seeds the in-memory catalog so the tool has data to
// resolve against in development setups without a database.
func sampleLegislators() []catalogmemory.Legislator {
	return []catalogmemory.Legislator{
		{
			ID: 1, Name: "Jonathan Patterson", Type: "Senator", Party: "Republican",
			YearElected: 2018, YearsServed: 7, Active: true,
			Seats: []catalog.Seat{
				{District: "30", SessionYear: 2021, SessionCode: "2021RS"},
				{District: "31", SessionYear: 2023, SessionCode: "2023RS"},
			},
		},
		{
			ID: 2, Name: "Maria Washington", Type: "Representative", Party: "Democrat",
			YearElected: 2020, YearsServed: 5, Active: true,
			Seats: []catalog.Seat{
				{District: "12", SessionYear: 2023, SessionCode: "2023RS"},
			},
		},
		{
			ID: 3, Name: "Samuel Okafor", Type: "Representative", Party: "Independent",
			YearElected: 2014, YearsServed: 9, Active: false,
			Seats: []catalog.Seat{
				{District: "4", SessionYear: 2021, SessionCode: "2021RS"},
			},
		},
	}
}
