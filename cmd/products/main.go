package main

import (
	"context"
	"database/sql"
	"flag"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductAPI/internal/config"
	"ProductAPI/internal/product"
	"ProductAPI/pkg/kit"
)

const service = "products"

func main() {
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := kit.NewLogger(service, cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}
	logger.Info("products table ready", zap.String("driver", cfg.DBDriver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := product.NewHandler(product.NewServer(store, logger), product.HTTPDeps{
		Log:             logger,
		Service:         service,
		Registry:        reg,
		MetricsEnabled:  cfg.MetricsEnabled,
		MetricsToken:    cfg.MetricsToken,
		RateLimit:       cfg.RateLimitRequests,
		RateLimitWindow: cfg.RateLimitWindow,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		Development:     cfg.IsDevelopment(),
	})

	if err := kit.RunHTTPServer(cfg.Addr(), h, logger); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (product.Store, *sql.DB, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		return product.NewMemStore(), nil, nil
	case config.DriverPostgres:
		db, err := kit.OpenDB(ctx, kit.DriverPostgres, cfg.DSN(), cfg.DBMaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		return product.NewPostgresStore(db), db, nil
	default:
		db, err := kit.OpenDB(ctx, kit.DriverSQLite, cfg.DSN(), cfg.DBMaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		return product.NewSQLiteStore(db), db, nil
	}
}
