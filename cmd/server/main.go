package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"medgate/internal/audit"
	"medgate/internal/consent/evaluator"
	consenthandler "medgate/internal/consent/handler"
	consentservice "medgate/internal/consent/service"
	consentstore "medgate/internal/consent/store"
	"medgate/internal/crypto"
	"medgate/internal/directory"
	"medgate/internal/gateway"
	jwttoken "medgate/internal/jwt_token"
	"medgate/internal/platform/config"
	"medgate/internal/platform/database"
	"medgate/internal/platform/httpserver"
	"medgate/internal/platform/logger"
	"medgate/internal/platform/metrics"
	"medgate/internal/registry"
	"medgate/internal/seeder"
	httptransport "medgate/internal/transport/http"
	"medgate/migrations"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing medgate",
		"addr", cfg.Addr,
		"registry_base_url", cfg.RegistryBaseURL,
		"database_configured", cfg.DatabaseURL != "",
	)

	cipher, err := crypto.NewFromString(cfg.PHICipherKey)
	if err != nil {
		log.Error("invalid PHI cipher key", "error", err)
		os.Exit(1)
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var (
		dirStore    directory.Store
		consents    consentstore.Store
		auditStore  audit.Store
		healthCheck func(ctx context.Context) error
	)
	if pool != nil {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(migrateCtx, pool.DB(), migrations.FS); err != nil {
			cancel()
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		cancel()

		dirStore = directory.NewPostgres(pool.DB())
		consents = consentstore.NewPostgres(pool.DB())
		auditStore = audit.NewPostgres(pool.DB())
		healthCheck = pool.Health
		defer pool.Close()
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		dirStore = directory.NewInMemoryStore()
		consents = consentstore.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, time.Hour)
	registryClient := registry.NewClient(cfg.RegistryBaseURL, cfg.RegistryAPIKey, cfg.RegistryTimeout,
		registry.WithMetrics(m))
	recorder := audit.NewRecorder(auditStore, log, audit.WithMetrics(m))

	consentSvc := consentservice.NewService(consents, dirStore, log, consentservice.WithMetrics(m))
	gw := gateway.New(dirStore, consents, evaluator.New(consents), recorder, registryClient, cipher, log,
		gateway.WithMetrics(m))

	if cfg.Seed {
		if err := seeder.New(dirStore, consents, cipher, log).SeedAll(context.Background()); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		TokenValidator: tokens,
		Consent:        consenthandler.New(consentSvc, log),
		Gateway:        gateway.NewHandler(gw, log),
		Directory:      directory.NewHandler(dirStore, log),
		AccessLogs:     audit.NewHandler(recorder, dirStore, log),
		HealthCheck:    healthCheck,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
