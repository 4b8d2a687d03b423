package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"steeple/internal/audit"
	checkinstore "steeple/internal/checkin/store"
	"steeple/internal/family/loader"
	loadermetrics "steeple/internal/family/loader/metrics"
	httpapi "steeple/internal/http"
	"steeple/internal/jwttoken"
	"steeple/internal/pickup"
	pickuphandler "steeple/internal/pickup/handler"
	pickupmetrics "steeple/internal/pickup/metrics"
	"steeple/internal/platform/config"
	"steeple/internal/platform/httpserver"
	"steeple/internal/platform/logger"
	"steeple/internal/platform/postgres"
	"steeple/internal/platform/redisclient"
	"steeple/internal/ratelimit/codelockout"
	"steeple/internal/search"
	searchhandler "steeple/internal/search/handler"
	searchmetrics "steeple/internal/search/metrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var (
		st checkinstore.Store
		db *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		st = checkinstore.NewPostgres(db)
	} else {
		log.Warn("no database url configured, using in-memory store")
		st = checkinstore.NewMemory()
	}

	var lockoutCounter codelockout.Counter
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		lockoutCounter = codelockout.NewRedisCounter(redisClient)
	} else {
		log.Warn("no redis url configured, using in-memory code lockout")
		lockoutCounter = codelockout.NewMemoryCounter()
	}
	lockout := codelockout.New(lockoutCounter,
		codelockout.WithLogger(log),
		codelockout.WithPolicy(cfg.Lockout.Threshold, cfg.Lockout.Window, cfg.Lockout.LockFor),
	)

	publisher := audit.NewPublisher(audit.NewInMemoryStore())

	familyLoader, err := loader.New(st,
		loader.WithLogger(log),
		loader.WithMetrics(loadermetrics.New()),
	)
	if err != nil {
		log.Error("family loader init failed", "error", err)
		os.Exit(1)
	}

	searchSvc, err := search.New(st, familyLoader,
		search.WithLogger(log),
		search.WithMetrics(searchmetrics.New()),
		search.WithLockout(lockout),
		search.WithAudit(publisher),
	)
	if err != nil {
		log.Error("search service init failed", "error", err)
		os.Exit(1)
	}

	pickupSvc, err := pickup.New(st,
		pickup.WithLogger(log),
		pickup.WithMetrics(pickupmetrics.New()),
		pickup.WithAudit(publisher),
	)
	if err != nil {
		log.Error("pickup service init failed", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.New(cfg.JWTSigningKey, "steeple", "steeple-terminals")

	health := map[string]httpapi.HealthChecker{}
	if db != nil {
		health["postgres"] = db.PingContext
	}
	if redisClient != nil {
		health["redis"] = func(ctx context.Context) error {
			return redisclient.Health(ctx, redisClient)
		}
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:       log,
		JWTValidator: jwttoken.NewServiceAdapter(jwtService),
		Handlers: []httpapi.Registrar{
			searchhandler.New(searchSvc, log),
			pickuphandler.New(pickupSvc, log),
		},
		HealthChecks: health,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting steeple", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
