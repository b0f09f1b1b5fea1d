package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"finledger.org/internal/auth"
	"finledger.org/internal/config"
	"finledger.org/internal/finance"
	"finledger.org/internal/httpapi"
	"finledger.org/internal/obs"
	"finledger.org/internal/ratelimit"
)

var version = "0.3.0"

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Postgres when a DSN is configured; in-memory stores otherwise so the
	// service still comes up for local development.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		log.Println("FINLEDGER_PG_DSN not set; using in-memory stores")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	var revoked auth.RevocationStore
	var rateBackend ratelimit.Backend
	if redisClient != nil {
		revoked = auth.NewRedisRevocations(redisClient)
		rateBackend = ratelimit.NewRedis(redisClient)
	} else {
		revoked = auth.NewMemRevocations()
	}

	tokens, err := auth.NewTokenManager(cfg.AuthSecret, revoked,
		auth.WithTokenTTLs(cfg.AccessTTL, cfg.RefreshTTL))
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}

	var credStore auth.CredentialStore
	var ledgerStore finance.Store
	if db != nil {
		credStore = auth.NewPGStore(db)
		ledgerStore = finance.NewPGStore(db)
	} else {
		credStore = auth.NewMemStore()
		ledgerStore = finance.NewMemStore()
	}

	authSvc, err := auth.NewService(credStore, auth.NewPasswordHasher(cfg.BcryptCost), tokens,
		auth.WithLockoutPolicy(cfg.LockoutLimit, cfg.LockoutFor))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	ledgerSvc := finance.NewService(ledgerStore)
	limiter := ratelimit.NewLimiter(rateBackend)

	api := httpapi.New(authSvc, ledgerSvc, limiter, httpapi.ReadyProbe{DB: db}, version)

	handler := httpapi.MaxBodyBytes(api.Handler(), cfg.MaxBodyBytes)
	handler = httpapi.BurstGuard(handler, 50, 25)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting finledger-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
