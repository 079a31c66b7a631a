package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/barberbook/barberbook/internal/api"
	"github.com/barberbook/barberbook/internal/availability"
	"github.com/barberbook/barberbook/internal/config"
	"github.com/barberbook/barberbook/internal/db"
	redisclient "github.com/barberbook/barberbook/internal/redis"
	"github.com/barberbook/barberbook/internal/schedule"
	"github.com/barberbook/barberbook/internal/scheduling"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s provider=%s", cfg.Env, cfg.HTTPPort, cfg.ProviderID)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	var rdb *redis.Client
	var locker redisclient.Locker
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
		log.Println("connected to Redis, using distributed slot locks")
	} else {
		locker = redisclient.NewLocalLocker()
		log.Println("no REDIS_ADDR configured, using process-local slot locks")
	}

	grid := schedule.DefaultGrid()
	provider := schedule.ProviderID(cfg.ProviderID)

	availStore := availability.NewPgStore(pgPool, grid)
	apptStore := scheduling.NewPgStore(pgPool)
	engine := scheduling.NewEngine(provider, grid, availStore, apptStore, locker)

	router := api.NewRouter(api.RouterConfig{
		Engine:  engine,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}

	log.Println("api-server stopped")
}
