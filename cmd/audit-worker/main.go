package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/barberbook/barberbook/internal/availability"
	"github.com/barberbook/barberbook/internal/config"
	"github.com/barberbook/barberbook/internal/db"
	redisclient "github.com/barberbook/barberbook/internal/redis"
	"github.com/barberbook/barberbook/internal/schedule"
	"github.com/barberbook/barberbook/internal/scheduling"
)

// The audit worker periodically cross-checks appointment state against the
// open-slot set and reports disagreements. It never repairs anything:
// a booked appointment whose slot is still open is an operator problem,
// not something to fix silently.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("audit-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running audit worker in env=%s interval=%s", cfg.Env, cfg.AuditInterval)

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

	grid := schedule.DefaultGrid()
	provider := schedule.ProviderID(cfg.ProviderID)

	availStore := availability.NewPgStore(pgPool, grid)
	apptStore := scheduling.NewPgStore(pgPool)
	engine := scheduling.NewEngine(provider, grid, availStore, apptStore, redisclient.NewLocalLocker())

	runOnce(rootCtx, engine)

	ticker := time.NewTicker(cfg.AuditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping audit worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, engine)
		}
	}
}

func runOnce(ctx context.Context, engine *scheduling.Engine) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	findings, err := engine.Audit(runCtx)
	if err != nil {
		log.Printf("audit run error: %v", err)
		return
	}
	for _, finding := range findings {
		log.Printf("audit finding: %s", finding)
	}
	log.Printf("audit run complete in %s findings=%d", time.Since(start), len(findings))
}
