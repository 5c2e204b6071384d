package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/allandev/salon-booking/internal/booking"
	"github.com/allandev/salon-booking/internal/config"
	"github.com/allandev/salon-booking/internal/db"
	redisclient "github.com/allandev/salon-booking/internal/redis"
	"github.com/allandev/salon-booking/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("retention-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running retention worker in env=%s interval=%s retention_days=%d",
		cfg.Env, cfg.WorkerInterval, cfg.RetentionDays)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := store.NewPgStore(pgPool, cfg.ClientID)
	locker := redisclient.NewRedisDayLocker(rdb, cfg.ClientID, cfg.LockTTL)
	svc := booking.NewService(repo, locker)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.RetentionDays)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping retention worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.RetentionDays)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, retentionDays int) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.PurgeExpired(runCtx, retentionDays); err != nil {
		log.Printf("retention run error: %v", err)
		return
	}
	log.Printf("retention run complete in %s", time.Since(start))
}
