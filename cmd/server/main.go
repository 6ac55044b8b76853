package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"brightpath/server/internal/config"
	"brightpath/server/internal/db"
	internalhttp "brightpath/server/internal/http"
	"brightpath/server/internal/jobs"
	"brightpath/server/internal/payments"
	"brightpath/server/internal/repository"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.ApplySchema(ctx, pool, cfg.SchemaPath); err != nil {
			log.Fatalf("schema apply failed: %v", err)
		}
		log.Printf("schema verified from %s", cfg.SchemaPath)
	}

	store := repository.NewStore(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
	}

	var checkout internalhttp.CheckoutCreator
	if cfg.StripeSecretKey != "" {
		checkout = payments.NewClient(cfg.StripeSecretKey, cfg.FrontendURL)
	} else {
		log.Printf("STRIPE_SECRET_KEY not set: checkout endpoint will reject requests")
	}

	server := internalhttp.NewServer(cfg, store, checkout, redisClient)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartSessionPurgeJob(ctx, cfg, store)

	go func() {
		log.Printf("brightpath server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
