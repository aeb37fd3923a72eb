package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mcache "github.com/radieske/live-odds-platform/internal/market-service/cache"
	httpapi "github.com/radieske/live-odds-platform/internal/market-service/http"
	"github.com/radieske/live-odds-platform/internal/market-service/repo"
	"github.com/radieske/live-odds-platform/internal/market-service/ws"
	sharedcache "github.com/radieske/live-odds-platform/internal/shared/cache"
	"github.com/radieske/live-odds-platform/internal/shared/config"
	"github.com/radieske/live-odds-platform/internal/shared/db"
	"github.com/radieske/live-odds-platform/internal/shared/logger"
	"github.com/radieske/live-odds-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres para leitura de snapshots
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cache de snapshots + canal Pub/Sub do feed
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hub WebSocket alimentado pelo Redis Pub/Sub
	hub := ws.NewHub(log, func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, redisClient, hub, log)

	// API REST de snapshots
	api := &httpapi.API{
		ReadRepo: &repo.ReadRepo{DB: pg},
		Cache:    mcache.New(redisClient),
	}

	r := chi.NewRouter()
	r.Mount("/", api.Router())
	r.Get("/ws", hub.HandleWS)

	// metrics/health
	metrics.Start(log, cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return err
		}
		return redisClient.Ping(hctx).Err()
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info("market-service listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
