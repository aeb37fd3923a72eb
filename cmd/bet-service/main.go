package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	bhttp "github.com/radieske/live-odds-platform/internal/bet-service/http"
	"github.com/radieske/live-odds-platform/internal/bet-service/odds"
	kpub "github.com/radieske/live-odds-platform/internal/bet-service/producer"
	"github.com/radieske/live-odds-platform/internal/bet-service/repo"
	"github.com/radieske/live-odds-platform/internal/bet-service/wallet"
	"github.com/radieske/live-odds-platform/internal/betslip"
	"github.com/radieske/live-odds-platform/internal/shared/config"
	"github.com/radieske/live-odds-platform/internal/shared/db"
	"github.com/radieske/live-odds-platform/internal/shared/logger"
	"github.com/radieske/live-odds-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writer (topic bet_placed)
	writer := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		Topic:    cfg.TopicBetPlaced,
		Balancer: &kafkago.LeastBytes{},
	})
	defer writer.Close()

	// deps
	repository := repo.NewPostgres(pg)
	ov := odds.NewValidator(rdb)
	wcli := wallet.New(cfg.WalletURL)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicBetPlaced)

	// Slip: sinal de login necessário vira métrica + log
	authPrompts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bet_slip_auth_prompts_total",
		Help: "tentativas de adicionar seleção sem sessão",
	})
	prometheus.MustRegister(authPrompts)

	slip := betslip.NewStore(
		func(userID string) bool { return userID != "" },
		func(userID string) {
			authPrompts.Inc()
			log.Info("auth required for bet slip")
		},
	)

	// HTTP público
	api := bhttp.NewServer(log, repository, ov, wcli, publ, slip)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.Start(log, cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("bet-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
