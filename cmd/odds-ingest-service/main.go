package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/odds-ingest/publisher"
	"github.com/radieske/live-odds-platform/internal/odds-ingest/service"
	"github.com/radieske/live-odds-platform/internal/shared/config"
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

	log.Info("Kafka brokers", zap.String("brokers", cfg.KafkaBrokers))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka Publisher
	pub := publisher.NewKafkaPublisher(
		strings.Split(cfg.KafkaBrokers, ","),
		cfg.TopicOddsUpdates,
		log,
	)
	defer pub.Close()

	// WS Client
	wsClient := &service.WSClient{
		URL:       cfg.SupplierWSURL,
		Log:       log,
		Publisher: pub,
	}
	go wsClient.Start(ctx)

	// Metrics e health
	metrics.Start(log, cfg.MetricsPort, nil)

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received")
	cancel()
	time.Sleep(2 * time.Second)
}
