package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"

	"github.com/radieske/live-odds-platform/internal/odds-processor/cache"
	"github.com/radieske/live-odds-platform/internal/odds-processor/consumer"
	"github.com/radieske/live-odds-platform/internal/odds-processor/pubsub"
	"github.com/radieske/live-odds-platform/internal/odds-processor/repository"
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

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Instancia cache Redis e repositório Postgres para odds
	ttl := 60 * time.Second
	rcache := cache.NewRedisCache(redisClient, ttl)
	repo := repository.NewPostgresRepo(pg)

	// Configura o consumer Kafka (consumer group odds-processor)
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  "odds-processor",
		Topic:    cfg.TopicOddsUpdates,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_messages_consumed_total", Help: "mensagens consumidas"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_stale_dropped_total", Help: "snapshots descartados por versão fora de ordem"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_cache_sets_total", Help: "sets no cache"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_db_writes_total", Help: "escritas no banco (upsert+history)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_proc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, stale, cached, persist, errorsBy)

	// Broadcaster para publicar atualizações no Redis Pub/Sub (usado pelo market-service/ws)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	// Instancia o processor, conectando callbacks de métricas e broadcast
	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repo,
		Cache:      rcache,
		OnConsumed: func() { consumed.Inc() },
		OnStale:    func() { stale.Inc() },
		OnCached:   func() { cached.Inc() },
		OnPersist:  func() { persist.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },

		// Após sucesso de persistência, envia o snapshot para o WebSocket via Redis Pub/Sub
		OnAfterPersist: func(snap events.MarketSnapshot) {
			b, _ := json.Marshal(snap)

			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := broadcaster.Publish(ctx, pubsub.ChannelOddsBroadcast, b); err != nil {
				log.Warn("ws broadcast publish failed", zap.Error(err))
			}
		},
	}

	// Servidor HTTP para métricas e health check
	metrics.Start(log, cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return err
		}
		return redisClient.Ping(hctx).Err()
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("odds-processor started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("odds-processor stopped")
}
