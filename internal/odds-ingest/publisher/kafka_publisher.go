package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// KafkaPublisher encapsula o writer Kafka e o logger.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewKafkaPublisher cria um publisher para um tópico Kafka.
// A função lê a lista de brokers, opcionalmente garante a existência do tópico
// em ambientes de desenvolvimento, e inicializa o writer com timeouts.
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	if len(brokers) == 0 {
		log.Fatal("kafka brokers not provided")
	}

	// Contextos com timeout curto para operações de controle (quando aplicáveis).
	ctrlCtx, ctrlCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ctrlCancel()

	// Criação de tópico apenas quando APP_ENV indica ambiente local ou dev.
	if env := os.Getenv("APP_ENV"); env == "local" || env == "dev" {
		conn, err := kafka.DialContext(ctrlCtx, "tcp", brokers[0])
		if err != nil {
			log.Fatal("failed to connect to kafka", zap.Error(err))
		}
		defer conn.Close()

		controller, err := conn.Controller()
		if err != nil {
			log.Fatal("failed to get kafka controller", zap.Error(err))
		}

		controllerAddr := fmt.Sprintf("%s:%d", controller.Host, controller.Port)
		cconn, err := kafka.DialContext(ctrlCtx, "tcp", controllerAddr)
		if err != nil {
			log.Fatal("failed to dial controller", zap.Error(err))
		}
		defer cconn.Close()

		cfg := kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}

		if err := cconn.CreateTopics(cfg); err != nil && !strings.Contains(err.Error(), "already exists") {
			log.Warn("failed to create kafka topic", zap.String("topic", topic), zap.Error(err))
		} else if err == nil {
			log.Info("kafka topic created", zap.String("topic", topic))
		}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
	}

	return &KafkaPublisher{
		writer: writer,
		log:    log,
	}
}

// Publish serializa o snapshot em JSON e envia para o tópico configurado.
// A chave da mensagem usa o MarketID: atualizações do mesmo mercado caem na
// mesma partição e preservam ordem relativa.
func (p *KafkaPublisher) Publish(ctx context.Context, m events.MarketSnapshot) error {
	value, err := json.Marshal(m)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(m.MarketID),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish market snapshot", zap.Error(err))
		return err
	}

	p.log.Debug("published market snapshot",
		zap.String("market_id", m.MarketID),
		zap.Int64("version", m.Version),
	)
	return nil
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
