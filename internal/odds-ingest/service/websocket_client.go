package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/odds-ingest/publisher"
	"github.com/radieske/live-odds-platform/pkg/contracts/feed"
)

// WSClient consome o feed WebSocket do fornecedor e publica cada snapshot de
// mercado no Kafka. O fornecedor envia envelopes odds:update com um lote de
// mercados; aqui o lote é desmembrado em uma mensagem por mercado, chaveada
// pelo marketId para manter ordem por partição.
type WSClient struct {
	URL       string                    // URL do endpoint WebSocket do fornecedor
	Log       *zap.Logger               // Logger estruturado
	Publisher *publisher.KafkaPublisher // Publisher Kafka para envio das odds
}

// Start inicia o loop de conexão e escuta do WebSocket.
// Em caso de desconexão, tenta reconectar automaticamente com backoff.
func (c *WSClient) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping WS client")
			return
		default:
			if err := c.connectAndListen(ctx); err != nil {
				c.Log.Warn("connection closed", zap.Error(err))
				time.Sleep(3 * time.Second) // Aguarda antes de tentar reconectar
			}
		}
	}
}

// connectAndListen estabelece a conexão WebSocket e processa os envelopes recebidos
func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to supplier WS", zap.String("url", c.URL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("read message failed", zap.Error(err))
			return err
		}

		var frame feed.Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.Log.Warn("invalid message", zap.Error(err))
			continue
		}
		if frame.Type != feed.FrameOddsUpdate {
			continue
		}

		// Uma mensagem Kafka por mercado do lote
		for i := range frame.Markets {
			if err := c.Publisher.Publish(ctx, frame.Markets[i]); err != nil {
				c.Log.Error("failed to publish to Kafka", zap.Error(err))
			}
		}
	}
}
