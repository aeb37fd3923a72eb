package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// PubSubChannel define o canal Redis Pub/Sub utilizado para broadcast de odds
const PubSubChannel = "odds_updates_broadcast"

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa cada snapshot recebido para os clientes WebSocket via Hub
func StartRedisSubscriber(ctx context.Context, r *redis.Client, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, PubSubChannel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var snap events.MarketSnapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					log.Warn("ws subscriber unmarshal error", zap.Error(err))
					continue
				}
				hub.Broadcast(snap)
			}
		}
	}()
}
