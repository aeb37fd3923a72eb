package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// RedisCache encapsula o cache de odds no Redis.
// Além do snapshot corrente por mercado, grava a melhor odd por seleção/lado
// em chaves simples usadas pelo validador do bet-service.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis do snapshot corrente de um mercado
func key(marketID string) string { return "odds:current:" + marketID }

// SelectionKey gera a chave da melhor odd de uma seleção em um lado (back|lay)
func SelectionKey(marketID, selectionID, side string) string {
	return fmt.Sprintf("odds:%s:%s:%s", marketID, selectionID, side)
}

// SetCurrent armazena o snapshot do mercado e as odds por seleção no Redis
func (r *RedisCache) SetCurrent(ctx context.Context, m events.MarketSnapshot) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}

	pipe := r.Client.Pipeline()
	pipe.Set(ctx, key(m.MarketID), b, r.TTL)
	for i := range m.Runners {
		run := &m.Runners[i]
		if len(run.Back) > 0 {
			pipe.Set(ctx, SelectionKey(m.MarketID, run.SelectionID, "back"),
				fmt.Sprintf("%g", run.Back[0].Price), r.TTL)
		}
		if len(run.Lay) > 0 {
			pipe.Set(ctx, SelectionKey(m.MarketID, run.SelectionID, "lay"),
				fmt.Sprintf("%g", run.Lay[0].Price), r.TTL)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}
