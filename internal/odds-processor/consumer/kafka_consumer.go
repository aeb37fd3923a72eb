package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/odds-processor/cache"
	"github.com/radieske/live-odds-platform/internal/odds-processor/repository"
	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// Processor consome snapshots de mercado do Kafka, descarta entregas fora de
// ordem, faz cache e persiste no banco.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache

	OnConsumed     func()                      // métricas (counter++)
	OnStale        func()                      // métricas: versão fora de ordem descartada
	OnCached       func()                      // métricas
	OnPersist      func()                      // métricas
	OnError        func(string)                // métricas por fase
	OnAfterPersist func(events.MarketSnapshot) // broadcast pós-persistência

	// última versão aplicada por mercado; o upsert no banco repete a guarda
	// para o caso de reinício do worker
	lastVersion map[string]int64
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	if p.lastVersion == nil {
		p.lastVersion = make(map[string]int64)
	}
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var snap events.MarketSnapshot
		if err := json.Unmarshal(m.Value, &snap); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			continue
		}

		// Guarda de versão: um snapshot atrasado nunca sobrescreve um mais novo
		if last, ok := p.lastVersion[snap.MarketID]; ok && snap.Version <= last {
			p.Log.Debug("stale snapshot dropped",
				zap.String("market_id", snap.MarketID),
				zap.Int64("version", snap.Version),
				zap.Int64("applied", last),
			)
			if p.OnStale != nil {
				p.OnStale()
			}
			continue
		}

		// Atualiza cache Redis com o snapshot e as odds por seleção
		if err := p.Cache.SetCurrent(ctx, snap); err != nil {
			p.Log.Warn("redis set failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
			// não bloqueia persistência se falhar o cache
		} else if p.OnCached != nil {
			p.OnCached()
		}

		// Persiste/atualiza snapshot corrente e histórico no Postgres
		if err := p.Repo.UpsertCurrent(ctx, snap); err != nil {
			p.Log.Warn("db upsert failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_upsert")
			}
			continue
		}
		if err := p.Repo.InsertHistory(ctx, snap); err != nil {
			p.Log.Warn("db insert history failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_history")
			}
			continue
		}
		p.lastVersion[snap.MarketID] = snap.Version
		if p.OnPersist != nil {
			p.OnPersist()
		}
		if p.OnAfterPersist != nil {
			p.OnAfterPersist(snap)
		}
	}
}
