package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// PostgresRepo implementa a persistência de snapshots de mercado no Postgres
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// UpsertCurrent insere ou atualiza o snapshot corrente na tabela markets_current.
// A cláusula WHERE repete a guarda de versão: mesmo que o worker reinicie sem
// o estado em memória, um snapshot atrasado não sobrescreve um mais novo.
func (r *PostgresRepo) UpsertCurrent(ctx context.Context, m events.MarketSnapshot) error {
	runners, err := json.Marshal(m.Runners)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO markets_current
		  (market_id, event_id, event_type_id, name, status, in_play, runners, version, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (market_id) DO UPDATE SET
		  event_id      = EXCLUDED.event_id,
		  event_type_id = EXCLUDED.event_type_id,
		  name          = EXCLUDED.name,
		  status        = EXCLUDED.status,
		  in_play       = EXCLUDED.in_play,
		  runners       = EXCLUDED.runners,
		  version       = EXCLUDED.version,
		  updated_at    = EXCLUDED.updated_at
		WHERE markets_current.version < EXCLUDED.version
	`
	_, err = r.DB.ExecContext(ctx, q,
		m.MarketID, m.EventID, m.EventTypeID, m.Name, m.Status, m.InPlay,
		runners, m.Version, m.UpdatedAt,
	)
	return err
}

// InsertHistory registra o snapshot no histórico (markets_history)
func (r *PostgresRepo) InsertHistory(ctx context.Context, m events.MarketSnapshot) error {
	runners, err := json.Marshal(m.Runners)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO markets_history
		  (market_id, status, runners, version, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5)
	`
	_, err = r.DB.ExecContext(ctx, q,
		m.MarketID, m.Status, runners, m.Version, m.UpdatedAt,
	)
	return err
}
