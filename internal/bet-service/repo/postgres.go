package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/radieske/live-odds-platform/internal/bet-service/dto"
)

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreatePending insere uma nova aposta com status PENDING_CONFIRMATION
func (p *Postgres) CreatePending(ctx context.Context, b *Bet) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets
		  (id,user_id,match_id,market_id,selection_id,market_name,runner_name,bet_type,stake_cents,odd_value,idempotency_key,status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'PENDING_CONFIRMATION')`,
		id, b.UserID, b.MatchID, b.MarketID, b.SelectionID, b.MarketName,
		b.RunnerName, b.BetType, b.StakeCents, b.OddValue, b.IdempotencyKey,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindByIdempotencyKey retorna a aposta já criada para (usuário, chave), se houver.
// Um replay de POST /betting/place devolve a aposta original em vez de duplicar.
func (p *Postgres) FindByIdempotencyKey(ctx context.Context, userID, key string) (betID, status string, err error) {
	err = p.db.QueryRowContext(ctx,
		`SELECT id, status FROM bets WHERE user_id=$1 AND idempotency_key=$2`,
		userID, key).Scan(&betID, &status)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	return betID, status, err
}

// Delete remove uma aposta que não chegou a reservar saldo. Liberar a linha
// libera também a idempotency_key, permitindo que o retry refaça o fluxo
// completo em vez de receber um replay de uma aposta sem reserva.
func (p *Postgres) Delete(ctx context.Context, betID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM bets WHERE id=$1`, betID)
	return err
}

// GetStatus retorna o status atual de uma aposta pelo betID
func (p *Postgres) GetStatus(ctx context.Context, betID string) (string, error) {
	var s string
	err := p.db.QueryRowContext(ctx, `SELECT status FROM bets WHERE id=$1`, betID).Scan(&s)
	return s, err
}

// ListByUser retorna as apostas do usuário, mais recentes primeiro
func (p *Postgres) ListByUser(ctx context.Context, userID string, limit int) ([]dto.BetRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, match_id, market_id, selection_id, market_name, runner_name,
		       bet_type, stake_cents, odd_value, status, created_at
		FROM bets
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dto.BetRecord
	for rows.Next() {
		var b dto.BetRecord
		if err := rows.Scan(&b.BetID, &b.MatchID, &b.MarketID, &b.SelectionID,
			&b.MarketName, &b.RunnerName, &b.BetType, &b.StakeCents,
			&b.OddValue, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
