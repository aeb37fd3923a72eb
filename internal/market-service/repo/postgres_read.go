package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/radieske/live-odds-platform/internal/market-service/dto"
	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

type ReadRepo struct {
	DB *sql.DB
}

func (r *ReadRepo) ListEvents(ctx context.Context) ([]dto.Event, error) {
	const q = `
		SELECT event_id, MAX(event_type_id) AS event_type_id, COUNT(*) AS markets
		FROM markets_current
		GROUP BY event_id
		ORDER BY event_id;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Event
	for rows.Next() {
		var e dto.Event
		if err := rows.Scan(&e.EventID, &e.EventTypeID, &e.Markets); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ReadRepo) ListMarkets(ctx context.Context, eventID string) ([]dto.MarketSummary, error) {
	const q = `
		SELECT market_id, name, status, in_play, version
		FROM markets_current
		WHERE event_id = $1
		ORDER BY market_id;
	`
	rows, err := r.DB.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.MarketSummary
	for rows.Next() {
		var m dto.MarketSummary
		if err := rows.Scan(&m.MarketID, &m.Name, &m.Status, &m.InPlay, &m.Version); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMarket retorna o snapshot corrente de um mercado, com runners desserializados do JSONB
func (r *ReadRepo) GetMarket(ctx context.Context, marketID string) (*events.MarketSnapshot, error) {
	const q = `
		SELECT market_id, event_id, event_type_id, name, status, in_play, runners, version, updated_at
		FROM markets_current
		WHERE market_id = $1;
	`
	var m events.MarketSnapshot
	var runners []byte
	err := r.DB.QueryRowContext(ctx, q, marketID).Scan(
		&m.MarketID, &m.EventID, &m.EventTypeID, &m.Name, &m.Status, &m.InPlay,
		&runners, &m.Version, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(runners, &m.Runners); err != nil {
		return nil, err
	}
	return &m, nil
}
