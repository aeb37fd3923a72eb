package events

type BetPlaced struct {
	BetID       string  `json:"bet_id"`
	UserID      string  `json:"user_id"`
	MatchID     string  `json:"match_id"`
	MarketID    string  `json:"market_id"`
	SelectionID string  `json:"selection_id"`
	MarketName  string  `json:"market_name,omitempty"`
	RunnerName  string  `json:"runner_name,omitempty"`
	BetType     string  `json:"bet_type"` // "back" | "lay"
	StakeCents  int64   `json:"stake_cents"`
	OddValue    float64 `json:"odd_value"`
	ReservedRef string  `json:"reserved_ref"` // external_ref usado na reserva da carteira (betID)
	TsUnixMs    int64   `json:"ts_unix_ms"`
}
