package dto

type BetPlaced struct {
	BetID       string  `json:"bet_id"`
	UserID      string  `json:"user_id"`
	MatchID     string  `json:"match_id"`
	MarketID    string  `json:"market_id"`
	SelectionID string  `json:"selection_id"`
	BetType     string  `json:"bet_type"`
	StakeCents  int64   `json:"stake_cents"`
	OddValue    float64 `json:"odd_value"`
	ReservedRef string  `json:"reserved_ref"`
	TsUnixMs    int64   `json:"ts_unix_ms"`
}

type SupplierConfirmResp struct {
	Status      string `json:"status"`
	ProviderRef string `json:"providerRef"`
	Reason      string `json:"reason,omitempty"`
}
