package dto

// PlaceBetRequest é o corpo de POST /betting/place.
// O usuário vem do header X-User-ID; a chave de idempotência do header
// Idempotency-Key.
type PlaceBetRequest struct {
	MatchID     string  `json:"matchId"`
	MarketID    string  `json:"marketId"`
	SelectionID string  `json:"selectionId"`
	MarketName  string  `json:"marketName,omitempty"`
	RunnerName  string  `json:"runnerName,omitempty"`
	OddValue    float64 `json:"odds"` // odd que o cliente viu
	StakeCents  int64   `json:"stake_cents"`
	BetType     string  `json:"type"` // "back" | "lay"
}

// AddSlipRequest adiciona/substitui a seleção do slip do usuário
type AddSlipRequest struct {
	ID          string  `json:"id"`
	MatchID     string  `json:"matchId"`
	MarketID    string  `json:"marketId,omitempty"`
	SelectionID string  `json:"selectionId,omitempty"`
	MarketName  string  `json:"marketName,omitempty"`
	RunnerName  string  `json:"runnerName,omitempty"`
	BetType     string  `json:"type"`
	Odds        float64 `json:"odds"`
	Stake       float64 `json:"stake"`
}

// UpdateStakeRequest ajusta a stake da seleção do slip
type UpdateStakeRequest struct {
	Stake float64 `json:"stake"`
}
