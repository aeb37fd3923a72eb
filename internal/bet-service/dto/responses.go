package dto

import "time"

type PlaceBetResponse struct {
	BetID   string `json:"betId"`
	Status  string `json:"status"` // PENDING_CONFIRMATION
	Message string `json:"message,omitempty"`
}

type BetStatusResponse struct {
	BetID  string `json:"betId"`
	Status string `json:"status"`
}

// BetRecord é um item de GET /betting/my-bets
type BetRecord struct {
	BetID       string    `json:"betId"`
	MatchID     string    `json:"matchId"`
	MarketID    string    `json:"marketId"`
	SelectionID string    `json:"selectionId"`
	MarketName  string    `json:"marketName,omitempty"`
	RunnerName  string    `json:"runnerName,omitempty"`
	BetType     string    `json:"type"`
	StakeCents  int64     `json:"stake_cents"`
	OddValue    float64   `json:"odds"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BalanceResponse espelha a resposta da wallet para GET /betting/balance
type BalanceResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}
