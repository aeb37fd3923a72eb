package repo

import "time"

// Bet é o modelo persistido no Postgres.
type Bet struct {
	ID             string
	UserID         string
	MatchID        string
	MarketID       string
	SelectionID    string
	MarketName     string
	RunnerName     string
	BetType        string // "back" | "lay"
	StakeCents     int64
	OddValue       float64
	Status         string
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
