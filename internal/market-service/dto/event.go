package dto

// Event representa um evento esportivo (ex: uma partida)
type Event struct {
	EventID     string `json:"eventId"`
	EventTypeID string `json:"eventTypeId"`
	Markets     int    `json:"markets"`
}

// MarketSummary é a listagem resumida de um mercado de um evento
type MarketSummary struct {
	MarketID string `json:"marketId"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	InPlay   bool   `json:"inPlay"`
	Version  int64  `json:"version"`
}
