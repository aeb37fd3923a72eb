package events

import "time"

// Status possíveis de um mercado
const (
	MarketOpen      = "OPEN"
	MarketSuspended = "SUSPENDED"
	MarketClosed    = "CLOSED"
	MarketSettled   = "SETTLED"
)

// PriceSize representa um nível do ladder de preços (tipicamente até 3 níveis por lado)
type PriceSize struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Runner representa uma seleção apostável dentro de um mercado
type Runner struct {
	SelectionID string      `json:"selectionId"`
	Name        string      `json:"name"`
	Status      string      `json:"status"`
	Back        []PriceSize `json:"back"`
	Lay         []PriceSize `json:"lay"`
}

// MarketSnapshot é o snapshot completo de um mercado emitido pelo fornecedor.
// Cada atualização substitui o snapshot anterior por inteiro (last-write-wins),
// com Version monotônica por mercado para descartar entregas fora de ordem.
type MarketSnapshot struct {
	MarketID    string    `json:"marketId"`
	EventID     string    `json:"eventId"`
	EventTypeID string    `json:"eventTypeId"`
	Name        string    `json:"name"`
	Status      string    `json:"status"` // OPEN | SUSPENDED | CLOSED | SETTLED
	InPlay      bool      `json:"inPlay"`
	Runners     []Runner  `json:"runners"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Source      string    `json:"source,omitempty"` // ex: "supplier-simulator"
}

// SessionEntry representa uma linha de session/fancy (mercado de sessão do cricket)
// Substituída integralmente a cada atualização, sem diff por campo
type SessionEntry struct {
	RunnerName  string  `json:"runnerName"`
	SelectionID string  `json:"selectionId"`
	BackPrice   float64 `json:"backPrice"`
	BackSize    float64 `json:"backSize"`
	LayPrice    float64 `json:"layPrice"`
	LaySize     float64 `json:"laySize"`
	MinStake    float64 `json:"minStake"`
	MaxStake    float64 `json:"maxStake"`
}

// Score é a estrutura livre de placar por esporte, substituída por inteiro
// a cada atualização; nenhum histórico é retido
type Score struct {
	EventID string         `json:"eventId"`
	Sport   string         `json:"sport"`
	Data    map[string]any `json:"data"`
}
