package feed

import "github.com/radieske/live-odds-platform/pkg/contracts/events"

// Tipos de frame servidor→cliente; qualquer outro valor é ignorado pelo cliente
const (
	FrameOddsUpdate = "odds:update"
)

// Ações de controle cliente→servidor
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// ControlFrame é o frame de controle enviado pelo cliente para assinar ou
// cancelar a assinatura de um conjunto de mercados de um tipo de evento
type ControlFrame struct {
	Action      string   `json:"action"` // subscribe | unsubscribe
	EventTypeID string   `json:"eventTypeId"`
	MarketIDs   []string `json:"marketIds"`
}

// Frame é o envelope servidor→cliente com atualizações de odds.
// MarketIDs reflete os mercados presentes em Markets.
type Frame struct {
	Type        string                  `json:"type"`
	EventTypeID string                  `json:"eventTypeId"`
	MarketIDs   []string                `json:"marketIds"`
	Markets     []events.MarketSnapshot `json:"markets,omitempty"`
}
