package events

import "time"

// BetConfirmed fecha o ciclo de uma aposta: o bet-confirmation-worker publica
// este evento depois de consultar o fornecedor e acertar a carteira
type BetConfirmed struct {
	BetID  string `json:"betId"`
	UserID string `json:"userId"`
	// CONFIRMED efetiva a reserva; REJECTED estorna o valor
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	ProviderRef string    `json:"providerRef,omitempty"`
	Ts          time.Time `json:"ts"`
}
