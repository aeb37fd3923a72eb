// Package topics centraliza os nomes de tópicos Kafka do pipeline.
package topics

const (
	// OddsUpdates carrega um MarketSnapshot por mensagem, chaveado pelo
	// marketId (odds-ingest-service -> odds-processor-worker)
	OddsUpdates = "odds_updates"

	// BetPlaced é emitido pelo bet-service após a reserva de saldo
	// (bet-service -> bet-confirmation-worker)
	BetPlaced = "bet_placed"

	// BetConfirmed é o desfecho da confirmação junto ao fornecedor
	BetConfirmed = "bet_confirmed"

	// DLQs de mensagens que esgotaram as tentativas
	BetPlacedDLQ    = "bet_placed_dlq"
	BetConfirmedDLQ = "bet_confirmed_dlq"
)
