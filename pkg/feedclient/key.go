package feedclient

import (
	"sort"
	"strings"
)

// NormalizeMarketIDs remove duplicatas e vazios e ordena a lista.
// Duas listas que são permutações do mesmo conjunto produzem o mesmo resultado,
// evitando churn de assinatura quando os ids chegam em ordem diferente.
func NormalizeMarketIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SubscriptionKey deriva a identidade canônica de uma assinatura
// (eventTypeId, conjunto de marketIds). Uma conexão por chave distinta.
func SubscriptionKey(eventTypeID string, marketIDs []string) string {
	return eventTypeID + "|" + strings.Join(NormalizeMarketIDs(marketIDs), ",")
}
