package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/live-odds-platform/internal/market-service/cache"
	"github.com/radieske/live-odds-platform/internal/market-service/repo"
	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// API expõe os endpoints REST de consulta de eventos e mercados.
// Serve o snapshot inicial que as páginas mesclam com os deltas do WebSocket.
type API struct {
	ReadRepo *repo.ReadRepo // acesso ao banco de dados
	Cache    *cache.Cache   // cache de snapshots
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/events", a.listEvents)               // Lista eventos com mercados ativos
	r.Get("/v1/events/{id}/markets", a.listMarkets) // Lista mercados de um evento
	r.Get("/v1/markets/{id}/odds", a.getMarket)     // Snapshot corrente de um mercado
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listEvents retorna todos os eventos com mercados correntes
func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	ev, err := a.ReadRepo.ListEvents(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// listMarkets retorna os mercados de um evento
func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mk, err := a.ReadRepo.ListMarkets(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, mk)
}

// getMarket retorna o snapshot corrente de um mercado, preferencialmente do cache
func (a *API) getMarket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fromCache events.MarketSnapshot
	if ok, _ := a.Cache.GetMarket(r.Context(), id, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	m, err := a.ReadRepo.GetMarket(r.Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = a.Cache.SetMarket(r.Context(), id, m, 30*time.Second) // repõe no cache por 30s
	writeJSON(w, http.StatusOK, m)
}
