package liveview

import (
	"sync"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// View mantém a visão ao vivo de uma partida: snapshots iniciais (seed) vindos
// do REST mesclados com deltas do WebSocket.
//
// Regras de merge por categoria:
//   - markets/bookmakers: delta casado por marketId substitui apenas as odds
//     (ladders dos runners, status, versão) da entrada correspondente; nome e
//     forma da lista de runners permanecem do seed; as demais entradas não são
//     tocadas (mesmo ponteiro)
//   - sessions/premium/score: substituição integral quando o delta é não-vazio
//
// Um seed nunca rebaixa um valor não-vazio de volta para vazio. Deltas com
// versão menor ou igual à já aplicada por mercado são descartados e contados.
type View struct {
	mu sync.RWMutex

	markets    []*events.MarketSnapshot
	bookmakers []*events.MarketSnapshot
	sessions   []events.SessionEntry
	premium    []events.SessionEntry
	score      *events.Score

	applied      map[string]int64 // versão aplicada por marketId
	staleDropped int64
}

func New() *View {
	return &View{applied: make(map[string]int64)}
}

// SeedMarkets popula os mercados iniciais. Só tem efeito enquanto o estado
// atual estiver vazio e o seed for não-vazio.
func (v *View) SeedMarkets(ms []events.MarketSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.markets) > 0 || len(ms) == 0 {
		return
	}
	v.markets = seedEntries(ms, v.applied)
}

// SeedBookmakers popula os bookmakers iniciais, com a mesma guarda do seed de mercados
func (v *View) SeedBookmakers(ms []events.MarketSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.bookmakers) > 0 || len(ms) == 0 {
		return
	}
	v.bookmakers = seedEntries(ms, v.applied)
}

func seedEntries(ms []events.MarketSnapshot, applied map[string]int64) []*events.MarketSnapshot {
	out := make([]*events.MarketSnapshot, 0, len(ms))
	for i := range ms {
		m := ms[i]
		out = append(out, &m)
		if m.Version > applied[m.MarketID] {
			applied[m.MarketID] = m.Version
		}
	}
	return out
}

// SetSessions substitui as entradas de session/fancy quando o delta é não-vazio
func (v *View) SetSessions(es []events.SessionEntry) {
	if len(es) == 0 {
		return
	}
	v.mu.Lock()
	v.sessions = es
	v.mu.Unlock()
}

// SetPremium substitui as entradas premium quando o delta é não-vazio
func (v *View) SetPremium(es []events.SessionEntry) {
	if len(es) == 0 {
		return
	}
	v.mu.Lock()
	v.premium = es
	v.mu.Unlock()
}

// SetScore substitui o placar por inteiro; nil é ignorado
func (v *View) SetScore(s *events.Score) {
	if s == nil {
		return
	}
	v.mu.Lock()
	v.score = s
	v.mu.Unlock()
}

// ApplyDelta mescla um lote de snapshots vindo do feed nos mercados e
// bookmakers já semeados. Mercados desconhecidos são ignorados (o seed define
// o universo). Retorna quantas entradas foram efetivamente atualizadas.
func (v *View) ApplyDelta(ms []events.MarketSnapshot) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	updated := 0
	for i := range ms {
		d := &ms[i]
		if d.Version <= v.applied[d.MarketID] {
			v.staleDropped++
			continue
		}
		if v.mergeInto(v.markets, d) || v.mergeInto(v.bookmakers, d) {
			v.applied[d.MarketID] = d.Version
			updated++
		}
	}
	return updated
}

// mergeInto substitui as odds da entrada com o mesmo marketId, se existir.
// A entrada recebe um novo ponteiro; as demais permanecem intactas.
func (v *View) mergeInto(list []*events.MarketSnapshot, d *events.MarketSnapshot) bool {
	for i, cur := range list {
		if cur.MarketID != d.MarketID {
			continue
		}
		next := *cur // nome e metadados do seed são preservados
		next.Status = d.Status
		next.InPlay = d.InPlay
		next.Version = d.Version
		next.UpdatedAt = d.UpdatedAt
		next.Runners = mergeRunners(cur.Runners, d.Runners)
		list[i] = &next
		return true
	}
	return false
}

// mergeRunners troca os ladders de cada runner do seed pelo delta casado por
// selectionId, mantendo nome e a forma da lista vindos do seed
func mergeRunners(seed, delta []events.Runner) []events.Runner {
	out := make([]events.Runner, len(seed))
	copy(out, seed)
	for i := range out {
		for j := range delta {
			if delta[j].SelectionID != out[i].SelectionID {
				continue
			}
			out[i].Back = delta[j].Back
			out[i].Lay = delta[j].Lay
			out[i].Status = delta[j].Status
			break
		}
	}
	return out
}

// Markets retorna a lista atual de mercados (cópia rasa; entradas compartilhadas)
func (v *View) Markets() []*events.MarketSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*events.MarketSnapshot, len(v.markets))
	copy(out, v.markets)
	return out
}

// Bookmakers retorna a lista atual de bookmakers
func (v *View) Bookmakers() []*events.MarketSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*events.MarketSnapshot, len(v.bookmakers))
	copy(out, v.bookmakers)
	return out
}

// Sessions retorna as entradas de session/fancy mais recentes
func (v *View) Sessions() []events.SessionEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sessions
}

// Premium retorna as entradas premium mais recentes
func (v *View) Premium() []events.SessionEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.premium
}

// Score retorna o último placar recebido, ou nil
func (v *View) Score() *events.Score {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.score
}

// StaleDropped conta deltas descartados pela guarda de versão
func (v *View) StaleDropped() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.staleDropped
}
