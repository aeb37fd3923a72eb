package betslip

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrAuthRequired = errors.New("auth required")
	ErrNotFound     = errors.New("selection not found")
)

// Selection é a aposta em preparação no slip. Existe no máximo uma por usuário:
// uma nova seleção substitui a anterior, nunca acumula.
type Selection struct {
	ID           string  `json:"id"`
	MatchID      string  `json:"matchId"`
	MarketID     string  `json:"marketId"`
	SelectionID  string  `json:"selectionId"`
	MarketName   string  `json:"marketName,omitempty"`
	RunnerName   string  `json:"runnerName,omitempty"`
	BetType      string  `json:"type"` // "back" | "lay"
	Odds         float64 `json:"odds"`
	Stake        float64 `json:"stake"`
	PotentialWin string  `json:"potentialWin"` // stake × odds, 2 casas
}

// AuthFunc responde se o usuário tem sessão autenticada
type AuthFunc func(userID string) bool

// SignalFunc é chamada quando um usuário sem sessão tenta adicionar uma seleção
type SignalFunc func(userID string)

// Store guarda o slip de cada usuário: um slot único por usuário,
// tornando a regra "substitui, não acrescenta" uma propriedade do tipo
type Store struct {
	mu             sync.RWMutex
	slips          map[string]*Selection
	authed         AuthFunc
	onAuthRequired SignalFunc
}

func NewStore(authed AuthFunc, onAuthRequired SignalFunc) *Store {
	return &Store{
		slips:          make(map[string]*Selection),
		authed:         authed,
		onAuthRequired: onAuthRequired,
	}
}

// Add coloca a seleção no slip do usuário, substituindo a anterior.
// Sem sessão autenticada: o slip não muda e exatamente um sinal de login
// necessário é emitido. Ids ausentes são preenchidos: marketId a partir do
// slug do nome do mercado, selectionId a partir do id da própria seleção.
func (s *Store) Add(userID string, sel Selection) (*Selection, error) {
	if s.authed != nil && !s.authed(userID) {
		if s.onAuthRequired != nil {
			s.onAuthRequired(userID)
		}
		return nil, ErrAuthRequired
	}

	if sel.MarketID == "" {
		sel.MarketID = Slugify(sel.MarketName)
	}
	if sel.SelectionID == "" {
		sel.SelectionID = sel.ID
	}
	sel.PotentialWin = potentialWin(sel.Stake, sel.Odds)

	s.mu.Lock()
	s.slips[userID] = &sel
	s.mu.Unlock()
	return &sel, nil
}

// UpdateStake ajusta a stake da seleção e recalcula o ganho potencial;
// os demais campos não são alterados
func (s *Store) UpdateStake(userID, id string, stake float64) (*Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.slips[userID]
	if !ok || cur.ID != id {
		return nil, ErrNotFound
	}
	next := *cur
	next.Stake = stake
	next.PotentialWin = potentialWin(stake, next.Odds)
	s.slips[userID] = &next
	return &next, nil
}

// Get retorna a seleção pendente do usuário, ou nil
func (s *Store) Get(userID string) *Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slips[userID]
}

// Remove descarta a seleção se o id casar
func (s *Store) Remove(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.slips[userID]
	if !ok || cur.ID != id {
		return ErrNotFound
	}
	delete(s.slips, userID)
	return nil
}

// Clear esvazia o slip do usuário
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	delete(s.slips, userID)
	s.mu.Unlock()
}

func potentialWin(stake, odds float64) string {
	return fmt.Sprintf("%.2f", stake*odds)
}

// Slugify normaliza um nome de mercado para uso como id
// ex: "Match Odds" -> "match-odds"
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
