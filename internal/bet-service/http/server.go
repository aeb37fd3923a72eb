package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/radieske/live-odds-platform/internal/bet-service/dto"
	"github.com/radieske/live-odds-platform/internal/bet-service/repo"
	"github.com/radieske/live-odds-platform/internal/betslip"
	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// Publisher publica o evento bet_placed após a reserva de saldo
type Publisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
}

// BetRepo é a persistência de apostas usada pelo handler
type BetRepo interface {
	CreatePending(ctx context.Context, b *repo.Bet) (string, error)
	Delete(ctx context.Context, betID string) error
	FindByIdempotencyKey(ctx context.Context, userID, key string) (betID, status string, err error)
	GetStatus(ctx context.Context, betID string) (string, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]dto.BetRecord, error)
}

// OddsSource consulta a melhor odd corrente de uma seleção no cache
type OddsSource interface {
	CurrentOdd(ctx context.Context, marketID, selectionID, side string) (string, error)
}

// WalletAPI cobre as chamadas à wallet feitas durante a colocação
type WalletAPI interface {
	Reserve(ctx context.Context, userID string, cents int64, externalRef string) (string, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

// Server expõe a API de apostas: slip de preparação e colocação efetiva.
// A colocação exige Idempotency-Key: um replay (ex.: timeout do cliente após
// aceite do servidor) devolve a aposta original em vez de duplicar.
type Server struct {
	log  *zap.Logger
	repo BetRepo
	odds OddsSource
	wcli WalletAPI
	publ Publisher
	slip *betslip.Store

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // por usuário
}

func NewServer(log *zap.Logger, r BetRepo, v OddsSource, w WalletAPI, p Publisher, s *betslip.Store) *Server {
	return &Server{
		log:      log,
		repo:     r,
		odds:     v,
		wcli:     w,
		publ:     p,
		slip:     s,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/betting/place", s.placeBet)
	r.Get("/betting/bets/{id}", s.getBetStatus)
	r.Get("/betting/my-bets", s.myBets)
	r.Get("/betting/balance", s.balance)

	r.Get("/betting/slip", s.getSlip)
	r.Post("/betting/slip", s.addToSlip)
	r.Patch("/betting/slip/{id}/stake", s.updateStake)
	r.Delete("/betting/slip/{id}", s.removeFromSlip)
	return r
}

// limiter devolve o rate limiter do usuário (2 apostas/s, burst 5)
func (s *Server) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(2), 5)
		s.limiters[userID] = l
	}
	return l
}

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("userId")
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		http.Error(w, "Idempotency-Key required", http.StatusBadRequest)
		return
	}

	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.MatchID == "" || req.MarketID == "" || req.SelectionID == "" ||
		req.StakeCents <= 0 || req.OddValue <= 0 ||
		(req.BetType != "back" && req.BetType != "lay") {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if !s.limiter(uid).Allow() {
		http.Error(w, "too many bets", http.StatusTooManyRequests)
		return
	}

	// Replay idempotente: devolve a aposta original
	if betID, status, err := s.repo.FindByIdempotencyKey(r.Context(), uid, idemKey); err == nil && betID != "" {
		writeJSON(w, dto.PlaceBetResponse{BetID: betID, Status: status, Message: "replay"})
		return
	}

	// 1) Valida odd atual no cache. Cache miss libera a aposta (mercado sem
	// odd publicada ainda); indisponibilidade do Redis pula a checagem, mas
	// fica registrada
	curOddStr, err := s.odds.CurrentOdd(r.Context(), req.MarketID, req.SelectionID, req.BetType)
	if err != nil {
		s.log.Warn("odds cache unavailable, skipping drift check",
			zap.String("marketId", req.MarketID),
			zap.String("selectionId", req.SelectionID),
			zap.Error(err))
	} else if curOddStr != "" && curOddStr != strconv.FormatFloat(req.OddValue, 'f', -1, 64) {
		// compara como string simples; se divergir, retorna 409 com a odd corrente
		http.Error(w, "odd changed; current="+curOddStr, http.StatusConflict)
		return
	}

	// 2) Cria aposta local PENDING
	betID, err := s.repo.CreatePending(r.Context(), &repo.Bet{
		UserID:         uid,
		MatchID:        req.MatchID,
		MarketID:       req.MarketID,
		SelectionID:    req.SelectionID,
		MarketName:     req.MarketName,
		RunnerName:     req.RunnerName,
		BetType:        req.BetType,
		StakeCents:     req.StakeCents,
		OddValue:       req.OddValue,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// 3) Reserva saldo via wallet (external_ref = betID). Se a reserva falha,
	// a aposta recém-criada é descartada; deixá-la no banco faria um retry com
	// a mesma Idempotency-Key receber um replay de sucesso para uma aposta sem
	// reserva e sem bet_placed, que nenhum worker confirmaria
	if _, err := s.wcli.Reserve(r.Context(), uid, req.StakeCents, betID); err != nil {
		if derr := s.repo.Delete(r.Context(), betID); derr != nil {
			s.log.Error("discard bet after failed reserve",
				zap.String("betId", betID), zap.Error(derr))
		}
		http.Error(w, "wallet reserve failed", http.StatusConflict)
		return
	}

	// 4) Publica evento bet_placed
	if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:       betID,
		UserID:      uid,
		MatchID:     req.MatchID,
		MarketID:    req.MarketID,
		SelectionID: req.SelectionID,
		MarketName:  req.MarketName,
		RunnerName:  req.RunnerName,
		BetType:     req.BetType,
		StakeCents:  req.StakeCents,
		OddValue:    req.OddValue,
		ReservedRef: betID,
	}); err != nil {
		s.log.Error("publish bet_placed", zap.String("betId", betID), zap.Error(err))
	}

	// Aposta colocada: o slip do usuário é consumido
	s.slip.Clear(uid)

	writeJSON(w, dto.PlaceBetResponse{
		BetID:  betID,
		Status: "PENDING_CONFIRMATION",
	})
}

func (s *Server) getBetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := s.repo.GetStatus(r.Context(), id)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, dto.BetStatusResponse{BetID: id, Status: st})
}

func (s *Server) myBets(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	bets, err := s.repo.ListByUser(r.Context(), uid, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if bets == nil {
		bets = []dto.BetRecord{}
	}
	writeJSON(w, bets)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	bal, err := s.wcli.Balance(r.Context(), uid)
	if err != nil {
		http.Error(w, "wallet unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, dto.BalanceResponse{UserID: uid, BalanceCents: bal})
}

func (s *Server) getSlip(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	sel := s.slip.Get(uid)
	if sel == nil {
		writeJSON(w, map[string]any{"selection": nil})
		return
	}
	writeJSON(w, map[string]any{"selection": sel})
}

func (s *Server) addToSlip(w http.ResponseWriter, r *http.Request) {
	var req dto.AddSlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Odds <= 0 || (req.BetType != "back" && req.BetType != "lay") {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	sel, err := s.slip.Add(userID(r), betslip.Selection{
		ID:          req.ID,
		MatchID:     req.MatchID,
		MarketID:    req.MarketID,
		SelectionID: req.SelectionID,
		MarketName:  req.MarketName,
		RunnerName:  req.RunnerName,
		BetType:     req.BetType,
		Odds:        req.Odds,
		Stake:       req.Stake,
	})
	if err != nil {
		if errors.Is(err, betslip.ErrAuthRequired) {
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"selection": sel})
}

func (s *Server) updateStake(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	var req dto.UpdateStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	sel, err := s.slip.UpdateStake(uid, chi.URLParam(r, "id"), req.Stake)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"selection": sel})
}

func (s *Server) removeFromSlip(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if err := s.slip.Remove(uid, chi.URLParam(r, "id")); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
