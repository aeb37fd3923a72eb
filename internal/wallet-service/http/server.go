package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/wallet-service/dto"
	"github.com/radieske/live-odds-platform/internal/wallet-service/repo"
)

// Repo define a interface de operações de carteira usadas pelo handler HTTP
type Repo interface {
	GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error)
	Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error)
	Reserve(ctx context.Context, userID string, amount int64, externalRef string) (reservationID string, err error)
	Commit(ctx context.Context, userID, externalRef string) error
	Refund(ctx context.Context, userID, externalRef string) error
}

// Server expõe a API de carteira consumida pelo bet-service e pelo
// bet-confirmation-worker
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/wallet", s.getWallet) // ?userId=...
	r.Post("/wallet/deposit", s.deposit)
	r.Post("/wallet/reserve", s.reserve)
	r.Post("/wallet/commit", s.commit)
	r.Post("/wallet/refund", s.refund)
	return r
}

// getWallet retorna (ou cria) a carteira e saldo do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: userID, WalletID: walletID, BalanceCents: bal})
}

// deposit credita saldo na carteira do usuário
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	walletID, bal, err := s.repo.Deposit(r.Context(), req.UserID, req.AmountCents, req.ExternalRef)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: req.UserID, WalletID: walletID, BalanceCents: bal})
}

// reserve bloqueia saldo para uma aposta em andamento
func (s *Server) reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	resID, err := s.repo.Reserve(r.Context(), req.UserID, req.AmountCents, req.ExternalRef)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, dto.ReservationResponse{ReservationID: resID, Status: "PENDING"})
}

// commit efetiva uma reserva de saldo
func (s *Server) commit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRef(w, r)
	if !ok {
		return
	}
	if err := s.repo.Commit(r.Context(), req.UserID, req.ExternalRef); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "COMMITTED"})
}

// refund desfaz uma reserva, devolvendo o valor ao usuário
func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRef(w, r)
	if !ok {
		return
	}
	if err := s.repo.Refund(r.Context(), req.UserID, req.ExternalRef); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "REFUNDED"})
}

// decodeRef lê e valida o par (userId, external_ref) de commit/refund
func decodeRef(w http.ResponseWriter, r *http.Request) (dto.CommitRequest, bool) {
	var req dto.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return req, false
	}
	if req.UserID == "" || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// fail mapeia erros do repositório para status HTTP
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		s.log.Error("wallet op failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusConflict)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
