package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/bet-service/dto"
	"github.com/radieske/live-odds-platform/internal/bet-service/repo"
	"github.com/radieske/live-odds-platform/internal/betslip"
	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

type fakeRepo struct {
	bets    map[string]*repo.Bet // betID -> aposta
	byIdem  map[string]string    // userID+"|"+key -> betID
	nextID  int
	created []*repo.Bet
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bets: map[string]*repo.Bet{}, byIdem: map[string]string{}}
}

func (f *fakeRepo) CreatePending(_ context.Context, b *repo.Bet) (string, error) {
	f.nextID++
	id := "bet-" + string(rune('0'+f.nextID))
	cp := *b
	cp.ID = id
	cp.Status = "PENDING_CONFIRMATION"
	f.bets[id] = &cp
	f.byIdem[b.UserID+"|"+b.IdempotencyKey] = id
	f.created = append(f.created, &cp)
	return id, nil
}

func (f *fakeRepo) Delete(_ context.Context, betID string) error {
	b, ok := f.bets[betID]
	if !ok {
		return errors.New("not found")
	}
	delete(f.bets, betID)
	delete(f.byIdem, b.UserID+"|"+b.IdempotencyKey)
	return nil
}

func (f *fakeRepo) FindByIdempotencyKey(_ context.Context, userID, key string) (string, string, error) {
	id, ok := f.byIdem[userID+"|"+key]
	if !ok {
		return "", "", nil
	}
	return id, f.bets[id].Status, nil
}

func (f *fakeRepo) GetStatus(_ context.Context, betID string) (string, error) {
	b, ok := f.bets[betID]
	if !ok {
		return "", errors.New("not found")
	}
	return b.Status, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string, _ int) ([]dto.BetRecord, error) {
	var out []dto.BetRecord
	for _, b := range f.bets {
		if b.UserID == userID {
			out = append(out, dto.BetRecord{BetID: b.ID, MatchID: b.MatchID, Status: b.Status})
		}
	}
	return out, nil
}

type fakeOdds struct {
	odds map[string]string
	err  error // simula Redis indisponível
}

func (f *fakeOdds) CurrentOdd(_ context.Context, marketID, selectionID, side string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	// cache miss devolve vazio sem erro, como o validator real
	return f.odds[marketID+":"+selectionID+":"+side], nil
}

type fakeWallet struct {
	reserved map[string]int64 // externalRef -> cents
	fail     bool
	balance  int64
}

func (f *fakeWallet) Reserve(_ context.Context, _ string, cents int64, externalRef string) (string, error) {
	if f.fail {
		return "", errors.New("insufficient funds")
	}
	if f.reserved == nil {
		f.reserved = map[string]int64{}
	}
	f.reserved[externalRef] = cents
	return "res-1", nil
}

func (f *fakeWallet) Balance(_ context.Context, _ string) (int64, error) {
	return f.balance, nil
}

type fakePublisher struct{ published []events.BetPlaced }

func (f *fakePublisher) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	f.published = append(f.published, e)
	return nil
}

type fixture struct {
	repo   *fakeRepo
	odds   *fakeOdds
	wallet *fakeWallet
	publ   *fakePublisher
	slip   *betslip.Store
	srv    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		repo:   newFakeRepo(),
		odds:   &fakeOdds{odds: map[string]string{}},
		wallet: &fakeWallet{balance: 100_000},
		publ:   &fakePublisher{},
		slip:   betslip.NewStore(func(uid string) bool { return uid != "" }, nil),
	}
	s := NewServer(zap.NewNop(), fx.repo, fx.odds, fx.wallet, fx.publ, fx.slip)
	fx.srv = httptest.NewServer(s.Router())
	t.Cleanup(fx.srv.Close)
	return fx
}

func (fx *fixture) do(t *testing.T, method, path, uid, idemKey string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, fx.srv.URL+path, &buf)
	require.NoError(t, err)
	if uid != "" {
		req.Header.Set("X-User-ID", uid)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func validPlace() dto.PlaceBetRequest {
	return dto.PlaceBetRequest{
		MatchID:     "EV_1",
		MarketID:    "MKT_1001",
		SelectionID: "SEL_1",
		MarketName:  "Match Odds",
		RunnerName:  "Time A",
		OddValue:    1.85,
		StakeCents:  10_000,
		BetType:     "back",
	}
}

func TestPlaceBetHappyPath(t *testing.T) {
	fx := newFixture(t)
	fx.odds.odds["MKT_1001:SEL_1:back"] = "1.85"

	// slip carregado deve ser consumido pela colocação
	_, err := fx.slip.Add("u1", betslip.Selection{ID: "SEL_1", Odds: 1.85, Stake: 100})
	require.NoError(t, err)

	resp := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.PlaceBetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.BetID)
	assert.Equal(t, "PENDING_CONFIRMATION", out.Status)

	// reservou com external_ref = betID e publicou o evento
	assert.Equal(t, int64(10_000), fx.wallet.reserved[out.BetID])
	require.Len(t, fx.publ.published, 1)
	assert.Equal(t, out.BetID, fx.publ.published[0].BetID)
	assert.Equal(t, out.BetID, fx.publ.published[0].ReservedRef)

	assert.Nil(t, fx.slip.Get("u1"))
}

func TestPlaceBetRequiresAuthAndIdempotencyKey(t *testing.T) {
	fx := newFixture(t)

	resp := fx.do(t, http.MethodPost, "/betting/place", "", "idem-1", validPlace())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = fx.do(t, http.MethodPost, "/betting/place", "u1", "", validPlace())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlaceBetValidatesPayload(t *testing.T) {
	fx := newFixture(t)

	bad := validPlace()
	bad.BetType = "middle"
	resp := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad = validPlace()
	bad.StakeCents = 0
	resp = fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-2", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, fx.repo.created)
}

func TestPlaceBetRejectsStaleOdd(t *testing.T) {
	fx := newFixture(t)
	fx.odds.odds["MKT_1001:SEL_1:back"] = "1.95" // odd corrente divergente

	resp := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, fx.repo.created)
	assert.Empty(t, fx.publ.published)
}

func TestPlaceBetIdempotentReplay(t *testing.T) {
	fx := newFixture(t)
	fx.odds.odds["MKT_1001:SEL_1:back"] = "1.85"

	first := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	require.Equal(t, http.StatusOK, first.StatusCode)
	var a dto.PlaceBetResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&a))

	second := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	require.Equal(t, http.StatusOK, second.StatusCode)
	var b dto.PlaceBetResponse
	require.NoError(t, json.NewDecoder(second.Body).Decode(&b))

	assert.Equal(t, a.BetID, b.BetID)
	assert.Equal(t, "replay", b.Message)
	// sem segunda aposta, sem segunda reserva, sem segundo evento
	assert.Len(t, fx.repo.created, 1)
	assert.Len(t, fx.wallet.reserved, 1)
	assert.Len(t, fx.publ.published, 1)
}

func TestPlaceBetWalletFailure(t *testing.T) {
	fx := newFixture(t)
	fx.odds.odds["MKT_1001:SEL_1:back"] = "1.85"
	fx.wallet.fail = true

	resp := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, fx.publ.published)

	// a aposta sem reserva não pode ficar para trás: a chave fica livre
	assert.Empty(t, fx.repo.bets)
	id, _, err := fx.repo.FindByIdempotencyKey(context.Background(), "u1", "idem-1")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestPlaceBetRetryAfterFailedReserve(t *testing.T) {
	fx := newFixture(t)
	fx.odds.odds["MKT_1001:SEL_1:back"] = "1.85"

	// primeira tentativa: reserva falha, nada fica reservado nem publicado
	fx.wallet.fail = true
	resp := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, fx.wallet.reserved)
	assert.Empty(t, fx.publ.published)

	// retry com a mesma chave refaz o fluxo completo em vez de replay
	fx.wallet.fail = false
	resp = fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.PlaceBetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Message)
	assert.Equal(t, "PENDING_CONFIRMATION", out.Status)
	assert.Equal(t, int64(10_000), fx.wallet.reserved[out.BetID])
	require.Len(t, fx.publ.published, 1)
	assert.Equal(t, out.BetID, fx.publ.published[0].BetID)
}

func TestPlaceBetSkipsDriftCheckOnCacheOutage(t *testing.T) {
	fx := newFixture(t)
	fx.odds.err = errors.New("redis: connection refused")

	resp := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.PlaceBetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(10_000), fx.wallet.reserved[out.BetID])
}

func TestSlipRoutes(t *testing.T) {
	fx := newFixture(t)

	// sem sessão: 401 e slip intacto
	resp := fx.do(t, http.MethodPost, "/betting/slip", "", "", dto.AddSlipRequest{
		ID: "SEL_1", BetType: "back", Odds: 1.9, Stake: 50,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// adiciona com sessão
	resp = fx.do(t, http.MethodPost, "/betting/slip", "u1", "", dto.AddSlipRequest{
		ID: "SEL_1", MatchID: "EV_1", MarketName: "Match Odds", BetType: "back", Odds: 1.9, Stake: 50,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var add struct {
		Selection betslip.Selection `json:"selection"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&add))
	assert.Equal(t, "match-odds", add.Selection.MarketID)
	assert.Equal(t, "95.00", add.Selection.PotentialWin)

	// ajusta stake
	resp = fx.do(t, http.MethodPatch, "/betting/slip/SEL_1/stake", "u1", "", dto.UpdateStakeRequest{Stake: 200})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var upd struct {
		Selection betslip.Selection `json:"selection"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upd))
	assert.Equal(t, "380.00", upd.Selection.PotentialWin)

	// GET devolve a seleção corrente
	resp = fx.do(t, http.MethodGet, "/betting/slip", "u1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// remove e o slip fica vazio
	resp = fx.do(t, http.MethodDelete, "/betting/slip/SEL_1", "u1", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, fx.slip.Get("u1"))
}

func TestGetBetStatusAndMyBets(t *testing.T) {
	fx := newFixture(t)
	fx.odds.odds["MKT_1001:SEL_1:back"] = "1.85"

	placed := fx.do(t, http.MethodPost, "/betting/place", "u1", "idem-1", validPlace())
	require.Equal(t, http.StatusOK, placed.StatusCode)
	var out dto.PlaceBetResponse
	require.NoError(t, json.NewDecoder(placed.Body).Decode(&out))

	resp := fx.do(t, http.MethodGet, "/betting/bets/"+out.BetID, "u1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st dto.BetStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "PENDING_CONFIRMATION", st.Status)

	resp = fx.do(t, http.MethodGet, "/betting/bets/nope", "u1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = fx.do(t, http.MethodGet, "/betting/my-bets", "u1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bets []dto.BetRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bets))
	assert.Len(t, bets, 1)
}

func TestBalanceEndpoint(t *testing.T) {
	fx := newFixture(t)
	fx.wallet.balance = 42_000

	resp := fx.do(t, http.MethodGet, "/betting/balance", "u1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal dto.BalanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bal))
	assert.Equal(t, int64(42_000), bal.BalanceCents)

	resp = fx.do(t, http.MethodGet, "/betting/balance", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
