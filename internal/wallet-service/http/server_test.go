package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/wallet-service/dto"
	"github.com/radieske/live-odds-platform/internal/wallet-service/repo"
)

// fakeWalletRepo implementa Repo em memória com a mesma semântica de
// idempotência por external_ref
type fakeWalletRepo struct {
	balances     map[string]int64
	reservations map[string]int64  // external_ref -> valor bloqueado
	status       map[string]string // external_ref -> PENDING|COMMITTED|REFUNDED
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		balances:     map[string]int64{},
		reservations: map[string]int64{},
		status:       map[string]string{},
	}
}

func (f *fakeWalletRepo) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	return "w-" + userID, f.balances[userID], nil
}

func (f *fakeWalletRepo) Deposit(_ context.Context, userID string, amount int64, _ string) (string, int64, error) {
	f.balances[userID] += amount
	return "w-" + userID, f.balances[userID], nil
}

func (f *fakeWalletRepo) Reserve(_ context.Context, userID string, amount int64, ref string) (string, error) {
	if _, ok := f.reservations[ref]; ok {
		return "res-" + ref, nil
	}
	if f.balances[userID] < amount {
		return "", repo.ErrInsufficientFunds
	}
	f.balances[userID] -= amount
	f.reservations[ref] = amount
	f.status[ref] = "PENDING"
	return "res-" + ref, nil
}

func (f *fakeWalletRepo) Commit(_ context.Context, _, ref string) error {
	if _, ok := f.reservations[ref]; !ok {
		return repo.ErrNotFound
	}
	if f.status[ref] == "PENDING" {
		f.status[ref] = "COMMITTED"
	}
	return nil
}

func (f *fakeWalletRepo) Refund(_ context.Context, userID, ref string) error {
	if _, ok := f.reservations[ref]; !ok {
		return repo.ErrNotFound
	}
	if f.status[ref] == "PENDING" {
		f.balances[userID] += f.reservations[ref]
		f.status[ref] = "REFUNDED"
	}
	return nil
}

func newWalletServer(t *testing.T) (*fakeWalletRepo, *httptest.Server) {
	fr := newFakeWalletRepo()
	srv := httptest.NewServer(NewServer(zap.NewNop(), fr).Router())
	t.Cleanup(srv.Close)
	return fr, srv
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWalletDepositAndBalance(t *testing.T) {
	_, srv := newWalletServer(t)

	resp := post(t, srv.URL+"/wallet/deposit", dto.DepositRequest{UserID: "u1", AmountCents: 50_000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.WalletResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(50_000), out.BalanceCents)

	got, err := http.Get(srv.URL + "/wallet?userId=u1")
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	require.NoError(t, json.NewDecoder(got.Body).Decode(&out))
	assert.Equal(t, int64(50_000), out.BalanceCents)
}

func TestWalletGetRequiresUserID(t *testing.T) {
	_, srv := newWalletServer(t)
	resp, err := http.Get(srv.URL + "/wallet")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWalletReserveCommitRefundFlow(t *testing.T) {
	fr, srv := newWalletServer(t)
	fr.balances["u1"] = 10_000

	resp := post(t, srv.URL+"/wallet/reserve", dto.ReserveRequest{UserID: "u1", AmountCents: 4_000, ExternalRef: "bet-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res dto.ReservationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "PENDING", res.Status)
	assert.Equal(t, int64(6_000), fr.balances["u1"])

	// replay da reserva com o mesmo external_ref não debita de novo
	resp = post(t, srv.URL+"/wallet/reserve", dto.ReserveRequest{UserID: "u1", AmountCents: 4_000, ExternalRef: "bet-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(6_000), fr.balances["u1"])

	resp = post(t, srv.URL+"/wallet/commit", dto.CommitRequest{UserID: "u1", ExternalRef: "bet-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMMITTED", fr.status["bet-1"])

	// refund depois do commit não devolve saldo
	resp = post(t, srv.URL+"/wallet/refund", dto.RefundRequest{UserID: "u1", ExternalRef: "bet-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(6_000), fr.balances["u1"])
}

func TestWalletReserveInsufficientFunds(t *testing.T) {
	fr, srv := newWalletServer(t)
	fr.balances["u1"] = 1_000

	resp := post(t, srv.URL+"/wallet/reserve", dto.ReserveRequest{UserID: "u1", AmountCents: 5_000, ExternalRef: "bet-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, int64(1_000), fr.balances["u1"])
}

func TestWalletCommitUnknownRef(t *testing.T) {
	_, srv := newWalletServer(t)
	resp := post(t, srv.URL+"/wallet/commit", dto.CommitRequest{UserID: "u1", ExternalRef: "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWalletRejectsInvalidPayloads(t *testing.T) {
	_, srv := newWalletServer(t)

	resp := post(t, srv.URL+"/wallet/deposit", dto.DepositRequest{UserID: "", AmountCents: 100})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/wallet/reserve", dto.ReserveRequest{UserID: "u1", AmountCents: 0, ExternalRef: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/wallet/refund", dto.RefundRequest{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
