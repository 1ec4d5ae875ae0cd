package server_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/common"
	claimtx_memory "github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx/memory"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
	referral_memory "github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral/memory"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/server"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/split"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/transaction"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana/token"
)

const tokenAccountRent = 2_039_280

type fakeClient struct {
	balances      map[string]uint64
	accounts      map[string]solana.AccountInfo
	tokenAccounts map[string][]solana.TokenAccountInfo
	blockhash     solana.Blockhash
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		balances:      make(map[string]uint64),
		accounts:      make(map[string]solana.AccountInfo),
		tokenAccounts: make(map[string][]solana.TokenAccountInfo),
		blockhash:     solana.Blockhash{1, 2, 3},
	}
}

func (f *fakeClient) GetAccountInfo(key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	info, ok := f.accounts[base58.Encode(key)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (f *fakeClient) GetBalance(key ed25519.PublicKey) (uint64, error) {
	balance, ok := f.balances[base58.Encode(key)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return balance, nil
}

func (f *fakeClient) GetLatestBlockhash() (solana.Blockhash, error) {
	return f.blockhash, nil
}

func (f *fakeClient) GetTokenAccountsByOwner(owner, _ ed25519.PublicKey) ([]solana.TokenAccountInfo, error) {
	return f.tokenAccounts[base58.Encode(owner)], nil
}

// setTokenAccount installs a token account both as a standalone account (for
// the close path) and in the owner's token account listing.
func (f *fakeClient) setTokenAccount(address, owner ed25519.PublicKey, amount uint64) {
	mint, _ := common.NewRandomAccount()
	state := token.Account{
		Mint:   mint.PublicKey().ToBytes(),
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}

	info := solana.AccountInfo{
		Data:     state.Marshal(),
		Owner:    token.ProgramKey,
		Lamports: tokenAccountRent,
	}

	f.accounts[base58.Encode(address)] = info
	f.tokenAccounts[base58.Encode(owner)] = append(f.tokenAccounts[base58.Encode(owner)], solana.TokenAccountInfo{
		PublicKey:   address,
		AccountInfo: info,
	})
}

type testEnv struct {
	client    *fakeClient
	handler   http.Handler
	referrals referral.Store
	owner     *common.Account
}

func setup(t *testing.T) *testEnv {
	operator, err := common.NewRandomAccount()
	require.NoError(t, err)

	owner, err := common.NewRandomAccount()
	require.NoError(t, err)

	fc := newFakeClient()
	referrals := referral_memory.New()
	claims := claimtx_memory.New()

	composer := transaction.NewComposer(
		transaction.NewRPCLedger(fc),
		server.NewReferralDirectory(referrals),
		operator,
		split.DefaultParams(),
	)

	srv := server.New(":0", composer, fc, referrals, claims)

	return &testEnv{
		client:    fc,
		handler:   srv.Handler(),
		referrals: referrals,
		owner:     owner,
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	require.NoError(t, json.NewDecoder(rr.Body).Decode(out))
}

func TestServer_CloseAccount_HappyPath(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()
	env.client.balances[ownerKey.ToBase58()] = 5_000_000_000

	account, err := common.NewRandomAccount()
	require.NoError(t, err)
	env.client.setTokenAccount(account.PublicKey().ToBytes(), ownerKey.ToBytes(), 0)

	rr := env.do(t, http.MethodPost, "/api/accounts/close-account", map[string]string{
		"user_public_key":    ownerKey.ToBase58(),
		"account_public_key": account.PublicKey().ToBase58(),
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Transaction string  `json:"transaction"`
		SolReceived float64 `json:"solReceived"`
	}
	decodeBody(t, rr, &resp)

	raw, err := base64.StdEncoding.DecodeString(resp.Transaction)
	require.NoError(t, err)

	var txn solana.Transaction
	require.NoError(t, txn.Unmarshal(raw))
	assert.EqualValues(t, ownerKey.ToBytes(), txn.FeePayer())
	assert.Len(t, txn.Message.Instructions, 4)

	// 65% of the reclaimed rent
	assert.InDelta(t, 0.001325532, resp.SolReceived, 1e-12)
}

func TestServer_CloseAccount_SubsidyPath(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()

	account, err := common.NewRandomAccount()
	require.NoError(t, err)
	env.client.setTokenAccount(account.PublicKey().ToBytes(), ownerKey.ToBytes(), 0)

	rr := env.do(t, http.MethodPost, "/api/accounts/close-account", map[string]string{
		"user_public_key":    ownerKey.ToBase58(),
		"account_public_key": account.PublicKey().ToBase58(),
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Transaction string  `json:"transaction"`
		SolReceived float64 `json:"solReceived"`
	}
	decodeBody(t, rr, &resp)

	raw, err := base64.StdEncoding.DecodeString(resp.Transaction)
	require.NoError(t, err)

	var txn solana.Transaction
	require.NoError(t, txn.Unmarshal(raw))
	assert.NotEqualValues(t, ownerKey.ToBytes(), txn.FeePayer())
	assert.Len(t, txn.Message.Instructions, 5)

	// 75% of the reclaimed rent, less the fronted subsidy
	assert.InDelta(t, 0.00152446, resp.SolReceived, 1e-12)
}

func TestServer_CloseAccount_Errors(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()
	env.client.balances[ownerKey.ToBase58()] = 1_000_000_000

	// Malformed account key
	rr := env.do(t, http.MethodPost, "/api/accounts/close-account", map[string]string{
		"user_public_key":    ownerKey.ToBase58(),
		"account_public_key": "not-a-key",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown account
	missing, err := common.NewRandomAccount()
	require.NoError(t, err)
	rr = env.do(t, http.MethodPost, "/api/accounts/close-account", map[string]string{
		"user_public_key":    ownerKey.ToBase58(),
		"account_public_key": missing.PublicKey().ToBase58(),
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Missing body fields
	rr = env.do(t, http.MethodPost, "/api/accounts/close-account", map[string]string{
		"user_public_key": ownerKey.ToBase58(),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_CloseAccountsBunch_PartialFailure(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()
	env.client.balances[ownerKey.ToBase58()] = 1_000_000_000

	valid, err := common.NewRandomAccount()
	require.NoError(t, err)
	env.client.setTokenAccount(valid.PublicKey().ToBytes(), ownerKey.ToBytes(), 0)

	missing, err := common.NewRandomAccount()
	require.NoError(t, err)

	rr := env.do(t, http.MethodPost, "/api/accounts/close-accounts-bunch", map[string]interface{}{
		"user_public_key": ownerKey.ToBase58(),
		"account_public_keys": []string{
			valid.PublicKey().ToBase58(),
			missing.PublicKey().ToBase58(),
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Transaction       string                     `json:"transaction"`
		ProcessedAccounts []string                   `json:"processedAccounts"`
		Errors            []transaction.AccountError `json:"errors"`
	}
	decodeBody(t, rr, &resp)

	assert.Equal(t, []string{valid.PublicKey().ToBase58()}, resp.ProcessedAccounts)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, missing.PublicKey().ToBase58(), resp.Errors[0].Account)
}

func TestServer_AccountLists(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()

	empty, err := common.NewRandomAccount()
	require.NoError(t, err)
	env.client.setTokenAccount(empty.PublicKey().ToBytes(), ownerKey.ToBytes(), 0)

	funded, err := common.NewRandomAccount()
	require.NoError(t, err)
	env.client.setTokenAccount(funded.PublicKey().ToBytes(), ownerKey.ToBytes(), 25)

	var resp struct {
		Accounts []struct {
			PubKey     string  `json:"pubkey"`
			Mint       string  `json:"mint"`
			Balance    uint64  `json:"balance"`
			RentAmount float64 `json:"rentAmount"`
		} `json:"accounts"`
	}

	rr := env.do(t, http.MethodGet, "/api/accounts/get-accounts-without-balance-list?wallet_address="+ownerKey.ToBase58(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &resp)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, empty.PublicKey().ToBase58(), resp.Accounts[0].PubKey)
	assert.EqualValues(t, 0, resp.Accounts[0].Balance)
	assert.InDelta(t, 0.00203928, resp.Accounts[0].RentAmount, 1e-12)

	rr = env.do(t, http.MethodGet, "/api/accounts/get-accounts-with-balance-list?wallet_address="+ownerKey.ToBase58(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &resp)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, funded.PublicKey().ToBase58(), resp.Accounts[0].PubKey)
	assert.EqualValues(t, 25, resp.Accounts[0].Balance)

	rr = env.do(t, http.MethodGet, "/api/accounts/get-accounts-without-balance-list", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_WalletBalance(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()
	env.client.balances[ownerKey.ToBase58()] = 1_500_000_000

	var resp struct {
		Balance float64 `json:"balance"`
	}

	rr := env.do(t, http.MethodGet, "/api/accounts/get-wallet-balance?wallet_address="+ownerKey.ToBase58(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &resp)
	assert.InDelta(t, 1.5, resp.Balance, 1e-12)

	// Unfunded wallets read as zero rather than erroring
	unfunded, err := common.NewRandomAccount()
	require.NoError(t, err)
	rr = env.do(t, http.MethodGet, "/api/accounts/get-wallet-balance?wallet_address="+unfunded.PublicKey().ToBase58(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &resp)
	assert.Zero(t, resp.Balance)

	rr = env.do(t, http.MethodGet, "/api/accounts/get-wallet-balance?wallet_address=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_AffiliationFlow(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()
	walletInfoPath := "/api/affiliation/wallet-info?wallet_address=" + ownerKey.ToBase58()

	var infoResp struct {
		ReferralCode string  `json:"referral_code"`
		SolReceived  float64 `json:"sol_received"`
	}

	// First sight registers the wallet with a fresh code
	rr := env.do(t, http.MethodGet, walletInfoPath, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &infoResp)
	require.Len(t, infoResp.ReferralCode, 8)
	code := infoResp.ReferralCode

	// Subsequent lookups return the same code
	rr = env.do(t, http.MethodGet, walletInfoPath, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &infoResp)
	assert.Equal(t, code, infoResp.ReferralCode)

	var checkResp struct {
		WalletAddress string  `json:"wallet_address"`
		SolReceived   float64 `json:"sol_received"`
	}
	rr = env.do(t, http.MethodGet, "/api/affiliation/check-referral-code?referral_code="+code, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &checkResp)
	assert.Equal(t, ownerKey.ToBase58(), checkResp.WalletAddress)

	rr = env.do(t, http.MethodGet, "/api/affiliation/check-referral-code?referral_code=UNKNOWN1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var updateResp struct {
		UpdatedWallet struct {
			WalletAddress string  `json:"wallet_address"`
			SolReceived   float64 `json:"sol_received"`
		} `json:"updated_wallet"`
	}
	rr = env.do(t, http.MethodPost, "/api/affiliation/affiliated-wallet/update", map[string]interface{}{
		"wallet_address": ownerKey.ToBase58(),
		"amount":         1.5,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &updateResp)
	assert.InDelta(t, 1.5, updateResp.UpdatedWallet.SolReceived, 1e-12)

	rr = env.do(t, http.MethodPost, "/api/affiliation/affiliated-wallet/update", map[string]interface{}{
		"wallet_address": ownerKey.ToBase58(),
		"amount":         -1.0,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/affiliation/affiliated-wallet/update", map[string]interface{}{
		"wallet_address": "unknown-wallet",
		"amount":         1.0,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_CloseAccount_WithReferral(t *testing.T) {
	env := setup(t)

	ownerKey := env.owner.PublicKey()
	env.client.balances[ownerKey.ToBase58()] = 1_000_000_000

	account, err := common.NewRandomAccount()
	require.NoError(t, err)
	env.client.setTokenAccount(account.PublicKey().ToBytes(), ownerKey.ToBytes(), 0)

	// A funded referral wallet earns the carve-out transfer
	referrer, err := common.NewRandomAccount()
	require.NoError(t, err)
	env.client.accounts[referrer.PublicKey().ToBase58()] = solana.AccountInfo{Lamports: 1_000_000}
	require.NoError(t, env.referrals.Put(context.Background(), &referral.Record{
		WalletAddress: referrer.PublicKey().ToBase58(),
		Code:          "FRIEND01",
	}))

	rr := env.do(t, http.MethodPost, "/api/accounts/close-account", map[string]string{
		"user_public_key":    ownerKey.ToBase58(),
		"account_public_key": account.PublicKey().ToBase58(),
		"referral_code":      "FRIEND01",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Transaction string `json:"transaction"`
	}
	decodeBody(t, rr, &resp)

	raw, err := base64.StdEncoding.DecodeString(resp.Transaction)
	require.NoError(t, err)

	var txn solana.Transaction
	require.NoError(t, txn.Unmarshal(raw))
	assert.Len(t, txn.Message.Instructions, 5)

	// An unresolvable code on the single empty-account path is fatal
	rr = env.do(t, http.MethodPost, "/api/accounts/close-account", map[string]string{
		"user_public_key":    ownerKey.ToBase58(),
		"account_public_key": account.PublicKey().ToBase58(),
		"referral_code":      "NOPE0000",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_ClaimTransactionsFlow(t *testing.T) {
	env := setup(t)

	store := func(txID string, solReceived float64) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/api/claim-transactions/store", map[string]interface{}{
			"walletAddress":  env.owner.PublicKey().ToBase58(),
			"transactionId":  txID,
			"solReceived":    solReceived,
			"solShared":      solReceived / 10,
			"accountsClosed": 2,
		})
	}

	rr := store("sig-1", 0.5)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = store("sig-2", 0.25)
	require.Equal(t, http.StatusCreated, rr.Code)

	// Duplicate signatures conflict
	rr = store("sig-1", 0.5)
	assert.Equal(t, http.StatusConflict, rr.Code)

	var listResp []struct {
		TransactionId  string  `json:"transaction_id"`
		SolReceived    float64 `json:"sol_received"`
		AccountsClosed uint32  `json:"accounts_closed"`
	}
	rr = env.do(t, http.MethodGet, "/api/claim-transactions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &listResp)
	require.Len(t, listResp, 2)
	assert.Equal(t, "sig-2", listResp[0].TransactionId)
	assert.Equal(t, "sig-1", listResp[1].TransactionId)

	var totals struct {
		TotalAccountsClosed uint64  `json:"total_accounts_closed"`
		TotalSolClaimed     float64 `json:"total_sol_claimed"`
		TotalSolShared      float64 `json:"total_sol_shared"`
	}
	rr = env.do(t, http.MethodGet, "/api/claim-transactions/info", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &totals)
	assert.EqualValues(t, 4, totals.TotalAccountsClosed)
	assert.InDelta(t, 0.75, totals.TotalSolClaimed, 1e-12)
	assert.InDelta(t, 0.075, totals.TotalSolShared, 1e-12)
}

func TestServer_ComposeRateLimited(t *testing.T) {
	env := setup(t)

	body := map[string]string{
		"user_public_key":    env.owner.PublicKey().ToBase58(),
		"account_public_key": "not-a-key",
	}

	// Burst through the per-IP allowance; all requests come from the same
	// httptest client address.
	for i := 0; i < 5; i++ {
		rr := env.do(t, http.MethodPost, "/api/accounts/close-account", body)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	rr := env.do(t, http.MethodPost, "/api/accounts/close-account", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Read endpoints aren't limited
	rr = env.do(t, http.MethodGet, "/api/claim-transactions", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_Health(t *testing.T) {
	env := setup(t)

	rr := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestServer_MissingRoute(t *testing.T) {
	env := setup(t)

	rr := env.do(t, http.MethodGet, fmt.Sprintf("/api/accounts/%s", "nope"), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
