package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/mr-tron/base58"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/common"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/transaction"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana/token"
)

const lamportsPerSol = 1_000_000_000

type closeAccountRequest struct {
	UserPublicKey    string `json:"user_public_key"`
	AccountPublicKey string `json:"account_public_key"`
	ReferralCode     string `json:"referral_code"`
}

type closeAccountsBunchRequest struct {
	UserPublicKey     string   `json:"user_public_key"`
	AccountPublicKeys []string `json:"account_public_keys"`
	ReferralCode      string   `json:"referral_code"`
}

type closeAccountResponse struct {
	Transaction string  `json:"transaction"`
	SolReceived float64 `json:"solReceived"`

	ProcessedAccounts []string                   `json:"processedAccounts,omitempty"`
	Errors            []transaction.AccountError `json:"errors,omitempty"`
}

func toCloseAccountResponse(settlement *transaction.Settlement) closeAccountResponse {
	return closeAccountResponse{
		Transaction:       base64.StdEncoding.EncodeToString(settlement.Transaction.Marshal()),
		SolReceived:       settlement.SolReceived(),
		ProcessedAccounts: settlement.ProcessedAccounts,
		Errors:            settlement.Errors,
	}
}

func (s *Server) handleCloseAccount(w http.ResponseWriter, r *http.Request) {
	var req closeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.UserPublicKey) == 0 || len(req.AccountPublicKey) == 0 {
		writeError(w, http.StatusBadRequest, "missing user or account public key")
		return
	}

	settlement, err := s.composer.CloseAccount(r.Context(), req.UserPublicKey, req.AccountPublicKey, req.ReferralCode)
	if err != nil {
		s.log.WithError(err).Warn("failed to compose close account transaction")
		writeComposerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCloseAccountResponse(settlement))
}

func (s *Server) handleCloseAccountWithBalance(w http.ResponseWriter, r *http.Request) {
	var req closeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.UserPublicKey) == 0 || len(req.AccountPublicKey) == 0 {
		writeError(w, http.StatusBadRequest, "missing user or account public key")
		return
	}

	settlement, err := s.composer.CloseAccountWithBalance(r.Context(), req.UserPublicKey, req.AccountPublicKey, req.ReferralCode)
	if err != nil {
		s.log.WithError(err).Warn("failed to compose close account with balance transaction")
		writeComposerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCloseAccountResponse(settlement))
}

func (s *Server) handleCloseAccountsBunch(w http.ResponseWriter, r *http.Request) {
	var req closeAccountsBunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.UserPublicKey) == 0 || len(req.AccountPublicKeys) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request parameters")
		return
	}

	settlement, err := s.composer.CloseAccountBatch(r.Context(), req.UserPublicKey, req.AccountPublicKeys, req.ReferralCode)
	if err != nil {
		s.log.WithError(err).Warn("failed to compose batch close transaction")
		writeComposerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCloseAccountResponse(settlement))
}

type tokenAccountItem struct {
	PubKey     string  `json:"pubkey"`
	Mint       string  `json:"mint"`
	Balance    uint64  `json:"balance"`
	RentAmount float64 `json:"rentAmount,omitempty"`
}

type tokenAccountListResponse struct {
	Accounts []tokenAccountItem `json:"accounts"`
}

// listTokenAccounts fetches the wallet's token accounts and filters on
// whether they still hold tokens.
func (s *Server) listTokenAccounts(walletAddress string, withBalance bool) ([]tokenAccountItem, error) {
	wallet, err := common.NewAccountFromPublicKeyString(walletAddress)
	if err != nil {
		return nil, err
	}

	infos, err := s.sc.GetTokenAccountsByOwner(wallet.PublicKey().ToBytes(), token.ProgramKey)
	if err != nil {
		return nil, err
	}

	items := make([]tokenAccountItem, 0, len(infos))
	for _, info := range infos {
		var tokenAccount token.Account
		if !tokenAccount.Unmarshal(info.Data) {
			continue
		}

		if withBalance != (tokenAccount.Amount > 0) {
			continue
		}

		item := tokenAccountItem{
			PubKey:  base58.Encode(info.PublicKey),
			Mint:    base58.Encode(tokenAccount.Mint),
			Balance: tokenAccount.Amount,
		}
		if !withBalance {
			item.RentAmount = float64(info.Lamports) / lamportsPerSol
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *Server) handleAccountsWithoutBalanceList(w http.ResponseWriter, r *http.Request) {
	walletAddress := r.URL.Query().Get("wallet_address")
	if len(walletAddress) == 0 {
		writeError(w, http.StatusBadRequest, "no wallet address provided")
		return
	}

	items, err := s.listTokenAccounts(walletAddress, false)
	if err != nil {
		s.log.WithError(err).Warn("failed to fetch accounts without balance")
		writeError(w, http.StatusInternalServerError, "failed to fetch accounts without balance")
		return
	}

	writeJSON(w, http.StatusOK, tokenAccountListResponse{Accounts: items})
}

func (s *Server) handleAccountsWithBalanceList(w http.ResponseWriter, r *http.Request) {
	walletAddress := r.URL.Query().Get("wallet_address")
	if len(walletAddress) == 0 {
		writeError(w, http.StatusBadRequest, "no wallet address provided")
		return
	}

	items, err := s.listTokenAccounts(walletAddress, true)
	if err != nil {
		s.log.WithError(err).Warn("failed to fetch accounts with balance")
		writeError(w, http.StatusInternalServerError, "failed to fetch accounts with balance")
		return
	}

	writeJSON(w, http.StatusOK, tokenAccountListResponse{Accounts: items})
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	walletAddress := r.URL.Query().Get("wallet_address")
	if len(walletAddress) == 0 {
		writeError(w, http.StatusBadRequest, "no wallet address provided")
		return
	}

	wallet, err := common.NewAccountFromPublicKeyString(walletAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	balance, err := s.sc.GetBalance(wallet.PublicKey().ToBytes())
	if err != nil && err != solana.ErrNoBalance {
		s.log.WithError(err).Warn("failed to fetch wallet balance")
		writeError(w, http.StatusInternalServerError, "failed to fetch wallet balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{
		"balance": float64(balance) / lamportsPerSol,
	})
}
