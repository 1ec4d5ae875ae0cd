package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
)

const recentClaimTransactionsLimit = 20

type claimTransactionView struct {
	Id             uint64    `json:"id"`
	WalletAddress  string    `json:"wallet_address"`
	TransactionId  string    `json:"transaction_id"`
	SolReceived    float64   `json:"sol_received"`
	SolShared      float64   `json:"sol_shared"`
	AccountsClosed uint32    `json:"accounts_closed"`
	ClaimedAt      time.Time `json:"claimed_at"`
}

func toClaimTransactionView(record *claimtx.Record) claimTransactionView {
	return claimTransactionView{
		Id:             record.Id,
		WalletAddress:  record.WalletAddress,
		TransactionId:  record.TransactionId,
		SolReceived:    record.SolReceived,
		SolShared:      record.SolShared,
		AccountsClosed: record.AccountsClosed,
		ClaimedAt:      record.ClaimedAt,
	}
}

func (s *Server) handleRecentClaimTransactions(w http.ResponseWriter, r *http.Request) {
	records, err := s.claims.GetRecent(r.Context(), recentClaimTransactionsLimit)
	if err != nil {
		s.log.WithError(err).Warn("failed to fetch claim transactions")
		writeError(w, http.StatusInternalServerError, "error fetching transactions")
		return
	}

	views := make([]claimTransactionView, len(records))
	for i, record := range records {
		views[i] = toClaimTransactionView(record)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleClaimTransactionTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.claims.GetTotals(r.Context())
	if err != nil {
		s.log.WithError(err).Warn("failed to fetch claim totals")
		writeError(w, http.StatusInternalServerError, "error fetching general data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_accounts_closed": totals.TotalAccountsClosed,
		"total_sol_claimed":     totals.TotalSolClaimed,
		"total_sol_shared":      totals.TotalSolShared,
	})
}

type storeClaimTransactionRequest struct {
	WalletAddress  string  `json:"walletAddress"`
	TransactionId  string  `json:"transactionId"`
	SolReceived    float64 `json:"solReceived"`
	SolShared      float64 `json:"solShared"`
	AccountsClosed uint32  `json:"accountsClosed"`
}

func (s *Server) handleStoreClaimTransaction(w http.ResponseWriter, r *http.Request) {
	var req storeClaimTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record := &claimtx.Record{
		WalletAddress:  req.WalletAddress,
		TransactionId:  req.TransactionId,
		SolReceived:    req.SolReceived,
		SolShared:      req.SolShared,
		AccountsClosed: req.AccountsClosed,
	}
	if record.AccountsClosed == 0 {
		record.AccountsClosed = 1
	}

	if err := record.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.claims.Put(r.Context(), record); err == claimtx.ErrAlreadyExists {
		writeError(w, http.StatusConflict, err.Error())
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to store claim transaction")
		writeError(w, http.StatusInternalServerError, "error adding transaction")
		return
	}

	writeJSON(w, http.StatusCreated, toClaimTransactionView(record))
}
