package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/common"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
)

type affiliatedWalletView struct {
	WalletAddress string    `json:"wallet_address"`
	ReferralCode  string    `json:"referral_code"`
	SolReceived   float64   `json:"sol_received"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toAffiliatedWalletView(record *referral.Record) affiliatedWalletView {
	return affiliatedWalletView{
		WalletAddress: record.WalletAddress,
		ReferralCode:  record.Code,
		SolReceived:   record.SolReceived,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

// handleWalletInfo returns the wallet's referral code and cumulative
// earnings, registering the wallet on first sight.
func (s *Server) handleWalletInfo(w http.ResponseWriter, r *http.Request) {
	walletAddress := r.URL.Query().Get("wallet_address")
	if len(walletAddress) == 0 {
		writeError(w, http.StatusBadRequest, "wallet address is required")
		return
	}

	if _, err := common.NewAccountFromPublicKeyString(walletAddress); err != nil {
		writeError(w, http.StatusBadRequest, "invalid wallet address format")
		return
	}

	record, err := s.referrals.GetByWallet(r.Context(), walletAddress)
	if err == referral.ErrNotFound {
		record, err = s.registerWallet(r.Context(), walletAddress)
	}
	if err != nil {
		s.log.WithError(err).Warn("failed to fetch wallet info")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"referral_code": record.Code,
		"sol_received":  record.SolReceived,
	})
}

func (s *Server) handleAffiliatedWallet(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("referral_code")
	if len(code) == 0 {
		writeError(w, http.StatusBadRequest, "referral code is required")
		return
	}

	record, err := s.referrals.GetByCode(r.Context(), code)
	if err == referral.ErrNotFound {
		writeError(w, http.StatusNotFound, "affiliated wallet not found")
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to fetch affiliated wallet")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"affiliated_wallet": toAffiliatedWalletView(record),
	})
}

func (s *Server) handleCheckReferralCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("referral_code")
	if len(code) == 0 {
		writeError(w, http.StatusBadRequest, "referral code is required")
		return
	}

	record, err := s.referrals.GetByCode(r.Context(), code)
	if err == referral.ErrNotFound {
		writeError(w, http.StatusNotFound, "referral code not found")
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to check referral code")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet_address": record.WalletAddress,
		"sol_received":   record.SolReceived,
	})
}

type updateAffiliatedWalletRequest struct {
	WalletAddress string   `json:"wallet_address"`
	Amount        *float64 `json:"amount"`
}

func (s *Server) handleUpdateAffiliatedWallet(w http.ResponseWriter, r *http.Request) {
	var req updateAffiliatedWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.WalletAddress) == 0 {
		writeError(w, http.StatusBadRequest, "valid wallet address is required")
		return
	}
	if req.Amount == nil || *req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must be a non-negative number")
		return
	}

	record, err := s.referrals.AddSolReceived(r.Context(), req.WalletAddress, *req.Amount)
	if err == referral.ErrNotFound {
		writeError(w, http.StatusNotFound, "affiliated wallet not found")
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to update affiliated wallet")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated_wallet": toAffiliatedWalletView(record),
	})
}

// registerWallet creates a referral record with a freshly generated code,
// retrying on the off chance the random code collides with an existing one.
func (s *Server) registerWallet(ctx context.Context, walletAddress string) (*referral.Record, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := referral.GenerateCode()
		if err != nil {
			return nil, err
		}

		record := &referral.Record{
			WalletAddress: walletAddress,
			Code:          code,
		}

		err = s.referrals.Put(ctx, record)
		if err == nil {
			return record, nil
		}
		if err != referral.ErrAlreadyExists {
			return nil, err
		}

		// The wallet may have been registered concurrently
		if existing, getErr := s.referrals.GetByWallet(ctx, walletAddress); getErr == nil {
			return existing, nil
		}
	}

	return nil, referral.ErrAlreadyExists
}
