package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/transaction"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeComposerError maps the composer's error taxonomy onto HTTP statuses.
// Anything unrecognized is an internal failure and doesn't leak its message.
func writeComposerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrInvalidIdentifier),
		errors.Is(err, transaction.ErrMissingAssociatedAccount),
		errors.Is(err, transaction.ErrReferralResolutionFailed),
		errors.Is(err, transaction.ErrNoValidAccounts):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, transaction.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, transaction.ErrOwnershipMismatch):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to create the transaction")
	}
}
