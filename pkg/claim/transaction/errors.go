package transaction

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidIdentifier indicates a caller-supplied value isn't a valid
	// base58 public key.
	ErrInvalidIdentifier = errors.New("invalid public key format")

	// ErrAccountNotFound indicates the target account doesn't exist on the
	// ledger.
	ErrAccountNotFound = errors.New("account not found")

	// ErrOwnershipMismatch indicates the token account exists but isn't owned
	// by the supplied owner. Distinct from ErrAccountNotFound so callers can
	// tell "doesn't exist" from "not yours".
	ErrOwnershipMismatch = errors.New("owner doesn't match the token account owner")

	// ErrMissingAssociatedAccount indicates the owner has no associated token
	// account for the mint being burned.
	ErrMissingAssociatedAccount = errors.New("associated token account doesn't exist")

	// ErrReferralResolutionFailed indicates a referral code was supplied but
	// no affiliated wallet maps to it.
	ErrReferralResolutionFailed = errors.New("no affiliated wallet found for referral code")

	// ErrNoValidAccounts indicates every account in a batch failed to
	// process.
	ErrNoValidAccounts = errors.New("no valid accounts to process")
)
