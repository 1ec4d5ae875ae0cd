package server

import (
	"context"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/transaction"
)

// storeDirectory adapts a referral.Store to the composer's referral
// directory interface.
type storeDirectory struct {
	referrals referral.Store
}

// NewReferralDirectory returns a transaction.ReferralDirectory backed by the
// provided store.
func NewReferralDirectory(referrals referral.Store) transaction.ReferralDirectory {
	return &storeDirectory{referrals: referrals}
}

func (d *storeDirectory) ResolveReferral(ctx context.Context, code string) (string, error) {
	record, err := d.referrals.GetByCode(ctx, code)
	if err == referral.ErrNotFound {
		return "", transaction.ErrReferralNotFound
	} else if err != nil {
		return "", err
	}
	return record.WalletAddress, nil
}
