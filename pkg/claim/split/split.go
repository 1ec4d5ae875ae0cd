package split

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// Share percentages in basis points. The subsidized rate applies when the
	// owner's native balance is zero and the operator fronts the network fee.
	DefaultOwnerShareBps           = 6500
	DefaultSubsidizedOwnerShareBps = 7500
	DefaultReferralShareBps        = 3000

	// Fixed amount, in lamports, transferred to a zero-balance owner so the
	// settlement transaction can pay fees. Recovered from the owner's share
	// once the reclaim lands.
	DefaultCharitySubsidyLamports = 5000

	maxBps = 10000
)

// Params are the tunables of the split algorithm. All percentages are basis
// points, all amounts are lamports.
type Params struct {
	OwnerShareBps           uint64
	SubsidizedOwnerShareBps uint64
	ReferralShareBps        uint64
	CharitySubsidyLamports  uint64
}

func DefaultParams() Params {
	return Params{
		OwnerShareBps:           DefaultOwnerShareBps,
		SubsidizedOwnerShareBps: DefaultSubsidizedOwnerShareBps,
		ReferralShareBps:        DefaultReferralShareBps,
		CharitySubsidyLamports:  DefaultCharitySubsidyLamports,
	}
}

func (p Params) Validate() error {
	if p.OwnerShareBps > maxBps {
		return errors.Errorf("owner share of %d bps exceeds 100%%", p.OwnerShareBps)
	}
	if p.SubsidizedOwnerShareBps > maxBps {
		return errors.Errorf("subsidized owner share of %d bps exceeds 100%%", p.SubsidizedOwnerShareBps)
	}
	if p.ReferralShareBps > maxBps {
		return errors.Errorf("referral share of %d bps exceeds 100%%", p.ReferralShareBps)
	}
	return nil
}

// RevenueSplit is how a reclaimed amount is divided among the owner, the
// operator treasury, the charity subsidy and an optional referral.
//
// OwnerShare is signed because the subsidy is recovered from the owner's
// share, which can push it below zero for tiny reclaim amounts. The sum
// OwnerShare + TreasuryRemainder + ReferralShare always equals
// TotalReclaimed exactly.
type RevenueSplit struct {
	TotalReclaimed    uint64
	OwnerShare        int64
	TreasuryRemainder uint64
	CharitySubsidy    uint64
	ReferralShare     uint64
}

// Validate checks the balancing invariant. A violation is an internal defect
// in the split arithmetic, never a user-facing error.
func (s RevenueSplit) Validate() error {
	sum := s.OwnerShare + int64(s.TreasuryRemainder) + int64(s.ReferralShare)
	if sum != int64(s.TotalReclaimed) {
		return errors.Errorf(
			"split doesn't balance: owner %d + treasury %d + referral %d != total %d",
			s.OwnerShare,
			s.TreasuryRemainder,
			s.ReferralShare,
			s.TotalReclaimed,
		)
	}
	return nil
}

// Compute derives the revenue split for a settlement. It is a pure function
// of its inputs.
//
// All rounding floors, so the treasury remainder absorbs every rounding
// residue. Neither the owner nor the referral share is ever rounded up.
func Compute(params Params, totalReclaimed, ownerNativeBalance uint64, referralFunded bool) (RevenueSplit, error) {
	if err := params.Validate(); err != nil {
		return RevenueSplit{}, err
	}

	// The bps products below must not wrap uint64, including the remainder
	// after the subsidy is folded in. Any real reclaim is orders of magnitude
	// under this bound.
	const maxSplittable = math.MaxUint64 / maxBps
	if totalReclaimed > maxSplittable || params.CharitySubsidyLamports > maxSplittable-totalReclaimed {
		return RevenueSplit{}, errors.Errorf("total of %d lamports is too large to split", totalReclaimed)
	}

	var charitySubsidy uint64
	ownerShareBps := params.OwnerShareBps
	if ownerNativeBalance == 0 {
		charitySubsidy = params.CharitySubsidyLamports
		ownerShareBps = params.SubsidizedOwnerShareBps
	}

	ownerShare := int64(totalReclaimed * ownerShareBps / maxBps)
	remainder := totalReclaimed - uint64(ownerShare)

	// The subsidy is recovered from the owner's share and redirected to the
	// treasury-bound remainder.
	if charitySubsidy > 0 {
		ownerShare -= int64(charitySubsidy)
		remainder += charitySubsidy
	}

	var referralShare uint64
	if referralFunded {
		referralShare = remainder * params.ReferralShareBps / maxBps
		remainder -= referralShare
	}

	result := RevenueSplit{
		TotalReclaimed:    totalReclaimed,
		OwnerShare:        ownerShare,
		TreasuryRemainder: remainder,
		CharitySubsidy:    charitySubsidy,
		ReferralShare:     referralShare,
	}

	if err := result.Validate(); err != nil {
		return RevenueSplit{}, err
	}
	return result, nil
}
