package claimtx

import (
	"time"

	"github.com/pkg/errors"
)

// Record is one broadcast settlement: which wallet claimed, the transaction
// that landed, how much SOL the owner received and how much was shared with
// a referral.
type Record struct {
	Id uint64

	WalletAddress string
	TransactionId string

	SolReceived    float64
	SolShared      float64
	AccountsClosed uint32

	ClaimedAt time.Time
}

// Totals aggregates the whole settlement history.
type Totals struct {
	TotalAccountsClosed uint64
	TotalSolClaimed     float64
	TotalSolShared      float64
}

func (r *Record) Validate() error {
	if len(r.WalletAddress) == 0 {
		return errors.New("wallet address is required")
	}

	if len(r.TransactionId) == 0 {
		return errors.New("transaction id is required")
	}

	if r.AccountsClosed == 0 {
		return errors.New("accounts closed must be positive")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		WalletAddress: r.WalletAddress,
		TransactionId: r.TransactionId,

		SolReceived:    r.SolReceived,
		SolShared:      r.SolShared,
		AccountsClosed: r.AccountsClosed,

		ClaimedAt: r.ClaimedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.WalletAddress = r.WalletAddress
	dst.TransactionId = r.TransactionId

	dst.SolReceived = r.SolReceived
	dst.SolShared = r.SolShared
	dst.AccountsClosed = r.AccountsClosed

	dst.ClaimedAt = r.ClaimedAt
}
