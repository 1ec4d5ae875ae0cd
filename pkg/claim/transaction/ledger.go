package transaction

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana/token"
)

// Ledger is the view of on-chain state the composer needs. Lookups are never
// cached and never retried here: state read through this interface is stale
// the moment it's returned, and any later change surfaces as a rejection at
// broadcast time rather than as an engine-level check.
type Ledger interface {
	// GetAccountRent returns the full lamport balance of an account, which
	// is the amount reclaimed when it's closed. Returns ErrAccountNotFound
	// if the account doesn't exist.
	GetAccountRent(account ed25519.PublicKey) (uint64, error)

	// GetOwnerNativeBalance returns the owner's native lamport balance.
	GetOwnerNativeBalance(owner ed25519.PublicKey) (uint64, error)

	// GetTokenAccount returns the parsed token account state. Returns
	// ErrAccountNotFound if the account doesn't exist.
	GetTokenAccount(account ed25519.PublicKey) (*token.Account, error)

	// AccountExists reports whether an account exists, along with its
	// lamport balance when it does.
	AccountExists(address ed25519.PublicKey) (bool, uint64, error)

	// GetRecentBlockhash returns a recent blockhash to bind into the
	// finalized transaction.
	GetRecentBlockhash() (solana.Blockhash, error)
}

type rpcLedger struct {
	sc solana.Client
	tc *token.Client
}

// NewRPCLedger returns a Ledger backed by the Solana JSON RPC API.
func NewRPCLedger(sc solana.Client) Ledger {
	return &rpcLedger{
		sc: sc,
		tc: token.NewClient(sc),
	}
}

func (l *rpcLedger) GetAccountRent(account ed25519.PublicKey) (uint64, error) {
	info, err := l.sc.GetAccountInfo(account, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return 0, ErrAccountNotFound
	} else if err != nil {
		return 0, errors.Wrap(err, "error getting account info")
	}
	return info.Lamports, nil
}

func (l *rpcLedger) GetOwnerNativeBalance(owner ed25519.PublicKey) (uint64, error) {
	balance, err := l.sc.GetBalance(owner)
	if err == solana.ErrNoBalance {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrap(err, "error getting balance")
	}
	return balance, nil
}

func (l *rpcLedger) GetTokenAccount(account ed25519.PublicKey) (*token.Account, error) {
	tokenAccount, err := l.tc.GetAccount(account, solana.CommitmentConfirmed)
	if err == token.ErrAccountNotFound {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting token account")
	}
	return tokenAccount, nil
}

func (l *rpcLedger) AccountExists(address ed25519.PublicKey) (bool, uint64, error) {
	info, err := l.sc.GetAccountInfo(address, solana.CommitmentConfirmed)
	if err == solana.ErrNoAccountInfo {
		return false, 0, nil
	} else if err != nil {
		return false, 0, errors.Wrap(err, "error getting account info")
	}
	return true, info.Lamports, nil
}

func (l *rpcLedger) GetRecentBlockhash() (solana.Blockhash, error) {
	return l.sc.GetLatestBlockhash()
}
