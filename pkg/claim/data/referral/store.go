package referral

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyExists indicates an affiliated wallet record already exists
	ErrAlreadyExists = errors.New("affiliated wallet record already exists")

	// ErrNotFound indicates an affiliated wallet record doesn't exist
	ErrNotFound = errors.New("affiliated wallet record not found")
)

type Store interface {
	// Put creates a new affiliated wallet record
	Put(ctx context.Context, record *Record) error

	// GetByWallet gets an affiliated wallet record by wallet address
	GetByWallet(ctx context.Context, walletAddress string) (*Record, error)

	// GetByCode gets an affiliated wallet record by referral code
	GetByCode(ctx context.Context, code string) (*Record, error)

	// AddSolReceived atomically adds to a wallet's cumulative referral
	// earnings and returns the updated record
	AddSolReceived(ctx context.Context, walletAddress string, amount float64) (*Record, error)
}
