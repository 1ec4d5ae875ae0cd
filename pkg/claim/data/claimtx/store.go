package claimtx

import (
	"context"
	"errors"
)

// ErrAlreadyExists indicates a settlement was already recorded for the
// transaction id
var ErrAlreadyExists = errors.New("claim transaction record already exists")

type Store interface {
	// Put creates a new claim transaction record
	Put(ctx context.Context, record *Record) error

	// GetRecent gets the most recently claimed records, newest first
	GetRecent(ctx context.Context, limit uint64) ([]*Record, error)

	// GetTotals aggregates the full claim history
	GetTotals(ctx context.Context) (*Totals, error)
}
