package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed referral.Store
func New(db *sql.DB) referral.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements referral.Store.Put
func (s *store) Put(ctx context.Context, record *referral.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbPut(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetByWallet implements referral.Store.GetByWallet
func (s *store) GetByWallet(ctx context.Context, walletAddress string) (*referral.Record, error) {
	model, err := dbGetByWallet(ctx, s.db, walletAddress)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetByCode implements referral.Store.GetByCode
func (s *store) GetByCode(ctx context.Context, code string) (*referral.Record, error) {
	model, err := dbGetByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// AddSolReceived implements referral.Store.AddSolReceived
func (s *store) AddSolReceived(ctx context.Context, walletAddress string, amount float64) (*referral.Record, error) {
	model, err := dbAddSolReceived(ctx, s.db, walletAddress, amount)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}
