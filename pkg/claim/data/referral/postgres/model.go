package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
	pgutil "github.com/awais-3/BetterClaimSQL-Backend/pkg/database/postgres"
)

const (
	tableName = "betterclaim__affiliatedwallet"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	WalletAddress string  `db:"wallet_address"`
	Code          string  `db:"referral_code"`
	SolReceived   float64 `db:"sol_received"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toModel(obj *referral.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		WalletAddress: obj.WalletAddress,
		Code:          obj.Code,
		SolReceived:   obj.SolReceived,
		CreatedAt:     obj.CreatedAt,
		UpdatedAt:     obj.UpdatedAt,
	}, nil
}

func fromModel(obj *model) *referral.Record {
	return &referral.Record{
		Id:            uint64(obj.Id.Int64),
		WalletAddress: obj.WalletAddress,
		Code:          obj.Code,
		SolReceived:   obj.SolReceived,
		CreatedAt:     obj.CreatedAt,
		UpdatedAt:     obj.UpdatedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(wallet_address, referral_code, sol_received, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, wallet_address, referral_code, sol_received, created_at, updated_at`

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		if m.UpdatedAt.IsZero() {
			m.UpdatedAt = m.CreatedAt
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.WalletAddress,
			m.Code,
			m.SolReceived,
			m.CreatedAt.UTC(),
			m.UpdatedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, referral.ErrAlreadyExists)
	})
}

func dbGetByWallet(ctx context.Context, db *sqlx.DB, walletAddress string) (*model, error) {
	res := &model{}

	query := `SELECT
		id, wallet_address, referral_code, sol_received, created_at, updated_at
		FROM ` + tableName + `
		WHERE wallet_address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, walletAddress)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, referral.ErrNotFound)
	}
	return res, nil
}

func dbGetByCode(ctx context.Context, db *sqlx.DB, code string) (*model, error) {
	res := &model{}

	query := `SELECT
		id, wallet_address, referral_code, sol_received, created_at, updated_at
		FROM ` + tableName + `
		WHERE referral_code = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, code)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, referral.ErrNotFound)
	}
	return res, nil
}

func dbAddSolReceived(ctx context.Context, db *sqlx.DB, walletAddress string, amount float64) (*model, error) {
	res := &model{}

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET sol_received = sol_received + $2, updated_at = $3
			WHERE wallet_address = $1
			RETURNING id, wallet_address, referral_code, sol_received, created_at, updated_at`

		err := tx.QueryRowxContext(
			ctx,
			query,
			walletAddress,
			amount,
			time.Now().UTC(),
		).StructScan(res)

		return pgutil.CheckNoRows(err, referral.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
