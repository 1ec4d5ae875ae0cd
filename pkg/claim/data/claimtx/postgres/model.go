package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
	pgutil "github.com/awais-3/BetterClaimSQL-Backend/pkg/database/postgres"
)

const (
	tableName = "betterclaim__claimtransaction"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	WalletAddress string `db:"wallet_address"`
	TransactionId string `db:"transaction_id"`

	SolReceived    float64 `db:"sol_received"`
	SolShared      float64 `db:"sol_shared"`
	AccountsClosed uint32  `db:"accounts_closed"`

	ClaimedAt time.Time `db:"claimed_at"`
}

func toModel(obj *claimtx.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		WalletAddress:  obj.WalletAddress,
		TransactionId:  obj.TransactionId,
		SolReceived:    obj.SolReceived,
		SolShared:      obj.SolShared,
		AccountsClosed: obj.AccountsClosed,
		ClaimedAt:      obj.ClaimedAt,
	}, nil
}

func fromModel(obj *model) *claimtx.Record {
	return &claimtx.Record{
		Id:             uint64(obj.Id.Int64),
		WalletAddress:  obj.WalletAddress,
		TransactionId:  obj.TransactionId,
		SolReceived:    obj.SolReceived,
		SolShared:      obj.SolShared,
		AccountsClosed: obj.AccountsClosed,
		ClaimedAt:      obj.ClaimedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(wallet_address, transaction_id, sol_received, sol_shared, accounts_closed, claimed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, wallet_address, transaction_id, sol_received, sol_shared, accounts_closed, claimed_at`

		if m.ClaimedAt.IsZero() {
			m.ClaimedAt = time.Now()
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.WalletAddress,
			m.TransactionId,
			m.SolReceived,
			m.SolShared,
			m.AccountsClosed,
			m.ClaimedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, claimtx.ErrAlreadyExists)
	})
}

func dbGetRecent(ctx context.Context, db *sqlx.DB, limit uint64) ([]*model, error) {
	res := []*model{}

	query := `SELECT
		id, wallet_address, transaction_id, sol_received, sol_shared, accounts_closed, claimed_at
		FROM ` + tableName + `
		ORDER BY claimed_at DESC
		LIMIT $1`

	err := db.SelectContext(ctx, &res, query, limit)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func dbGetTotals(ctx context.Context, db *sqlx.DB) (*claimtx.Totals, error) {
	res := struct {
		TotalAccountsClosed uint64  `db:"total_accounts_closed"`
		TotalSolClaimed     float64 `db:"total_sol_claimed"`
		TotalSolShared      float64 `db:"total_sol_shared"`
	}{}

	query := `SELECT
		COALESCE(SUM(accounts_closed), 0) AS total_accounts_closed,
		COALESCE(SUM(sol_received), 0) AS total_sol_claimed,
		COALESCE(SUM(sol_shared), 0) AS total_sol_shared
		FROM ` + tableName

	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return nil, err
	}

	return &claimtx.Totals{
		TotalAccountsClosed: res.TotalAccountsClosed,
		TotalSolClaimed:     res.TotalSolClaimed,
		TotalSolShared:      res.TotalSolShared,
	}, nil
}
