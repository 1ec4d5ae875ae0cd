package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed claimtx.Store
func New(db *sql.DB) claimtx.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements claimtx.Store.Put
func (s *store) Put(ctx context.Context, record *claimtx.Record) error {
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

// GetRecent implements claimtx.Store.GetRecent
func (s *store) GetRecent(ctx context.Context, limit uint64) ([]*claimtx.Record, error) {
	models, err := dbGetRecent(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*claimtx.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// GetTotals implements claimtx.Store.GetTotals
func (s *store) GetTotals(ctx context.Context) (*claimtx.Totals, error) {
	return dbGetTotals(ctx, s.db)
}
